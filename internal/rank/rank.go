// Package rank orders final results and removes residual duplicates.
package rank

import (
	"sort"

	"github.com/sells-group/signal-scout/internal/model"
)

// Rank dedups results by company and sorts them by combined score,
// descending. Ties break on opportunity score, then company name, so the
// ordering is deterministic. Rank is idempotent: ranking an already-ranked
// slice changes nothing.
func Rank(results []model.Result) []model.Result {
	best := make(map[string]model.Result)
	var order []string

	for _, r := range results {
		key := r.Company.DedupKey()
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = r
			continue
		}
		if r.CombinedScore() > existing.CombinedScore() {
			best[key] = r
		}
	}

	out := make([]model.Result, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].CombinedScore(), out[j].CombinedScore()
		if si != sj {
			return si > sj
		}
		if out[i].Company.OpportunityScore != out[j].Company.OpportunityScore {
			return out[i].Company.OpportunityScore > out[j].Company.OpportunityScore
		}
		return out[i].Company.CompanyName < out[j].Company.CompanyName
	})
	return out
}
