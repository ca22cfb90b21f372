package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/signal-scout/internal/discover"
)

var (
	discoverExclude    string
	discoverCount      int
	discoverNoContacts bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "Run one discovery query and print results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		svc := initService(st)

		include := !discoverNoContacts
		resp := svc.Run(ctx, discover.Request{
			Query:           strings.Join(args, " "),
			ExcludedDomain:  discoverExclude,
			ResultCount:     discoverCount,
			IncludeContacts: &include,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode response")
		}
		if !resp.Success {
			return eris.New(resp.Error)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverExclude, "exclude", "", "domain to exclude from results (e.g. your own)")
	discoverCmd.Flags().IntVar(&discoverCount, "count", 0, "number of results (default 5)")
	discoverCmd.Flags().BoolVar(&discoverNoContacts, "no-contacts", false, "skip contact enrichment")
	rootCmd.AddCommand(discoverCmd)
}
