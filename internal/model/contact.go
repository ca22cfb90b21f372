package model

import "strings"

// Seniority buckets a contact's title for ranking purposes.
type Seniority string

// Seniority buckets, highest first.
const (
	SeniorityCSuite   Seniority = "c_suite"
	SeniorityVP       Seniority = "vp"
	SeniorityDirector Seniority = "director"
	SeniorityManager  Seniority = "manager"
	SeniorityOther    Seniority = "other"
)

// InferSeniority buckets a free-text title by keyword. Earlier buckets win
// so "VP & Co-Founder" lands in c_suite.
func InferSeniority(title string) Seniority {
	t := strings.ToLower(title)
	switch {
	case t == "":
		return SeniorityOther
	case strings.Contains(t, "chief") || strings.Contains(t, "founder") || strings.Contains(t, "owner"):
		return SeniorityCSuite
	case strings.Contains(t, "vp") || strings.Contains(t, "vice president"):
		return SeniorityVP
	case strings.Contains(t, "director") || strings.Contains(t, "head of"):
		return SeniorityDirector
	case strings.Contains(t, "manager") || strings.Contains(t, "lead") || strings.Contains(t, "senior"):
		return SeniorityManager
	default:
		return SeniorityOther
	}
}

// EnrichedContact is one decision-maker resolved for a candidate company.
// All fields are optional; an absent contact is represented by a nil
// *EnrichedContact on the Result, not by a zero value here.
type EnrichedContact struct {
	FullName   string    `json:"full_name,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	Title      string    `json:"title,omitempty"`
	Email      string    `json:"email,omitempty"`
	ProfileURL string    `json:"profile_url,omitempty"`
	Seniority  Seniority `json:"seniority"`
	Source     string    `json:"source"`
}
