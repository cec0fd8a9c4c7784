// Package jql builds the Jira query used to find issues people worked on in a date window.
package jql

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the ISO calendar date form accepted on the command line and emitted in JQL.
const DateLayout = "2006-01-02"

// ErrInvalidFilter is returned by Build when a FilterSpec cannot produce a query.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterSpec describes which issues to look for.
type FilterSpec struct {
	People             []string  `json:"people"`
	From               time.Time `json:"from"`
	To                 time.Time `json:"to"` // inclusive
	Projects           []string  `json:"projects"`
	Extra              string    `json:"extra"`
	UseAccountID       bool      `json:"use_account_id"`
	InProgressStatuses []string  `json:"in_progress_statuses"`
}

// reserved words that must be quoted when used as a bare value.
var reserved = map[string]bool{
	"in": true, "was": true, "during": true, "and": true, "or": true, "not": true,
	"is": true, "empty": true, "null": true, "order": true, "by": true,
}

// special characters that JQL will not accept in a bare value.
const special = ` "'(),=!<>~@#$%^&*+{}[]|;:?/\`

// Validate checks the FilterSpec invariants.
func (s FilterSpec) Validate() error {
	people := clean(s.People)
	err := validation.ValidateStruct(&s,
		validation.Field(&s.People, validation.By(func(any) error {
			if len(people) == 0 {
				return errors.New("at least one user is required")
			}
			return nil
		})),
		validation.Field(&s.From, validation.Required),
		validation.Field(&s.To, validation.Required, validation.By(func(any) error {
			if !s.From.IsZero() && s.From.After(s.To) {
				return fmt.Errorf("must not be before from (%s > %s)", s.From.Format(DateLayout), s.To.Format(DateLayout))
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return nil
}

// Build renders the FilterSpec as a single JQL string. Clauses always appear in the
// order people, date range, projects, extra, followed by ORDER BY updated DESC.
func Build(s FilterSpec) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	window := Window(s.From, s.To)
	clauses := []string{
		PeopleClause(clean(s.People), s.UseAccountID, window),
		DateClause(clean(s.InProgressStatuses), window),
	}
	if projects := clean(s.Projects); len(projects) > 0 {
		clauses = append(clauses, fmt.Sprintf("project in (%s)", joinQuoted(projects)))
	}
	if extra := strings.TrimSpace(s.Extra); extra != "" {
		clauses = append(clauses, "("+extra+")")
	}
	return strings.Join(clauses, " AND ") + " ORDER BY updated DESC", nil
}

// Window renders the inclusive DURING range for two dates.
func Window(from, to time.Time) string {
	return fmt.Sprintf(`("%s", "%s")`, from.Format(DateLayout), to.Format(DateLayout))
}

// PeopleClause restricts results to issues assigned to one of people during window.
func PeopleClause(people []string, useAccountID bool, window string) string {
	ids := make([]string, len(people))
	for i, p := range people {
		if useAccountID {
			ids[i] = fmt.Sprintf("accountId(%s)", quote(p))
		} else {
			ids[i] = Quote(p)
		}
	}
	return fmt.Sprintf("assignee WAS IN (%s) DURING %s", strings.Join(ids, ", "), window)
}

// DateClause selects issues whose status moved during window, or that sat in one of the
// in-progress statuses at some point during it.
func DateClause(inProgress []string, window string) string {
	changed := "status CHANGED DURING " + window
	if len(inProgress) == 0 {
		return changed
	}
	return fmt.Sprintf("(%s OR status WAS IN (%s) DURING %s)", changed, joinQuoted(inProgress), window)
}

// Quote returns v as a JQL value, wrapping it in double quotes only when a bare value
// would be misparsed.
func Quote(v string) string {
	if v == "" || reserved[strings.ToLower(v)] || strings.ContainsAny(v, special) || strings.ContainsFunc(v, isSpace) {
		return quote(v)
	}
	return v
}

func quote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func joinQuoted(vs []string) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = Quote(v)
	}
	return strings.Join(out, ", ")
}

// clean trims whitespace and drops empty entries.
func clean(vs []string) []string {
	var out []string
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
