package models

import "time"

// Issue is a single Jira issue as returned by a search.
type Issue struct {
	Key               string          `json:"key"`
	Summary           string          `json:"summary"`
	Assignee          string          `json:"assignee"` // display name, falls back to account id
	AssigneeAccountID string          `json:"assignee_account_id,omitempty"`
	Status            string          `json:"status"`
	Type              string          `json:"type"`
	Project           string          `json:"project,omitempty"`
	Created           time.Time       `json:"created"`
	Updated           time.Time       `json:"updated"`
	Resolved          time.Time       `json:"resolved,omitzero"`
	Window            *AssigneeWindow `json:"window,omitempty"` // set only with assignee history
}

// Holder is a user who held the assignee field, identified by account id and display name.
type Holder struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// AssigneeChange is one assignee transition from an issue changelog.
type AssigneeChange struct {
	Created  time.Time
	FromID   string
	FromName string
	ToID     string
	ToName   string
}
