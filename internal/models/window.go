package models

import "time"

// WindowHolder is a Holder together with the part of the report window it covered.
type WindowHolder struct {
	Holder
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
}

// AssigneeWindow summarizes who held an issue's assignee field during the report window.
type AssigneeWindow struct {
	Holders    []WindowHolder `json:"holders,omitempty"`
	Names      string         `json:"names"`       // comma-joined display names
	AccountIDs string         `json:"account_ids"` // comma-joined account ids
	Matched    string         `json:"matched"`     // holders matching the --users filter
	First      string         `json:"first"`
	Last       string         `json:"last"`
}
