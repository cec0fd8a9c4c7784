// Package export writes report issues to flat files and reads CSV exports back.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joescharf/worked/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Header is the fixed CSV header for every export.
var Header = []string{"key", "summary", "assignee", "status", "type", "created", "updated"}

// ExtraHeader is appended to Header when any issue has a project key or a resolution date.
var ExtraHeader = []string{"project", "resolved"}

// WindowHeader is appended to Header when issues carry assignee history.
var WindowHeader = []string{"assignees_in_window", "assignee_ids_in_window", "matched_assignees", "first_assignee", "last_assignee"}

// WriteCSV writes issues with Header, then ExtraHeader and WindowHeader when any issue
// has the matching data.
func WriteCSV(w io.Writer, issues []models.Issue) error {
	withExtra, withWindow := false, false
	for _, is := range issues {
		if is.Project != "" || !is.Resolved.IsZero() {
			withExtra = true
		}
		if is.Window != nil {
			withWindow = true
		}
	}

	cw := csv.NewWriter(w)
	header := append([]string{}, Header...)
	if withExtra {
		header = append(header, ExtraHeader...)
	}
	if withWindow {
		header = append(header, WindowHeader...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, is := range issues {
		row := []string{
			is.Key, is.Summary, is.Assignee, is.Status, is.Type,
			formatTime(is.Created), formatTime(is.Updated),
		}
		if withExtra {
			row = append(row, is.Project, formatTime(is.Resolved))
		}
		if withWindow {
			win := is.Window
			if win == nil {
				win = &models.AssigneeWindow{}
			}
			row = append(row, win.Names, win.AccountIDs, win.Matched, win.First, win.Last)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", is.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV. Columns are located by header name, so
// the extra and window columns are optional.
func ReadCSV(r io.Reader) ([]models.Issue, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range Header {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", h)
		}
	}
	_, withWindow := col[WindowHeader[0]]
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok {
			return rec[i]
		}
		return ""
	}

	var issues []models.Issue
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		created, err := parseTime(rec[col["created"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: created: %w", line, err)
		}
		updated, err := parseTime(rec[col["updated"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: updated: %w", line, err)
		}
		resolved, err := parseTime(get(rec, "resolved"))
		if err != nil {
			return nil, fmt.Errorf("line %d: resolved: %w", line, err)
		}
		is := models.Issue{
			Key:      rec[col["key"]],
			Summary:  rec[col["summary"]],
			Assignee: rec[col["assignee"]],
			Status:   rec[col["status"]],
			Type:     rec[col["type"]],
			Project:  get(rec, "project"),
			Created:  created,
			Updated:  updated,
			Resolved: resolved,
		}
		if withWindow {
			is.Window = &models.AssigneeWindow{
				Names:      get(rec, "assignees_in_window"),
				AccountIDs: get(rec, "assignee_ids_in_window"),
				Matched:    get(rec, "matched_assignees"),
				First:      get(rec, "first_assignee"),
				Last:       get(rec, "last_assignee"),
			}
		}
		issues = append(issues, is)
	}
	return issues, nil
}

// WriteJSON writes issues as an indented JSON array.
func WriteJSON(w io.Writer, issues []models.Issue) error {
	if issues == nil {
		issues = []models.Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(issues)
}

// WriteFile creates (or truncates) path and writes issues in the given format.
func WriteFile(path string, format Format, issues []models.Issue) (err error) {
	var write func(io.Writer, []models.Issue) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatJSON:
		write = WriteJSON
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := write(f, issues); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
