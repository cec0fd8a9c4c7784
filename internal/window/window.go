// Package window works out who held an issue's assignee field during a report window.
package window

import (
	"sort"
	"strings"
	"time"

	"github.com/joescharf/worked/internal/models"
)

var (
	beginning = time.Time{}
	forever   = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

type interval struct {
	start, end time.Time
	holder     models.Holder
}

// Compute returns the assignees whose tenure overlaps [start, end]. changes must be sorted
// oldest first; current is the issue's assignee now and is only used when no changes exist.
func Compute(current models.Holder, changes []models.AssigneeChange, start, end time.Time) models.AssigneeWindow {
	var holders []models.WindowHolder
	for _, iv := range intervals(current, changes) {
		if iv.start.After(end) || start.After(iv.end) {
			continue
		}
		holders = append(holders, models.WindowHolder{
			Holder:       iv.holder,
			OverlapStart: latest(iv.start, start),
			OverlapEnd:   earliest(iv.end, end),
		})
	}

	sort.SliceStable(holders, func(i, j int) bool {
		if !holders[i].OverlapStart.Equal(holders[j].OverlapStart) {
			return holders[i].OverlapStart.Before(holders[j].OverlapStart)
		}
		return holders[i].OverlapEnd.Before(holders[j].OverlapEnd)
	})

	seen := make(map[models.Holder]bool)
	var unique []models.WindowHolder
	for _, h := range holders {
		if !seen[h.Holder] {
			seen[h.Holder] = true
			unique = append(unique, h)
		}
	}

	w := models.AssigneeWindow{Holders: unique}
	var names, ids []string
	for _, h := range unique {
		if h.Name != "" {
			names = append(names, h.Name)
		}
		if h.ID != "" {
			ids = append(ids, h.ID)
		}
	}
	w.Names = strings.Join(names, ", ")
	w.AccountIDs = strings.Join(ids, ", ")
	if len(unique) > 0 {
		w.First = unique[0].Name
		w.Last = unique[len(unique)-1].Name
	}
	return w
}

// intervals splits the issue's history into assignee tenures. The "from" side of the first
// change held the field before it, each change's "to" side holds it until the next one.
func intervals(current models.Holder, changes []models.AssigneeChange) []interval {
	if len(changes) == 0 {
		return []interval{{start: beginning, end: forever, holder: current}}
	}

	first := changes[0]
	out := []interval{{
		start:  beginning,
		end:    first.Created.Add(-time.Microsecond),
		holder: models.Holder{ID: first.FromID, Name: first.FromName},
	}}
	for i := 0; i < len(changes)-1; i++ {
		cur, next := changes[i], changes[i+1]
		out = append(out, interval{
			start:  cur.Created,
			end:    next.Created.Add(-time.Microsecond),
			holder: models.Holder{ID: cur.ToID, Name: cur.ToName},
		})
	}
	last := changes[len(changes)-1]
	out = append(out, interval{
		start:  last.Created,
		end:    forever,
		holder: models.Holder{ID: last.ToID, Name: last.ToName},
	})
	return out
}

// Match returns the holders that appear in users, comparing account ids when useAccountID
// is set and display names otherwise. Comparison ignores case; the result keeps holder order.
func Match(holders []models.WindowHolder, users []string, useAccountID bool) string {
	if len(users) == 0 {
		return ""
	}
	want := make(map[string]bool, len(users))
	for _, u := range users {
		want[strings.ToLower(strings.TrimSpace(u))] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, h := range holders {
		var label string
		switch {
		case useAccountID && h.ID != "" && want[strings.ToLower(h.ID)]:
			label = h.Name
			if label == "" {
				label = h.ID
			}
		case !useAccountID && h.Name != "" && want[strings.ToLower(h.Name)]:
			label = h.Name
		default:
			continue
		}
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return strings.Join(out, ", ")
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
