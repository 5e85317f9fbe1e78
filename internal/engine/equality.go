// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
equality.go - occurrence/event equality

The match pass decides "already synchronized" with a strict conjunction
over every field the engine writes. Any mismatch makes the pair unequal,
which turns into a delete plus re-create downstream. There is no update
path, so the predicate is the whole consistency story.
*/

package engine

import (
	"sort"

	"tpcanvas/internal/models"
)

// Equal reports whether a scheduled occurrence and a Canvas event carry
// the same content. An event Canvas has marked deleted never matches.
func Equal(courseCode string, tp *models.TPEvent, canvas *models.CanvasEvent) bool {
	return len(Diff(courseCode, tp, canvas)) == 0
}

// Diff lists the fields on which an occurrence and a Canvas event
// disagree. Empty means equal. The field names are diagnostic output for
// the compare and mapping commands; sync logic only checks emptiness.
func Diff(courseCode string, tp *models.TPEvent, canvas *models.CanvasEvent) []string {
	var diffs []string

	if canvas.Deleted() {
		return []string{"workflow_state"}
	}
	if models.EventTitle(courseCode, tp) != canvas.Title {
		diffs = append(diffs, "title")
	}
	if models.EventLocation(tp) != canvas.LocationName {
		diffs = append(diffs, "location")
	}
	if !models.SameInstant(tp.DTStart, canvas.StartAt) {
		diffs = append(diffs, "start")
	}
	if !models.SameInstant(tp.DTEnd, canvas.EndAt) {
		diffs = append(diffs, "end")
	}

	meta, ok := models.ExtractMeta(canvas.Description)
	if !ok {
		return append(diffs, "description-meta")
	}
	if meta.Recording != models.Recording(tp) {
		diffs = append(diffs, "recording")
	}
	// Staff lists compare order-insensitively; recovered blocks are not
	// guaranteed sorted.
	staff := append([]string(nil), meta.Staff...)
	sort.Strings(staff)
	if !equalStrings(staff, models.StaffNames(tp)) {
		diffs = append(diffs, "staff")
	}
	if meta.Curr != models.CurriculumHash(tp.Curriculum) {
		diffs = append(diffs, "curriculum")
	}
	return diffs
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
