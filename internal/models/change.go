// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"fmt"
	"time"
)

// CourseChange is one course-changed notification, as published on the
// change queue and returned by TP's lastchanged feed.
type CourseChange struct {
	ID          string  `json:"id"`
	SemesterID  string  `json:"semesterid"`
	TermNr      FlexInt `json:"terminnr"`
	LastChanged string  `json:"lastchanged"`
}

// LastChangedAt parses the notification timestamp.
func (c *CourseChange) LastChangedAt() (time.Time, error) {
	return ParseInstant(c.LastChanged)
}

// Key identifies the course for change-ledger purposes. Two terms of the
// same course are distinct ledger entries.
func (c *CourseChange) Key() string {
	return fmt.Sprintf("%s_%s_%d", c.ID, c.SemesterID, c.TermNr.Int())
}
