// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"time"
)

// instantLayouts are the timestamp formats seen across TP and Canvas
// payloads. TP emits local times with offsets, Canvas emits UTC "Z" times,
// and the change feed omits the offset entirely.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseInstant normalizes a timestamp string to an instant. Two timestamps
// compare equal iff their instants are equal, regardless of the string
// format they arrived in.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ModelError{Field: "timestamp", Value: s}
}

// SameInstant reports whether two timestamp strings denote the same
// instant. Unparseable timestamps never match anything.
func SameInstant(a, b string) bool {
	ta, err := ParseInstant(a)
	if err != nil {
		return false
	}
	tb, err := ParseInstant(b)
	if err != nil {
		return false
	}
	return ta.Equal(tb)
}
