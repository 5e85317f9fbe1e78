// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models holds the typed records exchanged with TP and Canvas,
// together with the identifier and period arithmetic that correlates them.
//
// Every remote payload is decoded into an explicit struct; there is no
// dynamic field access anywhere in the engine.
package models

import "fmt"

// ModelError reports a malformed domain value (SIS identifier, period
// string, timestamp). It is fatal for the one record carrying the value;
// callers log it and continue with the next record.
type ModelError struct {
	Field string
	Value string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("malformed %s: %q", e.Field, e.Value)
}
