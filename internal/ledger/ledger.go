// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package ledger tracks the change timestamps already processed per course,
so redelivered or out-of-order queue messages do not trigger redundant
sync runs.

The ledger is process-lifetime only and bounded: the oldest entries fall
out once the capacity is reached. Losing an entry is harmless, the worst
case is one extra sync run.
*/

package ledger

import (
	"time"
)

// capacity bounds the number of tracked courses.
const capacity = 100

type entry struct {
	key string
	at  time.Time
}

// Ledger remembers the newest processed change timestamp per course key.
// Not goroutine-safe: it belongs to the single queue consumer.
type Ledger struct {
	entries []entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make([]entry, 0, capacity)}
}

// Check reports whether a change at time t for the given key is stale,
// i.e. a change at that time or later has already been processed. Unknown
// keys are never stale.
func (l *Ledger) Check(key string, t time.Time) bool {
	for i := range l.entries {
		if l.entries[i].key == key {
			return !t.After(l.entries[i].at)
		}
	}
	return false
}

// Set records that a change at time t for the given key has been
// processed. A known key moves to the back, keeping eviction order by
// recency of processing. A new key at capacity evicts the oldest entry.
func (l *Ledger) Set(key string, t time.Time) {
	for i := range l.entries {
		if l.entries[i].key == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			l.entries = append(l.entries, entry{key: key, at: t})
			return
		}
	}
	if len(l.entries) >= capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry{key: key, at: t})
}

// Len returns the number of tracked keys.
func (l *Ledger) Len() int {
	return len(l.entries)
}
