// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"fmt"
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	l := New()
	now := time.Date(2020, 8, 17, 12, 0, 0, 0, time.UTC)

	if l.Check("INF-1100_20h_1", now) {
		t.Error("unknown key must not be stale")
	}

	l.Set("INF-1100_20h_1", now)

	if !l.Check("INF-1100_20h_1", now) {
		t.Error("change at the recorded time is stale")
	}
	if !l.Check("INF-1100_20h_1", now.Add(-time.Minute)) {
		t.Error("older change is stale")
	}
	if l.Check("INF-1100_20h_1", now.Add(time.Minute)) {
		t.Error("newer change is fresh")
	}
	if l.Check("MED-3601_20h_1", now) {
		t.Error("other keys are unaffected")
	}
}

func TestSetUpdatesExistingKey(t *testing.T) {
	t.Parallel()

	l := New()
	now := time.Date(2020, 8, 17, 12, 0, 0, 0, time.UTC)

	l.Set("a", now)
	l.Set("b", now)
	l.Set("a", now.Add(time.Hour))

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if !l.Check("a", now.Add(time.Hour)) {
		t.Error("updated timestamp not recorded")
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	l := New()
	now := time.Date(2020, 8, 17, 12, 0, 0, 0, time.UTC)

	for i := 0; i < capacity; i++ {
		l.Set(fmt.Sprintf("key-%d", i), now)
	}
	if l.Len() != capacity {
		t.Fatalf("Len = %d, want %d", l.Len(), capacity)
	}

	l.Set("one-more", now)

	if l.Len() != capacity {
		t.Fatalf("Len = %d after overflow, want %d", l.Len(), capacity)
	}
	if l.Check("key-0", now) {
		t.Error("oldest key must be evicted")
	}
	if !l.Check("key-1", now) {
		t.Error("second oldest key must survive")
	}
	if !l.Check("one-more", now) {
		t.Error("new key must be recorded")
	}
}

func TestUpdateRefreshesEvictionOrder(t *testing.T) {
	t.Parallel()

	l := New()
	now := time.Date(2020, 8, 17, 12, 0, 0, 0, time.UTC)

	for i := 0; i < capacity; i++ {
		l.Set(fmt.Sprintf("key-%d", i), now)
	}
	// Touching the oldest key moves it to the back, so the next overflow
	// evicts key-1 instead.
	l.Set("key-0", now.Add(time.Minute))
	l.Set("one-more", now)

	if !l.Check("key-0", now) {
		t.Error("refreshed key must survive eviction")
	}
	if l.Check("key-1", now) {
		t.Error("key-1 should have been evicted")
	}
}
