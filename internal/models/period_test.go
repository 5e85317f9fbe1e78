// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"testing"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Period
		wantErr bool
	}{
		{name: "spring", input: "20v", want: 20.0},
		{name: "autumn", input: "19h", want: 19.5},
		{name: "uppercase suffix", input: "19H", want: 19.5},
		{name: "single digit year", input: "9v", want: 9.0},
		{name: "empty", input: "", wantErr: true},
		{name: "no suffix", input: "20", wantErr: true},
		{name: "bad suffix", input: "20x", wantErr: true},
		{name: "no year", input: "h", wantErr: true},
		{name: "negative year", input: "-1v", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePeriod(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriodString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		period Period
		want   string
	}{
		{period: 19.0, want: "19h"},
		{period: 19.5, want: "19v"},
		{period: 20.0, want: "20h"},
		{period: 9.0, want: "09h"},
	}

	for _, tt := range tests {
		if got := tt.period.String(); got != tt.want {
			t.Errorf("Period(%v).String() = %q, want %q", float64(tt.period), got, tt.want)
		}
	}
}

func TestPeriodYear(t *testing.T) {
	t.Parallel()

	if got := Period(20.5).Year(); got != 2020 {
		t.Errorf("Year() = %d, want 2020", got)
	}
	if !Period(20.5).Autumn() {
		t.Error("Period(20.5).Autumn() = false, want true")
	}
	if Period(20.0).Autumn() {
		t.Error("Period(20.0).Autumn() = true, want false")
	}
}

func TestFirstPeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		period     string
		termNr     int
		wantPeriod string
		wantErr    bool
	}{
		{name: "third term rewinds a full year", period: "20v", termNr: 3, wantPeriod: "19h"},
		{name: "first term keeps numeric value", period: "20v", termNr: 1, wantPeriod: "20h"},
		{name: "second term rewinds half", period: "20v", termNr: 2, wantPeriod: "19v"},
		{name: "zero term rejected", period: "20v", termNr: 0, wantErr: true},
		{name: "bad period", period: "20x", termNr: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotPeriod, gotTerm, err := FirstPeriod(tt.period, tt.termNr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FirstPeriod(%q, %d) = %q, want error", tt.period, tt.termNr, gotPeriod)
				}
				return
			}
			if err != nil {
				t.Fatalf("FirstPeriod(%q, %d): %v", tt.period, tt.termNr, err)
			}
			if gotPeriod != tt.wantPeriod || gotTerm != 1 {
				t.Errorf("FirstPeriod(%q, %d) = (%q, %d), want (%q, 1)",
					tt.period, tt.termNr, gotPeriod, gotTerm, tt.wantPeriod)
			}
		})
	}
}

func TestTermWindow(t *testing.T) {
	t.Parallel()

	t.Run("spans back to first term and forward to max", func(t *testing.T) {
		t.Parallel()

		steps, err := TermWindow("20v", 3, "21v")
		if err != nil {
			t.Fatalf("TermWindow: %v", err)
		}
		// First term sits a full year back, and two more terms fit before
		// the maximum period.
		want := []TermStep{
			{Period: 19.0, TermNr: 1},
			{Period: 19.5, TermNr: 2},
			{Period: 20.0, TermNr: 3},
			{Period: 20.5, TermNr: 4},
			{Period: 21.0, TermNr: 5},
		}
		if len(steps) != len(want) {
			t.Fatalf("got %d steps, want %d: %v", len(steps), len(want), steps)
		}
		for i, step := range steps {
			if step != want[i] {
				t.Errorf("step %d = %+v, want %+v", i, step, want[i])
			}
		}
	})

	t.Run("window at max period stays put", func(t *testing.T) {
		t.Parallel()

		steps, err := TermWindow("21v", 1, "21v")
		if err != nil {
			t.Fatalf("TermWindow: %v", err)
		}
		if len(steps) != 1 || steps[0].TermNr != 1 {
			t.Fatalf("got %v, want single first term", steps)
		}
	})

	t.Run("invalid term number", func(t *testing.T) {
		t.Parallel()

		if _, err := TermWindow("20v", 0, "21v"); err == nil {
			t.Error("want error for term 0")
		}
	})
}
