// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"testing"
)

func TestParseSISCourseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    SISCourseID
		wantErr bool
	}{
		{
			name:  "plenary course",
			input: "UE_186_INF-1100_1_2020_VÅR_1",
			want: SISCourseID{
				Type: "UE", Institution: 186, Code: "INF-1100",
				Version: 1, Year: 2020, Season: "VÅR", TermNr: 1,
			},
		},
		{
			name:  "activity course",
			input: "UA_186_INF-1100_1_2020_VÅR_1_3-1",
			want: SISCourseID{
				Type: "UA", Institution: 186, Code: "INF-1100",
				Version: 1, Year: 2020, Season: "VÅR", TermNr: 1, ActivityID: "3-1",
			},
		},
		{
			name:  "activity id with underscores",
			input: "UA_186_MED-3601_1_2021_HØST_2_2-1_x",
			want: SISCourseID{
				Type: "UA", Institution: 186, Code: "MED-3601",
				Version: 1, Year: 2021, Season: "HØST", TermNr: 2, ActivityID: "2-1_x",
			},
		},
		{name: "too few segments", input: "UE_186_INF-1100", wantErr: true},
		{name: "unknown type", input: "XX_186_INF-1100_1_2020_VÅR_1", wantErr: true},
		{name: "unknown season", input: "UE_186_INF-1100_1_2020_SOMMER_1", wantErr: true},
		{name: "non-numeric term", input: "UE_186_INF-1100_1_2020_VÅR_x", wantErr: true},
		{name: "activity without activity id", input: "UA_186_INF-1100_1_2020_VÅR_1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSISCourseID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSISCourseID(%q) = %+v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSISCourseID(%q): %v", tt.input, err)
			}
			if *got != tt.want {
				t.Errorf("ParseSISCourseID(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestSISCourseIDSemester(t *testing.T) {
	t.Parallel()

	id, err := ParseSISCourseID("UE_186_INF-1100_1_2020_VÅR_2")
	if err != nil {
		t.Fatal(err)
	}
	if got := id.SISSemester(); got != "2020_VÅR_2" {
		t.Errorf("SISSemester() = %q, want %q", got, "2020_VÅR_2")
	}
}

func TestSISCourseIDMatchesTerm(t *testing.T) {
	t.Parallel()

	spring, err := ParseSISCourseID("UE_186_INF-1100_1_2020_VÅR_3")
	if err != nil {
		t.Fatal(err)
	}
	autumn, err := ParseSISCourseID("UE_186_INF-1100_1_2020_HØST_3")
	if err != nil {
		t.Fatal(err)
	}

	// Spring periods are whole numbers, autumn periods carry the half offset.
	if !spring.MatchesTerm(TermStep{Period: 20.0, TermNr: 3}) {
		t.Error("spring id should match spring step")
	}
	if spring.MatchesTerm(TermStep{Period: 20.5, TermNr: 3}) {
		t.Error("spring id should not match autumn step")
	}
	if !autumn.MatchesTerm(TermStep{Period: 20.5, TermNr: 3}) {
		t.Error("autumn id should match autumn step")
	}
	if autumn.MatchesTerm(TermStep{Period: 20.5, TermNr: 2}) {
		t.Error("term numbers must agree")
	}
}

func TestSISSemester(t *testing.T) {
	t.Parallel()

	tests := []struct {
		period  string
		termNr  int
		want    string
		wantErr bool
	}{
		{period: "17h", termNr: 2, want: "2017_HØST_2"},
		{period: "20v", termNr: 1, want: "2020_VÅR_1"},
		{period: "bad", termNr: 1, wantErr: true},
	}

	for _, tt := range tests {
		got, err := SISSemester(tt.period, tt.termNr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SISSemester(%q, %d) = %q, want error", tt.period, tt.termNr, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("SISSemester(%q, %d): %v", tt.period, tt.termNr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SISSemester(%q, %d) = %q, want %q", tt.period, tt.termNr, got, tt.want)
		}
	}
}
