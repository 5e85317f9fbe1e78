// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SIS course id types. UE courses carry the plenary teaching of a course;
// UA courses carry one teaching activity (section) and append the TP
// activity id as a trailing segment.
const (
	SISTypeCourse   = "UE"
	SISTypeActivity = "UA"
)

// Canvas SIS season names.
const (
	SeasonAutumn = "HØST"
	SeasonSpring = "VÅR"
)

// SISCourseID is the parsed form of a Canvas sis_course_id such as
//
//	UE_186_INF-1100_1_2020_VÅR_1
//	UA_186_INF-1100_1_2020_VÅR_1_3-1
//
// segments: type, institution, course code, version, year, season,
// term number, and (UA only) the TP activity id.
type SISCourseID struct {
	Type        string
	Institution int
	Code        string
	Version     int
	Year        int
	Season      string
	TermNr      int
	ActivityID  string
}

// ParseSISCourseID decodes a sis_course_id string. Unknown layouts yield a
// ModelError; callers skip the record and continue.
func ParseSISCourseID(s string) (*SISCourseID, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 7 {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}

	id := &SISCourseID{
		Type:   parts[0],
		Code:   parts[2],
		Season: parts[5],
	}
	if id.Type != SISTypeCourse && id.Type != SISTypeActivity {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}
	if id.Season != SeasonAutumn && id.Season != SeasonSpring {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}

	var err error
	if id.Institution, err = strconv.Atoi(parts[1]); err != nil {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}
	if id.Version, err = strconv.Atoi(parts[3]); err != nil {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}
	if id.Year, err = strconv.Atoi(parts[4]); err != nil {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}
	if id.TermNr, err = strconv.Atoi(parts[6]); err != nil {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}

	// Activity ids may themselves contain underscores.
	if len(parts) > 7 {
		id.ActivityID = strings.Join(parts[7:], "_")
	}
	if id.Type == SISTypeActivity && id.ActivityID == "" {
		return nil, &ModelError{Field: "sis_course_id", Value: s}
	}

	return id, nil
}

// String re-encodes the identifier.
func (id *SISCourseID) String() string {
	base := fmt.Sprintf("%s_%d_%s_%d_%d_%s_%d",
		id.Type, id.Institution, id.Code, id.Version, id.Year, id.Season, id.TermNr)
	if id.ActivityID != "" {
		base += "_" + id.ActivityID
	}
	return base
}

// SISSemester returns the semester part of the identifier, e.g. "2020_VÅR_1".
func (id *SISCourseID) SISSemester() string {
	return fmt.Sprintf("%d_%s_%d", id.Year, id.Season, id.TermNr)
}

// MatchesTerm reports whether the identifier sits on the given term step.
func (id *SISCourseID) MatchesTerm(step TermStep) bool {
	season := SeasonSpring
	if step.Period.Autumn() {
		season = SeasonAutumn
	}
	return id.Year == step.Period.Year() && id.Season == season && id.TermNr == step.TermNr
}

// SISSemester builds the Canvas SIS semester string for a period and term
// number, e.g. ("17h", 2) → "2017_HØST_2".
func SISSemester(period string, termNr int) (string, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return "", err
	}
	season := SeasonSpring
	if strings.EqualFold(period[len(period)-1:], "h") {
		season = SeasonAutumn
	}
	return fmt.Sprintf("%d_%s_%d", p.Year(), season, termNr), nil
}
