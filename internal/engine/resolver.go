// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
resolver.go - course mapping

TP and Canvas do not share identifiers. The resolver searches Canvas by
course code, parses SIS course ids and keeps the courses that fall inside
the term window, so one change notification finds every semester the
course has run. The split policy then decides which teaching activities
land in which Canvas course.
*/

package engine

import (
	"context"
	"fmt"
	"strings"

	"tpcanvas/internal/canvas"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/models"
)

// Candidate is a Canvas course mapped to the TP course being synced.
type Candidate struct {
	Course models.CanvasCourse
	SIS    *models.SISCourseID
}

// Assignment pairs a Canvas course with the occurrences due in its
// calendar.
type Assignment struct {
	Course models.CanvasCourse
	SIS    *models.SISCourseID
	Events []models.TPEvent
}

// Resolver maps TP course ids to Canvas courses.
type Resolver struct {
	canvas      *canvas.Client
	institution int
	maxPeriod   string
}

// NewResolver creates a resolver scoped to one institution and bounded by
// the maximum period in active use.
func NewResolver(client *canvas.Client, institution int, maxPeriod string) *Resolver {
	return &Resolver{canvas: client, institution: institution, maxPeriod: maxPeriod}
}

// Resolve finds the Canvas courses belonging to a TP course across its
// whole term window. Courses with malformed SIS ids are logged and
// skipped.
func (r *Resolver) Resolve(ctx context.Context, courseID, semester string, termNr int) ([]Candidate, error) {
	steps, err := models.TermWindow(semester, termNr, r.maxPeriod)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", courseID, err)
	}

	courses, err := r.canvas.SearchCourses(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", courseID, err)
	}

	var candidates []Candidate
	seen := make(map[string]bool)
	for _, course := range courses {
		if course.SISCourseID == "" {
			continue
		}
		sis, err := models.ParseSISCourseID(course.SISCourseID)
		if err != nil {
			logging.Warn().
				Int64("canvas_course", course.ID).
				Str("sis_course_id", course.SISCourseID).
				Msg("skipping course with unparseable sis id")
			continue
		}
		if sis.Institution != r.institution || !strings.EqualFold(sis.Code, courseID) {
			continue
		}
		if !onTermWindow(sis, steps) {
			continue
		}
		// Canvas can surface the same SIS id more than once; the first
		// hit wins.
		if seen[course.SISCourseID] {
			logging.Warn().
				Int64("canvas_course", course.ID).
				Str("sis_course_id", course.SISCourseID).
				Msg("duplicate sis id, using first match")
			continue
		}
		seen[course.SISCourseID] = true
		candidates = append(candidates, Candidate{Course: course, SIS: sis})
	}
	return candidates, nil
}

func onTermWindow(sis *models.SISCourseID, steps []models.TermStep) bool {
	for _, step := range steps {
		if sis.MatchesTerm(step) {
			return true
		}
	}
	return false
}

// Split assigns the timetable's activities to the resolved candidates.
//
// A single candidate receives everything. With several, each
// multi-section (UA) candidate receives the group activities whose TP
// activity id matches the trailing SIS segment, and each single-section
// (UE) candidate receives the plenary teaching.
func Split(candidates []Candidate, timetable *models.TPTimetable) []Assignment {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		c := candidates[0]
		all := append(models.FlattenActivities(timetable.Plenary),
			models.FlattenActivities(timetable.Group)...)
		return []Assignment{{Course: c.Course, SIS: c.SIS, Events: all}}
	}

	assignments := make([]Assignment, 0, len(candidates))
	for _, c := range candidates {
		a := Assignment{Course: c.Course, SIS: c.SIS}
		switch c.SIS.Type {
		case models.SISTypeActivity:
			for i := range timetable.Group {
				if timetable.Group[i].ActID == c.SIS.ActivityID {
					a.Events = append(a.Events, timetable.Group[i].Flatten()...)
				}
			}
		case models.SISTypeCourse:
			a.Events = models.FlattenActivities(timetable.Plenary)
		}
		assignments = append(assignments, a)
	}
	return assignments
}
