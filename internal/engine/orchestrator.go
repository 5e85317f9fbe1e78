// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
orchestrator.go - sync entry points

The orchestrator ties the TP client, the resolver, the reconciler and the
shadow store together. SyncCourse is the unit everything else is built
from: a semester sync is SyncCourse per course, a queue message is
SyncCourse for one course.
*/

package engine

import (
	"context"
	"fmt"

	"tpcanvas/internal/canvas"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/metrics"
	"tpcanvas/internal/models"
	"tpcanvas/internal/rest"
	"tpcanvas/internal/shadow"
	"tpcanvas/internal/tp"
)

// Orchestrator drives full reconciliation runs.
type Orchestrator struct {
	tp         *tp.Client
	canvas     *canvas.Client
	store      *shadow.Store
	resolver   *Resolver
	reconciler *Reconciler
	maxPeriod  string
}

// New creates an orchestrator.
func New(tpClient *tp.Client, canvasClient *canvas.Client, store *shadow.Store, institution int, maxPeriod string) *Orchestrator {
	return &Orchestrator{
		tp:         tpClient,
		canvas:     canvasClient,
		store:      store,
		resolver:   NewResolver(canvasClient, institution, maxPeriod),
		reconciler: NewReconciler(canvasClient, store),
		maxPeriod:  maxPeriod,
	}
}

// SyncCourse reconciles one TP course across its whole term window. An
// error means the run may be incomplete and should be retried; a
// completed run is recorded in the sync metrics.
func (o *Orchestrator) SyncCourse(ctx context.Context, courseID, semester string, termNr int) error {
	err := o.syncCourse(ctx, courseID, semester, termNr)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("failure").Inc()
		return err
	}
	metrics.SyncRuns.WithLabelValues("success").Inc()
	return nil
}

func (o *Orchestrator) syncCourse(ctx context.Context, courseID, semester string, termNr int) error {
	timetable, err := o.tp.ScheduleWindow(ctx, semester, courseID, termNr, o.maxPeriod)
	if err != nil {
		return err
	}

	if timetable.IsEmpty() {
		// Course pulled from the schedule entirely: clear every mirror
		// course we have ever written for it.
		logging.Info().Str("course", courseID).Str("semester", semester).
			Msg("timetable empty, clearing mirrored events")
		return o.clearCourse(ctx, courseID, semester, termNr)
	}

	candidates, err := o.resolver.Resolve(ctx, courseID, semester, termNr)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		logging.Info().Str("course", courseID).Str("semester", semester).
			Msg("no canvas course found, nothing to sync")
		return nil
	}

	for _, assignment := range Split(candidates, timetable) {
		if err := o.reconciler.Reconcile(ctx, courseID, assignment); err != nil {
			return fmt.Errorf("reconcile %s into canvas course %d: %w",
				courseID, assignment.Course.ID, err)
		}
	}
	return nil
}

// SyncSemester reconciles every course with teaching activity in a
// semester. Courses fail in isolation: an error is logged and the run
// continues, so one broken course cannot stall a full-term sync.
func (o *Orchestrator) SyncSemester(ctx context.Context, semester string) error {
	courses, err := o.tp.Courses(ctx, semester)
	if err != nil {
		return fmt.Errorf("sync semester %s: %w", semester, err)
	}

	var failed int
	for _, course := range courses {
		if err := o.SyncCourse(ctx, course.ID, semester, course.TermNr.Int()); err != nil {
			failed++
			logging.Error().Err(err).
				Str("course", course.ID).
				Str("semester", semester).
				Msg("course sync failed, continuing")
		}
	}
	logging.Info().
		Str("semester", semester).
		Int("courses", len(courses)).
		Int("failed", failed).
		Msg("semester sync finished")
	if failed > 0 {
		return fmt.Errorf("sync semester %s: %d of %d courses failed", semester, failed, len(courses))
	}
	return nil
}

// RemoveCourse deletes every mirrored event of one TP course, as if its
// timetable had come back empty.
func (o *Orchestrator) RemoveCourse(ctx context.Context, courseID, semester string, termNr int) error {
	return o.clearCourse(ctx, courseID, semester, termNr)
}

// clearCourse reconciles an empty due set into every Canvas course of the
// term window, so a course removed from TP loses its mirrored events in
// all the semesters it has run. When resolution fails or finds nothing,
// the shadow records of the invoked semester are the fallback.
func (o *Orchestrator) clearCourse(ctx context.Context, courseID, semester string, termNr int) error {
	candidates, err := o.resolver.Resolve(ctx, courseID, semester, termNr)
	if err != nil {
		logging.Warn().Err(err).Str("course", courseID).
			Msg("resolution failed, clearing by shadow records instead")
	}
	if len(candidates) == 0 {
		return o.clearShadowCourses(ctx, courseID, semester, termNr)
	}
	for _, c := range candidates {
		a := Assignment{Course: c.Course, SIS: c.SIS}
		if err := o.reconciler.Reconcile(ctx, courseID, a); err != nil {
			return fmt.Errorf("clear canvas course %d: %w", c.Course.ID, err)
		}
	}
	return nil
}

// clearShadowCourses clears the events of every shadow course whose SIS
// id points at the given TP course and semester.
func (o *Orchestrator) clearShadowCourses(ctx context.Context, courseID, semester string, termNr int) error {
	sisSemester, err := models.SISSemester(semester, termNr)
	if err != nil {
		return err
	}
	records, err := o.store.CoursesBySIS(courseID, sisSemester)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := o.reconciler.ClearCourse(ctx, record.CanvasID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteEvent deletes a single calendar event by Canvas id, shadow record
// included. Operator tooling for cleaning up by hand.
func (o *Orchestrator) DeleteEvent(ctx context.Context, canvasEventID int64) error {
	outcome := o.canvas.DeleteEvent(ctx, canvasEventID)
	if !outcome.Gone() {
		return fmt.Errorf("delete event %d: outcome %s", canvasEventID, outcome)
	}
	// The course id is unknown here; find the record by scanning.
	courses, err := o.store.Courses()
	if err != nil {
		return err
	}
	for _, course := range courses {
		events, err := o.store.EventsByCourse(course.CanvasID)
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.CanvasID == canvasEventID {
				return o.store.DeleteEvent(event.CanvasCourseID, event.CanvasID)
			}
		}
	}
	return nil
}

// CheckStructure walks the whole shadow store and repairs records that no
// longer reflect Canvas: courses deleted upstream lose their local
// records, courses whose SIS id moved get it refreshed.
func (o *Orchestrator) CheckStructure(ctx context.Context) error {
	courses, err := o.store.Courses()
	if err != nil {
		return err
	}

	for _, record := range courses {
		live, err := o.canvas.GetCourse(ctx, record.CanvasID)
		if err != nil {
			if rest.IsNotFound(err) {
				logging.Warn().
					Int64("canvas_course", record.CanvasID).
					Str("sis_course_id", record.SISCourseID).
					Msg("course gone upstream, dropping local records")
				if err := o.store.DeleteCourse(record.CanvasID); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if live.SISCourseID != record.SISCourseID {
			logging.Warn().
				Int64("canvas_course", record.CanvasID).
				Str("old", record.SISCourseID).
				Str("new", live.SISCourseID).
				Msg("sis id changed upstream, refreshing record")
			record.SISCourseID = live.SISCourseID
			record.Name = live.Name
			record.CourseCode = live.CourseCode
			rec := record
			if err := o.store.SaveCourse(&rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// EventDiff is one event-level difference found by CompareEnvironments.
type EventDiff struct {
	Title  string
	Fields []string
}

// CompareEnvironments renders the occurrences due for a course and diffs
// them against the calendars of two Canvas instances, typically
// production and test. Purely diagnostic: nothing is written.
func (o *Orchestrator) CompareEnvironments(ctx context.Context, other *canvas.Client, courseID, semester string, termNr int) (map[string][]EventDiff, error) {
	timetable, err := o.tp.ScheduleWindow(ctx, semester, courseID, termNr, o.maxPeriod)
	if err != nil {
		return nil, err
	}
	events := append(models.FlattenActivities(timetable.Plenary),
		models.FlattenActivities(timetable.Group)...)

	result := make(map[string][]EventDiff)
	for name, client := range map[string]*canvas.Client{"primary": o.canvas, "secondary": other} {
		diffs, err := compareAgainst(ctx, client, o.resolver.institution, o.maxPeriod, courseID, semester, termNr, events)
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", name, err)
		}
		result[name] = diffs
	}
	return result, nil
}

// compareAgainst diffs the due occurrences against one Canvas instance.
func compareAgainst(ctx context.Context, client *canvas.Client, institution int, maxPeriod, courseID, semester string, termNr int, due []models.TPEvent) ([]EventDiff, error) {
	resolver := NewResolver(client, institution, maxPeriod)
	candidates, err := resolver.Resolve(ctx, courseID, semester, termNr)
	if err != nil {
		return nil, err
	}

	var diffs []EventDiff
	for _, candidate := range candidates {
		live, err := client.ListEvents(ctx, candidate.Course.ContextCode())
		if err != nil {
			return nil, err
		}
		for i := range due {
			best := bestMatch(courseID, &due[i], live)
			if len(best.Fields) > 0 {
				diffs = append(diffs, best)
			}
		}
	}
	return diffs, nil
}

// bestMatch finds the live event closest to an occurrence and reports the
// remaining field differences. With no live events at all, every field
// differs.
func bestMatch(courseID string, due *models.TPEvent, live []models.CanvasEvent) EventDiff {
	best := EventDiff{
		Title:  models.EventTitle(courseID, due),
		Fields: []string{"missing"},
	}
	for i := range live {
		fields := Diff(courseID, due, &live[i])
		if len(fields) == 0 {
			return EventDiff{Title: best.Title}
		}
		if len(best.Fields) == 1 && best.Fields[0] == "missing" || len(fields) < len(best.Fields) {
			best.Fields = fields
		}
	}
	return best
}

// Mapping describes where one TP course's activities would land.
type Mapping struct {
	CanvasCourseID int64
	SISCourseID    string
	CourseCode     string
	EventCount     int
}

// DescribeMapping resolves a course and reports, without writing
// anything, which Canvas courses would receive how many events.
func (o *Orchestrator) DescribeMapping(ctx context.Context, courseID, semester string, termNr int) ([]Mapping, error) {
	timetable, err := o.tp.ScheduleWindow(ctx, semester, courseID, termNr, o.maxPeriod)
	if err != nil {
		return nil, err
	}
	candidates, err := o.resolver.Resolve(ctx, courseID, semester, termNr)
	if err != nil {
		return nil, err
	}

	var mappings []Mapping
	for _, assignment := range Split(candidates, timetable) {
		mappings = append(mappings, Mapping{
			CanvasCourseID: assignment.Course.ID,
			SISCourseID:    assignment.Course.SISCourseID,
			CourseCode:     assignment.Course.CourseCode,
			EventCount:     len(assignment.Events),
		})
	}
	return mappings, nil
}
