// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
reconcile.go - per-course reconciliation pass

There is no update operation. An event that drifted from its occurrence
is deleted and re-created, and the shadow store brackets both sides: an
event is only deleted remotely if a shadow record proves this engine
created it, and a shadow record is only written after the remote create
succeeded. Interrupting a pass at any point leaves a state the next pass
repairs.
*/

package engine

import (
	"context"
	"fmt"

	"tpcanvas/internal/canvas"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/models"
	"tpcanvas/internal/rest"
	"tpcanvas/internal/shadow"
)

// Reconciler applies one Canvas course's due occurrences.
type Reconciler struct {
	canvas *canvas.Client
	store  *shadow.Store
}

// NewReconciler creates a reconciler.
func NewReconciler(client *canvas.Client, store *shadow.Store) *Reconciler {
	return &Reconciler{canvas: client, store: store}
}

// Reconcile brings one Canvas course's calendar in line with its due
// occurrences. An error means the course may be half-applied; the caller
// retries the whole pass, which is idempotent.
func (r *Reconciler) Reconcile(ctx context.Context, courseID string, a Assignment) error {
	record, err := r.store.FindOrCreateCourse(a.Course.ID)
	if err != nil {
		return err
	}
	record.Name = a.Course.Name
	record.CourseCode = a.Course.CourseCode
	record.SISCourseID = a.Course.SISCourseID
	if err := r.store.SaveCourse(record); err != nil {
		return err
	}

	if len(a.Events) == 0 {
		logging.Info().
			Int64("canvas_course", a.Course.ID).
			Str("course", courseID).
			Msg("no occurrences due, clearing calendar")
		return r.ClearCourse(ctx, a.Course.ID)
	}

	// Titles embed the TP course id, not the Canvas course_code, which
	// institutions decorate freely. Match and create must render from
	// the same source.
	pending, err := r.matchPass(ctx, courseID, a)
	if err != nil {
		return err
	}
	return r.createPass(ctx, courseID, a.Course, pending)
}

// matchPass walks every shadow record of the course, keeps the events
// that still match a due occurrence and deletes the rest. It returns the
// occurrences left to create.
func (r *Reconciler) matchPass(ctx context.Context, courseID string, a Assignment) ([]models.TPEvent, error) {
	records, err := r.store.EventsByCourse(a.Course.ID)
	if err != nil {
		return nil, err
	}

	pending := make([]models.TPEvent, len(a.Events))
	copy(pending, a.Events)

	for _, record := range records {
		live, err := r.canvas.GetEvent(ctx, record.CanvasID)
		if err != nil {
			if rest.IsNotFound(err) {
				// Purged upstream; only the shadow record is left to drop.
				if err := r.store.DeleteEvent(record.CanvasCourseID, record.CanvasID); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		matched := -1
		if !live.Deleted() {
			for i := range pending {
				if Equal(courseID, &pending[i], live) {
					matched = i
					break
				}
			}
		}
		if matched >= 0 {
			pending = append(pending[:matched], pending[matched+1:]...)
			continue
		}

		if err := r.deleteEvent(ctx, record); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

// createPass creates a calendar event per remaining occurrence. The
// shadow record is written only after the remote create succeeded.
func (r *Reconciler) createPass(ctx context.Context, courseID string, course models.CanvasCourse, pending []models.TPEvent) error {
	for i := range pending {
		ev := &pending[i]
		description, err := models.EventDescription(ev)
		if err != nil {
			return fmt.Errorf("render event %s: %w", ev.ID, err)
		}
		created, err := r.canvas.CreateEvent(ctx, &models.NewCanvasEvent{
			ContextCode:  course.ContextCode(),
			Title:        models.EventTitle(courseID, ev),
			Description:  description,
			StartAt:      ev.DTStart,
			EndAt:        ev.DTEnd,
			LocationName: models.EventLocation(ev),
		})
		if err != nil {
			return err
		}
		err = r.store.SaveEvent(&shadow.Event{
			CanvasID:       created.ID,
			CanvasCourseID: course.ID,
		})
		if err != nil {
			return err
		}
		logging.Debug().
			Int64("canvas_course", course.ID).
			Int64("event", created.ID).
			Str("title", created.Title).
			Msg("created calendar event")
	}
	return nil
}

// ClearCourse deletes every calendar event the engine has on record for a
// Canvas course.
func (r *Reconciler) ClearCourse(ctx context.Context, canvasCourseID int64) error {
	records, err := r.store.EventsByCourse(canvasCourseID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := r.deleteEvent(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// deleteEvent removes one event remotely and, once it is known gone,
// locally. A failed remote delete keeps the shadow record so the next
// pass retries.
func (r *Reconciler) deleteEvent(ctx context.Context, record shadow.Event) error {
	outcome := r.canvas.DeleteEvent(ctx, record.CanvasID)
	if !outcome.Gone() {
		return fmt.Errorf("delete event %d: outcome %s", record.CanvasID, outcome)
	}
	return r.store.DeleteEvent(record.CanvasCourseID, record.CanvasID)
}
