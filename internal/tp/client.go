// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package tp reads course lists, schedules and the change feed from the TP
timetable web service.

TP splits a course's schedule by semester: a course in its third term has
its earlier occurrences filed under the two preceding semesters. Callers
that need the complete picture use ScheduleWindow, which walks the term
window and merges per-semester timetables into one.
*/

package tp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tpcanvas/internal/logging"
	"tpcanvas/internal/models"
	"tpcanvas/internal/rest"
)

// apiKeyHeader authenticates against the TP service gateway.
const apiKeyHeader = "X-Gravitee-Api-Key"

// Client reads from the TP web service.
type Client struct {
	rest        *rest.Client
	institution int
}

// New creates a TP client. baseURL points at the web service root, key is
// the gateway API key and institution scopes every course query.
func New(baseURL, key string, institution int, opts ...rest.Option) *Client {
	opts = append([]rest.Option{
		rest.WithHeader(apiKeyHeader, key),
		rest.WithTarget("tp"),
	}, opts...)
	return &Client{
		rest:        rest.New(baseURL, opts...),
		institution: institution,
	}
}

// courseListEnvelope matches the course list endpoint's wire shape.
type courseListEnvelope struct {
	Data []models.TPCourse `json:"data"`
}

// Courses lists the institution's courses with teaching activity in the
// given semester.
func (c *Client) Courses(ctx context.Context, semester string) ([]models.TPCourse, error) {
	query := url.Values{}
	query.Set("id", strconv.Itoa(c.institution))
	query.Set("sem", semester)
	query.Set("times", "1")

	var envelope courseListEnvelope
	if err := c.rest.GetJSON(ctx, "/course/", query, &envelope); err != nil {
		return nil, fmt.Errorf("tp course list %s: %w", semester, err)
	}
	return envelope.Data, nil
}

// Schedule fetches one course's timetable for a single semester and term
// number. A course that did not run that semester yields an empty
// timetable, not an error.
func (c *Client) Schedule(ctx context.Context, semester, courseID string, termNr int) (*models.TPTimetable, error) {
	query := url.Values{}
	query.Set("id", courseID)
	query.Set("sem", semester)
	query.Set("termnr", strconv.Itoa(termNr))

	resp, err := c.rest.Do(ctx, "GET", "/1.4/", query, nil)
	if err != nil {
		return nil, fmt.Errorf("tp schedule %s %s term %d: %w", courseID, semester, termNr, err)
	}
	timetable, err := models.DecodeTimetable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tp schedule %s %s term %d: %w", courseID, semester, termNr, err)
	}
	return timetable, nil
}

// changeFeedEnvelope matches the lastchanged endpoint's wire shape.
type changeFeedEnvelope struct {
	Data []models.CourseChange `json:"data"`
}

// LastChanged lists the courses whose timetable changed since the given
// time. Used by catch-up runs; routine change delivery arrives on the
// message queue instead.
func (c *Client) LastChanged(ctx context.Context, since time.Time) ([]models.CourseChange, error) {
	query := url.Values{}
	query.Set("id", strconv.Itoa(c.institution))
	query.Set("timestamp", since.Format("2006-01-02T15:04:05"))

	var envelope changeFeedEnvelope
	if err := c.rest.GetJSON(ctx, "/course/lastchangedlist/", query, &envelope); err != nil {
		return nil, fmt.Errorf("tp change feed: %w", err)
	}
	return envelope.Data, nil
}

// ScheduleWindow fetches and merges the course's timetable across its whole
// term window: from the first term through the configured maximum period.
// The merged timetable is what the reconciliation engine treats as the
// source of truth for the course.
func (c *Client) ScheduleWindow(ctx context.Context, semester, courseID string, termNr int, maxPeriod string) (*models.TPTimetable, error) {
	steps, err := models.TermWindow(semester, termNr, maxPeriod)
	if err != nil {
		return nil, fmt.Errorf("tp schedule window %s: %w", courseID, err)
	}

	merged := &models.TPTimetable{}
	for _, step := range steps {
		timetable, err := c.Schedule(ctx, step.Period.String(), courseID, step.TermNr)
		if err != nil {
			return nil, err
		}
		logging.Debug().
			Str("course", courseID).
			Str("semester", step.Period.String()).
			Int("termnr", step.TermNr).
			Int("plenary", len(timetable.Plenary)).
			Int("group", len(timetable.Group)).
			Msg("fetched timetable")
		merged.Merge(timetable)
	}
	return merged, nil
}
