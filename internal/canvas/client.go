// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package canvas talks to the Canvas LMS calendar API.

Create and delete are the only mutating calls in the whole system, so the
dry-run switch lives here: with it set, both log the operation they would
have issued and report success without touching the remote.
*/

package canvas

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"tpcanvas/internal/logging"
	"tpcanvas/internal/metrics"
	"tpcanvas/internal/models"
	"tpcanvas/internal/rest"

	"github.com/goccy/go-json"
)

// DeleteOutcome classifies the result of a calendar event deletion.
// Canvas answers 404 for events it has purged and 401 for events already
// in the deleted workflow state, so both are resolved to AlreadyGone
// instead of being treated as failures.
type DeleteOutcome int

const (
	// Deleted means the remote confirmed the deletion.
	Deleted DeleteOutcome = iota
	// AlreadyGone means the event no longer existed remotely.
	AlreadyGone
	// Failed means the event may still exist; the caller must not drop
	// its local record.
	Failed
)

// String implements fmt.Stringer, used as a metrics label.
func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AlreadyGone:
		return "already_gone"
	default:
		return "failed"
	}
}

// Gone reports whether the event is known to be absent remotely.
func (o DeleteOutcome) Gone() bool {
	return o == Deleted || o == AlreadyGone
}

// Client talks to one Canvas instance.
type Client struct {
	rest      *rest.Client
	accountID int
	dryRun    bool
}

// New creates a Canvas client. baseURL points at the instance root, key is
// a bearer token and accountID scopes course searches.
func New(baseURL, key string, accountID int, dryRun bool, opts ...rest.Option) *Client {
	opts = append([]rest.Option{
		rest.WithHeader("Authorization", "Bearer "+key),
		rest.WithTarget("canvas"),
	}, opts...)
	return &Client{
		rest:      rest.New(baseURL, opts...),
		accountID: accountID,
		dryRun:    dryRun,
	}
}

// SearchCourses lists the account's courses whose name or code matches the
// search term, following pagination to the end.
func (c *Client) SearchCourses(ctx context.Context, courseCode string) ([]models.CanvasCourse, error) {
	query := url.Values{}
	query.Set("search_term", courseCode)
	query.Set("per_page", "100")

	path := fmt.Sprintf("/api/v1/accounts/%d/courses", c.accountID)
	pages, err := c.rest.GetPaginated(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("canvas course search %q: %w", courseCode, err)
	}

	var courses []models.CanvasCourse
	for _, page := range pages {
		var batch []models.CanvasCourse
		if err := json.Unmarshal(page, &batch); err != nil {
			return nil, fmt.Errorf("canvas course search %q: decode page: %w", courseCode, err)
		}
		courses = append(courses, batch...)
	}
	return courses, nil
}

// GetCourse fetches one course record.
func (c *Client) GetCourse(ctx context.Context, id int64) (*models.CanvasCourse, error) {
	var course models.CanvasCourse
	path := "/api/v1/courses/" + strconv.FormatInt(id, 10)
	if err := c.rest.GetJSON(ctx, path, nil, &course); err != nil {
		return nil, fmt.Errorf("canvas course %d: %w", id, err)
	}
	return &course, nil
}

// ListEvents lists every calendar event in one course context, deleted
// ones included, following pagination to the end.
func (c *Client) ListEvents(ctx context.Context, contextCode string) ([]models.CanvasEvent, error) {
	query := url.Values{}
	query.Set("context_codes[]", contextCode)
	query.Set("all_events", "true")
	query.Set("per_page", "100")

	pages, err := c.rest.GetPaginated(ctx, "/api/v1/calendar_events", query)
	if err != nil {
		return nil, fmt.Errorf("canvas events for %s: %w", contextCode, err)
	}

	var events []models.CanvasEvent
	for _, page := range pages {
		var batch []models.CanvasEvent
		if err := json.Unmarshal(page, &batch); err != nil {
			return nil, fmt.Errorf("canvas events for %s: decode page: %w", contextCode, err)
		}
		events = append(events, batch...)
	}
	return events, nil
}

// GetEvent fetches one calendar event. Canvas keeps answering for deleted
// events; check CanvasEvent.Deleted.
func (c *Client) GetEvent(ctx context.Context, id int64) (*models.CanvasEvent, error) {
	var event models.CanvasEvent
	path := "/api/v1/calendar_events/" + strconv.FormatInt(id, 10)
	if err := c.rest.GetJSON(ctx, path, nil, &event); err != nil {
		return nil, fmt.Errorf("canvas event %d: %w", id, err)
	}
	return &event, nil
}

// createEventRequest matches the calendar event creation wire shape.
type createEventRequest struct {
	CalendarEvent models.NewCanvasEvent `json:"calendar_event"`
}

// CreateEvent creates a calendar event and returns the remote record. Any
// status other than 201 is a failure. In dry-run mode the payload is
// logged and a synthetic record returned.
func (c *Client) CreateEvent(ctx context.Context, ev *models.NewCanvasEvent) (*models.CanvasEvent, error) {
	if c.dryRun {
		logging.Info().
			Str("context_code", ev.ContextCode).
			Str("title", ev.Title).
			Str("start_at", ev.StartAt).
			Str("end_at", ev.EndAt).
			Str("location", ev.LocationName).
			Msg("dry run: would create calendar event")
		return &models.CanvasEvent{
			ContextCode:   ev.ContextCode,
			Title:         ev.Title,
			Description:   ev.Description,
			StartAt:       ev.StartAt,
			EndAt:         ev.EndAt,
			LocationName:  ev.LocationName,
			WorkflowState: models.WorkflowActive,
		}, nil
	}

	var created models.CanvasEvent
	resp, err := c.rest.PostJSON(ctx, "/api/v1/calendar_events.json", createEventRequest{CalendarEvent: *ev}, &created)
	if err != nil {
		return nil, fmt.Errorf("canvas create event: %w", err)
	}
	if resp.Status != 201 {
		return nil, fmt.Errorf("canvas create event: unexpected status %d", resp.Status)
	}
	metrics.EventsCreated.Inc()
	return &created, nil
}

// DeleteEvent deletes a calendar event and classifies the result. A 401
// triggers a secondary read: Canvas answers 401 for events already in the
// deleted workflow state, which counts as gone, not as a failure.
func (c *Client) DeleteEvent(ctx context.Context, id int64) DeleteOutcome {
	if c.dryRun {
		logging.Info().Int64("event", id).Msg("dry run: would delete calendar event")
		return Deleted
	}

	outcome := c.deleteEvent(ctx, id)
	metrics.EventsDeleted.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (c *Client) deleteEvent(ctx context.Context, id int64) DeleteOutcome {
	path := "/api/v1/calendar_events/" + strconv.FormatInt(id, 10)
	_, err := c.rest.Delete(ctx, path)
	if err == nil {
		return Deleted
	}

	switch {
	case rest.IsNotFound(err):
		logging.Debug().Int64("event", id).Msg("event already purged upstream")
		return AlreadyGone
	case rest.IsUnauthorized(err):
		event, getErr := c.GetEvent(ctx, id)
		if getErr != nil {
			logging.Warn().Err(getErr).Int64("event", id).Msg("secondary read after 401 failed")
			return Failed
		}
		if event.Deleted() {
			return AlreadyGone
		}
		logging.Warn().Int64("event", id).Msg("delete unauthorized for live event")
		return Failed
	default:
		logging.Warn().Err(err).Int64("event", id).Msg("event deletion failed")
		return Failed
	}
}
