// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "fmt"

// Canvas calendar event workflow states.
const (
	WorkflowActive  = "active"
	WorkflowDeleted = "deleted"
)

// CanvasCourse is a course record from the Canvas accounts/courses listing.
type CanvasCourse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CourseCode  string `json:"course_code"`
	SISCourseID string `json:"sis_course_id"`
}

// ContextCode returns the calendar context code for the course.
func (c *CanvasCourse) ContextCode() string {
	return fmt.Sprintf("course_%d", c.ID)
}

// CanvasEvent is a calendar event record from Canvas.
type CanvasEvent struct {
	ID            int64  `json:"id"`
	ContextCode   string `json:"context_code"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	LocationName  string `json:"location_name"`
	WorkflowState string `json:"workflow_state"`
}

// Deleted reports whether Canvas has marked the event deleted. A deleted
// event is treated as absent by the reconciliation match pass.
func (e *CanvasEvent) Deleted() bool {
	return e.WorkflowState == WorkflowDeleted
}

// NewCanvasEvent is the payload for creating a calendar event.
type NewCanvasEvent struct {
	ContextCode  string `json:"context_code"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	LocationName string `json:"location_name"`
}
