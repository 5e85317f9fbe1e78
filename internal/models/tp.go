// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexInt decodes a JSON value that may arrive as a number or as a quoted
// string. TP is inconsistent about term numbers across endpoints.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return &ModelError{Field: "integer", Value: s}
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the plain int value.
func (f FlexInt) Int() int {
	return int(f)
}

// TPCourse is one entry of TP's course list for an institution and semester.
type TPCourse struct {
	ID     string  `json:"id"`
	TermNr FlexInt `json:"terminnr"`
}

// TPRoom is one room booking on a TP event.
type TPRoom struct {
	BuildingID string `json:"buildingid"`
	RoomID     string `json:"roomid"`
}

// TPStaff is an internal staff member on a TP event.
type TPStaff struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// TPExternalStaff is an external lecturer on a TP event.
type TPExternalStaff struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TPEvent is one concrete scheduled occurrence. Timestamps stay in string
// form until compared; see ParseInstant.
type TPEvent struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Summary       string            `json:"summary"`
	DTStart       string            `json:"dtstart"`
	DTEnd         string            `json:"dtend"`
	Rooms         []TPRoom          `json:"room"`
	Staff         []TPStaff         `json:"staffs"`
	ExternalStaff []TPExternalStaff `json:"xstaff-list"`
	Tags          []string          `json:"tags"`
	Curriculum    string            `json:"curr"`
	EditURL       string            `json:"editurl"`
}

// TPEventSequence groups the recurring occurrences of one activity.
type TPEventSequence struct {
	ID     string    `json:"id"`
	Events []TPEvent `json:"events"`
}

// TPActivity is one timetable activity. ActID groups the occurrences that
// belong to one section and correlates with the trailing segment of a
// UA-typed SIS course id.
type TPActivity struct {
	ID             string            `json:"id"`
	ActID          string            `json:"actid"`
	Title          string            `json:"title"`
	EventSequences []TPEventSequence `json:"eventsequences"`
}

// Flatten expands the activity's recurrence structure into the ordered
// sequence of concrete occurrences.
func (a *TPActivity) Flatten() []TPEvent {
	var events []TPEvent
	for _, seq := range a.EventSequences {
		events = append(events, seq.Events...)
	}
	return events
}

// FlattenActivities expands a list of activities into occurrences, in order.
func FlattenActivities(activities []TPActivity) []TPEvent {
	var events []TPEvent
	for i := range activities {
		events = append(events, activities[i].Flatten()...)
	}
	return events
}

// TPTimetable is one course's schedule, split by TP into plenary teaching
// and grouped (section) teaching.
type TPTimetable struct {
	Plenary []TPActivity `json:"plenary"`
	Group   []TPActivity `json:"group"`
}

// tpScheduleEnvelope matches the schedule endpoint's wire shape.
type tpScheduleEnvelope struct {
	Data *TPTimetable `json:"data"`
}

// DecodeTimetable decodes a schedule response body. A null data member
// decodes to an empty timetable, not an error: TP answers that way for
// semesters where the course did not run.
func DecodeTimetable(body []byte) (*TPTimetable, error) {
	var envelope tpScheduleEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return &TPTimetable{}, nil
	}
	return envelope.Data, nil
}

// Merge appends the activities of another timetable, category by category.
func (t *TPTimetable) Merge(other *TPTimetable) {
	if other == nil {
		return
	}
	t.Plenary = append(t.Plenary, other.Plenary...)
	t.Group = append(t.Group, other.Group...)
}

// IsEmpty reports whether the timetable holds no activities at all.
func (t *TPTimetable) IsEmpty() bool {
	return len(t.Plenary) == 0 && len(t.Group) == 0
}
