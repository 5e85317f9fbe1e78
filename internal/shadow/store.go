// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package shadow keeps the local record of every calendar event this engine
has created in Canvas.

The store is the engine's ownership boundary: only events with a shadow
record are ever deleted remotely, so hand-made calendar entries stay
untouched no matter what the timetable says. Records live in BadgerDB
under `course:<id>` and `event:<courseID>:<eventID>` keys with JSON
values.
*/

package shadow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"tpcanvas/internal/logging"
)

// Course is the shadow record of one Canvas course the engine writes to.
type Course struct {
	CanvasID    int64  `json:"canvas_id"`
	Name        string `json:"name"`
	CourseCode  string `json:"course_code"`
	SISCourseID string `json:"sis_course_id"`
}

// Event is the shadow record of one engine-created calendar event.
type Event struct {
	CanvasID       int64 `json:"canvas_id"`
	CanvasCourseID int64 `json:"canvas_course_id"`
}

// Store is the shadow record database. Safe for concurrent readers;
// writes come from the single sync consumer.
type Store struct {
	db     *badger.DB
	dryRun bool
}

// Open opens the store at the given directory. An empty path opens an
// in-memory store, used by tests. With dryRun set every write and delete
// is logged and suppressed.
func Open(path string, dryRun bool) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open shadow store: %w", err)
	}
	return &Store{db: db, dryRun: dryRun}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func courseKey(canvasID int64) []byte {
	return []byte("course:" + strconv.FormatInt(canvasID, 10))
}

func eventKey(canvasCourseID, canvasEventID int64) []byte {
	return []byte("event:" + strconv.FormatInt(canvasCourseID, 10) + ":" + strconv.FormatInt(canvasEventID, 10))
}

func eventPrefix(canvasCourseID int64) []byte {
	return []byte("event:" + strconv.FormatInt(canvasCourseID, 10) + ":")
}

// FindOrCreateCourse returns the course record, or a blank record with the
// id filled in when none exists yet. The blank record is not persisted
// until SaveCourse.
func (s *Store) FindOrCreateCourse(canvasID int64) (*Course, error) {
	course := &Course{CanvasID: canvasID}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(courseKey(canvasID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, course)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return course, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shadow course %d: %w", canvasID, err)
	}
	return course, nil
}

// SaveCourse persists a course record.
func (s *Store) SaveCourse(course *Course) error {
	if s.dryRun {
		logging.Info().Int64("course", course.CanvasID).Msg("dry run: would save shadow course")
		return nil
	}
	value, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("shadow course %d: %w", course.CanvasID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(courseKey(course.CanvasID), value)
	})
	if err != nil {
		return fmt.Errorf("shadow course %d: %w", course.CanvasID, err)
	}
	return nil
}

// DeleteCourse removes a course record and every event record under it.
func (s *Store) DeleteCourse(canvasID int64) error {
	if s.dryRun {
		logging.Info().Int64("course", canvasID).Msg("dry run: would delete shadow course")
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(courseKey(canvasID)); err != nil {
			return err
		}
		it := txn.NewIterator(badger.IteratorOptions{Prefix: eventPrefix(canvasID)})
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("shadow delete course %d: %w", canvasID, err)
	}
	return nil
}

// CoursesBySIS returns the course records whose SIS id mentions both the
// course code and the SIS semester, e.g. ("INF-1100", "2020_VÅR_1").
func (s *Store) CoursesBySIS(courseCode, sisSemester string) ([]Course, error) {
	var courses []Course
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte("course:")})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var course Course
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &course)
			})
			if err != nil {
				return err
			}
			if strings.Contains(course.SISCourseID, courseCode) &&
				strings.Contains(course.SISCourseID, sisSemester) {
				courses = append(courses, course)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shadow courses by sis %q %q: %w", courseCode, sisSemester, err)
	}
	return courses, nil
}

// Courses returns every course record.
func (s *Store) Courses() ([]Course, error) {
	var courses []Course
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte("course:")})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var course Course
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &course)
			})
			if err != nil {
				return err
			}
			courses = append(courses, course)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shadow courses: %w", err)
	}
	return courses, nil
}

// EventsByCourse returns the event records under one course.
func (s *Store) EventsByCourse(canvasCourseID int64) ([]Event, error) {
	var events []Event
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: eventPrefix(canvasCourseID)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var event Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shadow events for course %d: %w", canvasCourseID, err)
	}
	return events, nil
}

// SaveEvent persists an event record.
func (s *Store) SaveEvent(event *Event) error {
	if s.dryRun {
		logging.Info().
			Int64("event", event.CanvasID).
			Int64("course", event.CanvasCourseID).
			Msg("dry run: would save shadow event")
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("shadow event %d: %w", event.CanvasID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(event.CanvasCourseID, event.CanvasID), value)
	})
	if err != nil {
		return fmt.Errorf("shadow event %d: %w", event.CanvasID, err)
	}
	return nil
}

// DeleteEvent removes one event record.
func (s *Store) DeleteEvent(canvasCourseID, canvasEventID int64) error {
	if s.dryRun {
		logging.Info().
			Int64("event", canvasEventID).
			Int64("course", canvasCourseID).
			Msg("dry run: would delete shadow event")
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(eventKey(canvasCourseID, canvasEventID))
	})
	if err != nil {
		return fmt.Errorf("shadow delete event %d: %w", canvasEventID, err)
	}
	return nil
}
