// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Period is a half-year scheduling unit in numeric form: the two-digit year
// plus 0 or 0.5. All term-window arithmetic happens on this representation;
// the string form ("20v", "19h") appears only at the API boundary.
type Period float64

// ParsePeriod reads a period string such as "20v" or "19h". The "h" suffix
// adds the half-year offset.
func ParsePeriod(s string) (Period, error) {
	if len(s) < 2 {
		return 0, &ModelError{Field: "period", Value: s}
	}
	suffix := strings.ToLower(s[len(s)-1:])
	year, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || year < 0 {
		return 0, &ModelError{Field: "period", Value: s}
	}
	switch suffix {
	case "h":
		return Period(float64(year) + 0.5), nil
	case "v":
		return Period(float64(year)), nil
	default:
		return 0, &ModelError{Field: "period", Value: s}
	}
}

// String renders the numeric period. Classification follows the modulo
// rule: a whole value maps to "h", a half value to "v".
func (p Period) String() string {
	year := int(math.Floor(float64(p)))
	if math.Mod(float64(p), 1) == 0 {
		return fmt.Sprintf("%02dh", year)
	}
	return fmt.Sprintf("%02dv", year)
}

// Year returns the full four-digit year of the period, assuming the 2000s.
func (p Period) Year() int {
	return 2000 + int(math.Floor(float64(p)))
}

// Autumn reports whether the period carries the half-year offset.
func (p Period) Autumn() bool {
	return math.Mod(float64(p), 1) != 0
}

// TermStep is one (period, term-number) position inside a course's term window.
type TermStep struct {
	Period Period
	TermNr int
}

// FirstPeriod rewinds a (period, termNr) position to the course's first
// term: each term before the given one subtracts half a period.
func FirstPeriod(period string, termNr int) (string, int, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return "", 0, err
	}
	if termNr < 1 {
		return "", 0, &ModelError{Field: "terminnr", Value: strconv.Itoa(termNr)}
	}
	first := p - Period(0.5*float64(termNr-1))
	return first.String(), 1, nil
}

// TermWindow expands a (period, termNr) position into every term the course
// can have run: back to term 1 and forward to the configured maximum
// period. This lets one invocation self-discover every semester of a
// recurring course.
func TermWindow(period string, termNr int, maxPeriod string) ([]TermStep, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if termNr < 1 {
		return nil, &ModelError{Field: "terminnr", Value: strconv.Itoa(termNr)}
	}
	maxP, err := ParsePeriod(maxPeriod)
	if err != nil {
		return nil, err
	}

	first := p - Period(0.5*float64(termNr-1))

	lastTerm := termNr
	if p < maxP {
		lastTerm = termNr + int(2*(float64(maxP)-float64(p)))
	}

	steps := make([]TermStep, 0, lastTerm)
	for term := 1; term <= lastTerm; term++ {
		steps = append(steps, TermStep{
			Period: first + Period(0.5*float64(term-1)),
			TermNr: term,
		})
	}
	return steps, nil
}
