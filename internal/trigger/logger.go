// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package trigger

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"tpcanvas/internal/logging"
)

// watermillLogger routes watermill's internal logging through the global
// structured logger.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	event := logging.Error().Err(err)
	l.apply(event, fields)
	event.Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	event := logging.Info()
	l.apply(event, fields)
	event.Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	l.apply(event, fields)
	event.Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	l.apply(event, fields)
	event.Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) apply(event *zerolog.Event, fields watermill.LogFields) {
	for k, v := range l.fields {
		event.Interface(k, v)
	}
	for k, v := range fields {
		event.Interface(k, v)
	}
}
