// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package trigger consumes TP course-change notifications from a NATS
JetStream subject and turns each into a sync run.

Delivery is at-least-once with manual acknowledgment. A message is acked
once its outcome is final: synced, stale, ignored or malformed. Only a
failed sync run is nacked, so the broker redelivers it. The bounded
change ledger keeps redeliveries and stale notifications from triggering
redundant runs.
*/

package trigger

import (
	"context"
	"fmt"
	"strings"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"tpcanvas/internal/config"
	"tpcanvas/internal/ledger"
	"tpcanvas/internal/logging"
	"tpcanvas/internal/metrics"
	"tpcanvas/internal/models"
)

// reconnectGrace is the pause between subscriber teardown and the next
// connection attempt.
const reconnectGrace = 10 * time.Second

// SyncFunc runs one course sync. It is the orchestrator's SyncCourse,
// injected as a function so the consumer can be tested without remote
// systems.
type SyncFunc func(ctx context.Context, courseID, semester string, termNr int) error

// Disposition is the final outcome of one queue message.
type Disposition string

const (
	// DispositionSynced means a sync run completed.
	DispositionSynced Disposition = "synced"
	// DispositionStale means the ledger had already seen a newer change.
	DispositionStale Disposition = "stale"
	// DispositionIgnored means the course is filtered out.
	DispositionIgnored Disposition = "ignored"
	// DispositionMalformed means the message could not be interpreted.
	DispositionMalformed Disposition = "malformed"
	// DispositionFailed means the sync run failed; the message is nacked.
	DispositionFailed Disposition = "failed"
)

// Consumer binds the change queue to the sync orchestrator.
type Consumer struct {
	cfg    config.NATSConfig
	sync   SyncFunc
	ledger *ledger.Ledger

	maxPeriod     string
	ignoreCourses []string

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a consumer.
func New(cfg config.NATSConfig, syncFn SyncFunc, lg *ledger.Ledger, maxPeriod string, ignoreCourses []string) *Consumer {
	return &Consumer{
		cfg:           cfg,
		sync:          syncFn,
		ledger:        lg,
		maxPeriod:     maxPeriod,
		ignoreCourses: ignoreCourses,
		now:           time.Now,
	}
}

// Run consumes until the context is canceled. Subscriber failures tear
// the connection down, wait out a grace period and reconnect; the durable
// consumer resumes where it left off.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Error().Err(err).
			Dur("grace", reconnectGrace).
			Msg("queue consumption interrupted, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectGrace):
		}
	}
}

// consume runs one subscriber lifetime.
func (c *Consumer) consume(ctx context.Context) error {
	subscriber, err := c.newSubscriber()
	if err != nil {
		return err
	}
	defer func() { _ = subscriber.Close() }()

	messages, err := subscriber.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.cfg.Topic, err)
	}
	logging.Info().
		Str("url", c.cfg.URL).
		Str("topic", c.cfg.Topic).
		Str("durable", c.cfg.DurableName).
		Msg("consuming course changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", c.cfg.Topic)
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) newSubscriber() (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.ReconnectWait(c.cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("queue connection lost")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("queue connection restored")
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.AckExplicit(),
		natsgo.DeliverNew(),
	}
	autoProvision := true
	if c.cfg.Stream != "" {
		subOpts = append(subOpts, natsgo.BindStream(c.cfg.Stream))
		autoProvision = false
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              c.cfg.URL,
		QueueGroupPrefix: c.cfg.QueueGroup,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:    autoProvision,
			SubscribeOptions: subOpts,
			DurablePrefix:    c.cfg.DurableName,
		},
	}, newWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("create queue subscriber: %w", err)
	}
	return sub, nil
}

// process handles one delivery: everything but a failed sync run is
// final and acked, a failed run is nacked for redelivery.
func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	disposition := c.Handle(ctx, msg.Payload)
	metrics.QueueMessages.WithLabelValues(string(disposition)).Inc()

	if disposition == DispositionFailed {
		msg.Nack()
		return
	}
	msg.Ack()
}

// Handle classifies and executes one change notification payload.
func (c *Consumer) Handle(ctx context.Context, payload []byte) Disposition {
	var change models.CourseChange
	if err := json.Unmarshal(payload, &change); err != nil || change.ID == "" {
		logging.Warn().Err(err).Bytes("payload", payload).Msg("unreadable change notification")
		return DispositionMalformed
	}

	if c.ignored(change.ID) {
		logging.Debug().Str("course", change.ID).Msg("course category ignored")
		return DispositionIgnored
	}

	period, err := models.ParsePeriod(change.SemesterID)
	if err != nil {
		logging.Warn().Str("course", change.ID).Str("semester", change.SemesterID).
			Msg("change notification with unreadable semester")
		return DispositionMalformed
	}
	// The horizon is validated at config load; a parse failure here means
	// the consumer was built without it.
	maxPeriod, err := models.ParsePeriod(c.maxPeriod)
	if err != nil {
		logging.Warn().Str("max_period", c.maxPeriod).
			Msg("unreadable sync horizon, accepting every semester")
	} else if period > maxPeriod {
		logging.Debug().Str("course", change.ID).Str("semester", change.SemesterID).
			Msg("semester beyond sync horizon")
		return DispositionIgnored
	}

	changedAt, err := change.LastChangedAt()
	if err != nil {
		logging.Warn().Str("course", change.ID).Str("lastchanged", change.LastChanged).
			Msg("change notification with unreadable timestamp")
		return DispositionMalformed
	}
	if c.ledger.Check(change.Key(), changedAt) {
		logging.Debug().Str("course", change.ID).Time("changed", changedAt).
			Msg("change already applied")
		return DispositionStale
	}

	// The ledger records the time processing started, not finished:
	// changes arriving mid-run must not be considered applied.
	startedAt := c.now()

	if err := c.sync(ctx, change.ID, change.SemesterID, change.TermNr.Int()); err != nil {
		logging.Error().Err(err).
			Str("course", change.ID).
			Str("semester", change.SemesterID).
			Msg("sync run failed, message will be redelivered")
		return DispositionFailed
	}

	c.ledger.Set(change.Key(), startedAt)
	logging.Info().
		Str("course", change.ID).
		Str("semester", change.SemesterID).
		Int("termnr", change.TermNr.Int()).
		Msg("course synchronized")
	return DispositionSynced
}

func (c *Consumer) ignored(courseID string) bool {
	for _, pattern := range c.ignoreCourses {
		if pattern == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(courseID), strings.ToUpper(pattern)) {
			return true
		}
	}
	return false
}
