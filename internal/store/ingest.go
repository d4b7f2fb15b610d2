// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stylemesh/stylemesh/internal/metrics"
	"github.com/stylemesh/stylemesh/internal/recommend"
)

// TopicInteractions is the watermill topic carrying interaction events.
const TopicInteractions = "interactions"

// PublishInteraction puts one interaction event on the ingest topic.
func PublishInteraction(pub message.Publisher, ev recommend.Interaction) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := pub.Publish(TopicInteractions, msg); err != nil {
		return fmt.Errorf("publish interaction: %w", err)
	}
	return nil
}

// Consumer drains the ingest topic into the store: each event is appended to
// the durable log (when configured), applied to the builder state, and the
// snapshot is republished under a rate limit so a burst of events does not
// trigger a rebuild per message.
//
// Consumer implements suture.Service via its Serve method.
type Consumer struct {
	subscriber message.Subscriber
	store      *Store
	eventLog   *EventLog // optional
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewConsumer creates an ingest consumer. eventLog may be nil for
// memory-only deployments.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewConsumer(sub message.Subscriber, st *Store, eventLog *EventLog, logger zerolog.Logger) *Consumer {
	return &Consumer{
		subscriber: sub,
		store:      st,
		eventLog:   eventLog,
		// at most one snapshot rebuild per 2s, with room for one burst
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:  logger,
	}
}

// Serve consumes until the context is canceled. Pending events are flushed
// into a final snapshot on shutdown.
func (c *Consumer) Serve(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, TopicInteractions)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicInteractions, err)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			if dirty {
				c.store.Publish()
			}
			return ctx.Err()

		case <-ticker.C:
			if dirty && c.limiter.Allow() {
				c.store.Publish()
				dirty = false
			}

		case msg, ok := <-msgs:
			if !ok {
				if dirty {
					c.store.Publish()
				}
				return nil
			}
			if c.handle(msg) {
				dirty = true
				if c.limiter.Allow() {
					c.store.Publish()
					dirty = false
				}
			}
		}
	}
}

// handle processes one message and reports whether it changed builder state.
// Malformed payloads are acked and dropped; durable-log failures are nacked
// for redelivery.
func (c *Consumer) handle(msg *message.Message) bool {
	var ev recommend.Interaction
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		metrics.IngestEventsTotal.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed interaction")
		msg.Ack()
		return false
	}
	if ev.UserID == "" || ev.ItemID == "" {
		metrics.IngestEventsTotal.WithLabelValues("invalid").Inc()
		c.logger.Warn().Str("message_id", msg.UUID).Msg("dropping interaction without user or item")
		msg.Ack()
		return false
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	if c.eventLog != nil {
		if err := c.eventLog.Append(ev); err != nil {
			metrics.IngestEventsTotal.WithLabelValues("log_error").Inc()
			c.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("event log append failed")
			msg.Nack()
			return false
		}
	}

	c.store.AppendInteractions(ev)
	metrics.IngestEventsTotal.WithLabelValues("ok").Inc()
	msg.Ack()
	return true
}
