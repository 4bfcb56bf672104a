// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
)

const metadataCorrelationID = "correlation_id"

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Config controls the bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64

	// CloseTimeout bounds how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	// HandlerRetries is how many times a failing handler is retried.
	HandlerRetries int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:     256,
		CloseTimeout:   10 * time.Second,
		HandlerRetries: 2,
	}
}

// Bus publishes and routes events over a GoChannel pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus. Handlers must be registered before Run.
func NewBus(cfg Config) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	if cfg.HandlerRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.HandlerRetries,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			Logger:          logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	return &Bus{pubsub: pubsub, router: router, logger: logger}, nil
}

// PublishEntitySynced publishes ev on TopicEntitySynced.
func (b *Bus) PublishEntitySynced(ctx context.Context, ev *EntitySynced) error {
	return b.publish(ctx, TopicEntitySynced, ev)
}

// PublishVoteUpdated publishes ev on TopicVoteUpdated.
func (b *Bus) PublishVoteUpdated(ctx context.Context, ev *VoteUpdated) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return b.publish(ctx, TopicVoteUpdated, ev)
}

func (b *Bus) publish(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

// Handle registers a raw consumer for topic.
func (b *Bus) Handle(name, topic string, fn message.NoPublishHandlerFunc) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, fn)
}

// OnEntitySynced registers fn for entity.synced events.
func (b *Bus) OnEntitySynced(name string, fn func(ctx context.Context, ev *EntitySynced) error) {
	b.Handle(name, TopicEntitySynced, func(msg *message.Message) error {
		var ev EntitySynced
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// A payload that cannot be decoded never will be; ack it.
			logging.Warn().Err(err).Str("handler", name).Msg("Dropping undecodable entity.synced event")
			return nil
		}
		return fn(messageContext(msg), &ev)
	})
}

// OnVoteUpdated registers fn for vote.updated events.
func (b *Bus) OnVoteUpdated(name string, fn func(ctx context.Context, ev *VoteUpdated) error) {
	b.Handle(name, TopicVoteUpdated, func(msg *message.Message) error {
		var ev VoteUpdated
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			logging.Warn().Err(err).Str("handler", name).Msg("Dropping undecodable vote.updated event")
			return nil
		}
		return fn(messageContext(msg), &ev)
	})
}

func messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return ctx
}

// Run starts the router and blocks until ctx is canceled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub. Safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	routerErr := b.router.Close()
	pubsubErr := b.pubsub.Close()
	return errors.Join(routerErr, pubsubErr)
}
