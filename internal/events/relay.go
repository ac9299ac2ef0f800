package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jjudge-oj/workbench/internal/mq"
	"golang.org/x/sync/errgroup"
)

const originAttribute = "origin"

// Relay mirrors solved events between the local bus and a message broker so
// that separate workbench processes (a CLI submit and a running server, for
// instance) see each other's events. Events are tagged with the relay's
// origin id and a relay ignores its own events when they come back.
type Relay struct {
	bus     *Bus
	broker  *mq.MQ
	channel string
	origin  string
	logger  *slog.Logger
}

// NewRelay constructs a Relay publishing on the named broker channel.
func NewRelay(bus *Bus, broker *mq.MQ, channel string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		bus:     bus,
		broker:  broker,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Origin returns the id this relay stamps on outgoing events.
func (r *Relay) Origin() string {
	return r.origin
}

// Forward publishes a locally raised event to the broker.
func (r *Relay) Forward(ctx context.Context, ev SolvedEvent) error {
	ev.Origin = r.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode solved event: %w", err)
	}
	if _, err := r.broker.Publish(ctx, r.channel, payload, map[string]string{originAttribute: r.origin}); err != nil {
		return fmt.Errorf("publish solved event: %w", err)
	}
	return nil
}

// Run forwards local events to the broker and broker events from other
// origins to the local bus until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.bus.Subscribe(0, func(ev SolvedEvent) bool {
		return ev.Origin == ""
	})
	defer sub.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-sub.C():
				if !ok {
					return nil
				}
				if err := r.Forward(ctx, ev); err != nil {
					r.logger.Error("solved event not relayed", "problem", ev.Identity.String(), "error", err)
				}
			}
		}
	})
	g.Go(func() error {
		return r.broker.Subscribe(ctx, r.channel, r.receive)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Relay) receive(ctx context.Context, msg mq.Message) error {
	if msg.Attributes[originAttribute] == r.origin {
		return nil
	}
	var ev SolvedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		r.logger.Warn("discarding malformed solved event", "message_id", msg.ID, "error", err)
		return nil
	}
	if ev.Origin == "" {
		ev.Origin = msg.Attributes[originAttribute]
	}
	if ev.Origin == "" || ev.Origin == r.origin {
		return nil
	}
	r.bus.Publish(ev)
	return nil
}
