package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapart/internal/core/domain"
)

// Subscriber consumes export-completed events from JetStream.
type Subscriber struct {
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{js: js}, nil
}

// SubscribeExportCompleted delivers each export event to handler once per
// durable consumer. A handler error redelivers the event, up to three times.
func (s *Subscriber) SubscribeExportCompleted(ctx context.Context, durable string, handler func(ctx context.Context, job *domain.ExportJob) error) error {
	sub, err := s.js.Subscribe(exportSubjectPrefix+">", func(msg *nats.Msg) {
		var job domain.ExportJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &job); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes. The connection belongs to the caller.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
