package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/pkg/logging"
)

const (
	// ExportsStream holds export-completed events.
	ExportsStream = "MAPART_EXPORTS"

	notifySubjectPrefix = "mapart.notify."
	exportSubjectPrefix = "mapart.export.completed."
)

// Publisher implements ports.EventPublisher, ports.Notifier and
// ports.NotificationFeed using NATS. Notifications are fire-and-forget core
// NATS messages; export events go through JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// dial opens the connection; tests replace it to observe the conn.
var dial = RawConn

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	return newPublisher(url, nats.StreamConfig{
		Name:      ExportsStream,
		Subjects:  []string{exportSubjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	})
}

// newPublisher closes the connection again when the stream cannot be set up.
func newPublisher(url string, stream nats.StreamConfig) (*Publisher, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err := js.AddStream(&stream); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&stream); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", stream.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Notify publishes n on the session's notification subject.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.conn.Publish(NotifySubject(n.SessionID), data)
}

// PublishExportCompleted records a finished export on the exports stream.
func (p *Publisher) PublishExportCompleted(ctx context.Context, job *domain.ExportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(exportSubjectPrefix+job.ID, data, nats.Context(ctx))
	return err
}

// Subscribe relays one session's notifications to fn.
func (p *Publisher) Subscribe(ctx context.Context, sessionID string, fn func(domain.Notification)) (func(), error) {
	sub, err := p.conn.Subscribe(NotifySubject(sessionID), func(msg *nats.Msg) {
		var n domain.Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			logging.LoggerFromContext(ctx).Debug("dropping malformed notification", "subject", msg.Subject, "error", err)
			return
		}
		fn(n)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Conn exposes the underlying connection for subscribers sharing it.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// NotifySubject is the subject a session's notifications are published on.
func NotifySubject(sessionID string) string {
	return notifySubjectPrefix + sessionID
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
