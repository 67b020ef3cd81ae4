package propagation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher emits propagation messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// NATSPublisher publishes JSON messages to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher creates a publisher on conn. An empty subject uses
// DefaultSubject.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn == nil {
		return fmt.Errorf("nats connection is not configured")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal propagation message: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Message) error { return nil }

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
