package propagation

import (
	"context"

	"github.com/fyrsmithlabs/reflectd/internal/store"
)

// Propagator applies a message to the user's graph.
type Propagator interface {
	Propagate(ctx context.Context, msg Message) error
}

// PropagatorFunc adapts a function to Propagator.
type PropagatorFunc func(ctx context.Context, msg Message) error

// Propagate implements Propagator.
func (f PropagatorFunc) Propagate(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// WisdomPropagator tallies propagated attributes per user.
type WisdomPropagator struct {
	store store.WisdomStore
}

// NewWisdomPropagator creates a propagator writing to s.
func NewWisdomPropagator(s store.WisdomStore) *WisdomPropagator {
	return &WisdomPropagator{store: s}
}

// Propagate implements Propagator.
func (p *WisdomPropagator) Propagate(ctx context.Context, msg Message) error {
	return p.store.RecordWisdom(ctx, msg.UserID, msg.Attributes, msg.SourceTitle, msg.OccurredAt)
}

var _ Propagator = (*WisdomPropagator)(nil)
