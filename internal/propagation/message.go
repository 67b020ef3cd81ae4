// Package propagation carries relational attributes from promoted events
// to the rest of the user's graph.
//
// The review pipeline emits a Message after a hub merge commits. A Worker
// consumes messages from NATS and hands them to a Propagator, so
// enrichment failures never affect the promotion that produced them.
package propagation

import (
	"time"
)

// DefaultSubject is the NATS subject propagation messages are published to.
const DefaultSubject = "reflectd.wisdom.propagate"

// DefaultQueue is the queue group workers join so each message is handled once.
const DefaultQueue = "reflectd-propagation"

// Message asks the graph to absorb attributes observed on a promoted event.
type Message struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Attributes    []string  `json:"attributes"`
	SourceTitle   string    `json:"source_title"`
	SourceEventID string    `json:"source_event_id,omitempty"`
	HubID         string    `json:"hub_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
