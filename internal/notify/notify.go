// Package notify carries the best-effort "something changed" signal to
// connected dashboards. The result service publishes through the Notifier
// port after every successful mutation; delivery is at-most-once and a
// publish failure never fails the triggering request.
package notify

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Event announces that a result changed. Clients treat it as a refetch
// trigger; there is no payload contract beyond identifying the change.
type Event struct {
	Action    string    `json:"action"` // created, updated, deleted
	ResultID  string    `json:"result_id"`
	StudentID string    `json:"student_id,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier is the fan-out port the result service publishes through.
type Notifier interface {
	ResultChanged(event Event)
}

// ============================================================================
// NATS implementation
// ============================================================================

// NATSNotifier publishes events on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to the NATS server and returns a publisher for
// the given subject.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	log.Printf("NATS notifier initialized (subject: %s)", subject)

	return &NATSNotifier{
		conn:    nc,
		subject: subject,
	}, nil
}

// ResultChanged publishes the event. Errors are logged and swallowed; the
// fan-out is fire-and-forget.
func (n *NATSNotifier) ResultChanged(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Warning: failed to marshal notification event: %v", err)
		return
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		log.Printf("Warning: failed to publish notification event: %v", err)
	}
}

// Close drains the NATS connection.
func (n *NATSNotifier) Close() {
	n.conn.Close()
}

// ============================================================================
// Noop implementation
// ============================================================================

// Noop discards every event. Used in tests and NATS-less deployments.
type Noop struct{}

func (Noop) ResultChanged(Event) {}
