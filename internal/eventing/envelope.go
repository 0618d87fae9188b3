package eventing

import (
	"encoding/json"
	"errors"
	"time"
)

// Envelope is the outbox record of one published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	TenantID      string          `json:"tenant_id"`
	LotID         string          `json:"lot_id"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Scope places an event on a tenant's lot.
type Scope struct {
	TenantID   string
	LotID      string
	OccurredAt time.Time
}

// Scoped is implemented by events that belong to a lot.
type Scoped interface {
	EventScope() Scope
}

// Meta overrides envelope fields; zero values are derived from the event.
type Meta struct {
	EventID       string
	CorrelationID string
	SchemaVersion int
}

// BuildEnvelope marshals event and stamps it with ids, scope and time.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("eventing: nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	var scope Scope
	if scoped, ok := event.(Scoped); ok {
		scope = scoped.EventScope()
	}
	if scope.OccurredAt.IsZero() {
		scope.OccurredAt = time.Now()
	}

	env := Envelope{
		EventID:       meta.EventID,
		EventType:     EventType(event),
		OccurredAt:    scope.OccurredAt.UTC(),
		CorrelationID: meta.CorrelationID,
		TenantID:      scope.TenantID,
		LotID:         scope.LotID,
		SchemaVersion: meta.SchemaVersion,
		Payload:       payload,
	}
	if env.EventID == "" {
		env.EventID = NewEventID()
	}
	if env.CorrelationID == "" {
		env.CorrelationID = env.EventID
	}
	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	return env, nil
}
