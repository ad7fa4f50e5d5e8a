package application

import (
	"encoding/json"
	"time"

	"votex/contexts/election-core/vote-ledger/ports"
)

// NewLedgerEnvelope wraps a ledger payload in the canonical envelope. Ledger
// events are partitioned by session so consumers see one session's events in
// acceptance order.
func NewLedgerEnvelope(
	eventID string,
	eventType string,
	sessionID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "vote-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "session_id",
		PartitionKey:     sessionID,
		Data:             payload,
	}, nil
}

// ResolveMetrics returns a no-op sink when metrics is nil.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return ports.NopMetrics{}
	}
	return metrics
}
