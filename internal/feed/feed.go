package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/msubham193/iotdashboard/internal/model"
)

// EventName is the named push message carrying one JSON-encoded event.
const EventName = "new-data"

// StreamName identifies the telemetry server's event stream.
const StreamName = "events"

// Source delivers live events from the telemetry server into the store.
// Implementations route every delivery through a single reader loop, so
// ingestion is sequential regardless of transport.
type Source interface {
	// Start opens the subscription and begins routing events in the
	// background. Connection establishment is asynchronous; delivery runs
	// until ctx is cancelled or Close is called.
	Start(ctx context.Context) error
	// Connected reports the current connection state. Only the current
	// state is observable; transitions are not buffered.
	Connected() bool
	Close() error
}

// decodeEvent parses one wire payload into an Event.
func decodeEvent(data []byte) (model.Event, error) {
	var e model.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.ID == "" {
		return model.Event{}, fmt.Errorf("decode event: missing _id")
	}
	return e, nil
}
