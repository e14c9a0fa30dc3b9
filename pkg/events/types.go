package events

import "encoding/json"

// Event name constants
const (
	// BatterySnapshot carries a types.Snapshot after every redraw.
	BatterySnapshot = "battery.snapshot"
	// DrawModeChanged carries a DrawModeChangedEvent.
	DrawModeChanged = "drawMode.changed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// DrawModeChangedEvent is the typed payload for drawMode.changed.
type DrawModeChangedEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
	Ts   int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
