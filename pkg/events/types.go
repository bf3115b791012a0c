package events

import "encoding/json"

// Event is a generic SSE event from the daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// DecodeAs decodes the event payload into T, ignoring the event name. Empty
// Data yields the zero value of T and a nil error.
//
// Example:
//
//	reading, err := events.DecodeAs[types.Reading](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(reading.Percentage, reading.Health)
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
