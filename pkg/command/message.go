package command

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Message is a command dispatched through the router.
// Name identifies the command type; Payload and MetaData are inspected by
// filters and routing strategies but never interpreted beyond that.
type Message struct {
	Identifier string            `json:"identifier"`
	Name       string            `json:"name"`
	Payload    map[string]any    `json:"payload,omitempty"`
	MetaData   map[string]string `json:"meta_data,omitempty"`
}

// PayloadField returns the string form of a top-level payload field.
func (m Message) PayloadField(field string) (string, bool) {
	if m.Payload == nil {
		return "", false
	}
	v, ok := m.Payload[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		// JSON numbers decode as float64; keep integers out of exponent form.
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func (m Message) String() string {
	return fmt.Sprintf("%s[%s]", m.Name, m.Identifier)
}
