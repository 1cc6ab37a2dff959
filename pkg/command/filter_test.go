package command

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	create := Message{Name: "CreateOrder", Payload: map[string]any{"region": "eu", "priority": float64(3)}}
	cancel := Message{Name: "CancelOrder", Payload: map[string]any{"region": "us"}}

	tests := []struct {
		name   string
		filter Filter
		msg    Message
		want   bool
	}{
		{name: "zero value accepts", filter: Filter{}, msg: create, want: true},
		{name: "accept all", filter: AcceptAll(), msg: cancel, want: true},
		{name: "deny all", filter: DenyAll(), msg: create, want: false},
		{name: "name match", filter: CommandNames("CreateOrder", "ShipOrder"), msg: create, want: true},
		{name: "name miss", filter: CommandNames("CreateOrder"), msg: cancel, want: false},
		{name: "payload string", filter: PayloadFieldEquals("region", "eu"), msg: create, want: true},
		{name: "payload number", filter: PayloadFieldEquals("priority", "3"), msg: create, want: true},
		{name: "payload missing field", filter: PayloadFieldEquals("tenant", "a"), msg: create, want: false},
		{name: "and", filter: CommandNames("CreateOrder").And(PayloadFieldEquals("region", "eu")), msg: create, want: true},
		{name: "and short circuit", filter: CommandNames("CreateOrder").And(PayloadFieldEquals("region", "us")), msg: create, want: false},
		{name: "or", filter: Or(DenyAll(), CommandNames("CancelOrder")), msg: cancel, want: true},
		{name: "not", filter: CommandNames("CancelOrder").Negate(), msg: cancel, want: false},
		{name: "unknown kind", filter: Filter{Kind: "script"}, msg: create, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(tc.msg))
		})
	}
}

func TestFilter_TransmitAndInvoke(t *testing.T) {
	original := Or(
		CommandNames("CreateOrder"),
		And(PayloadFieldEquals("region", "eu"), Not(CommandNames("CancelOrder"))),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := ParseFilter(data)
	require.NoError(t, err)
	assert.Equal(t, original.Canonical(), decoded.Canonical())

	msg := Message{Name: "ShipOrder", Payload: map[string]any{"region": "eu"}}
	assert.Equal(t, original.Matches(msg), decoded.Matches(msg))
	assert.True(t, decoded.Matches(msg))
}

func TestParseFilter_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":      `{"type":`,
		"unknown type":   `{"type":"exec","value":"rm -rf"}`,
		"empty names":    `{"type":"command_name"}`,
		"missing field":  `{"type":"payload_field","value":"x"}`,
		"empty and":      `{"type":"and"}`,
		"not arity":      `{"type":"not","filters":[{"type":"accept_all"},{"type":"deny_all"}]}`,
		"nested invalid": `{"type":"or","filters":[{"type":"accept_all"},{"type":"bogus"}]}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilter([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilter), "got %v", err)
		})
	}
}

func TestParseFilter_EmptyMeansAcceptAll(t *testing.T) {
	f, err := ParseFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, FilterAcceptAll, f.Kind)
	assert.Equal(t, AcceptAll().Canonical(), Filter{}.Canonical())
}

func TestFilter_MatchesNumericPayloadFromJSON(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"name":"CreateOrder","payload":{"tenant":12345678,"ratio":0.25}}`), &msg))

	assert.True(t, PayloadFieldEquals("tenant", "12345678").Matches(msg))
	assert.True(t, PayloadFieldEquals("ratio", "0.25").Matches(msg))
	assert.False(t, PayloadFieldEquals("tenant", "1.2345678e+07").Matches(msg))

	dec := json.NewDecoder(strings.NewReader(`{"name":"CreateOrder","payload":{"tenant":12345678}}`))
	dec.UseNumber()
	var numbered Message
	require.NoError(t, dec.Decode(&numbered))
	assert.True(t, PayloadFieldEquals("tenant", "12345678").Matches(numbered))
}
