package grpcapi

import (
	"testing"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStructConversion(t *testing.T) {
	info := domain.NewMessageRoutingInformation("node-b", 3, command.Or(command.CommandNames("Ship"), command.PayloadFieldEquals("region", "eu")))

	s, err := ToStruct(info)
	require.NoError(t, err)
	assert.Equal(t, "node-b", s.Fields["member_id"].GetStringValue())
	assert.Equal(t, float64(3), s.Fields["load_factor"].GetNumberValue())

	decoded, err := FromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.LoadFactor)
	assert.Equal(t, info.CommandFilter.Canonical(), decoded.CommandFilter.Canonical())
}

func TestFromStructRejectsMalformed(t *testing.T) {
	_, err := FromStruct(nil)
	assert.ErrorIs(t, err, domain.ErrMalformed)

	s, err := structpb.NewStruct(map[string]any{"member_id": "x", "load_factor": -2})
	require.NoError(t, err)
	_, err = FromStruct(s)
	assert.ErrorIs(t, err, domain.ErrMalformed)
}
