package http_handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/service/mocks"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestServer(t *testing.T) (*mocks.MockCommandRouter, *Server) {
	t.Helper()
	ctrl := gomock.NewController(t)
	router := mocks.NewMockCommandRouter(ctrl)
	return router, NewServer(":0", router, prometheus.NewRegistry())
}

func do(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestServer_RoutingInformation(t *testing.T) {
	router, s := newTestServer(t)

	router.EXPECT().LocalRoutingInformation().Return(domain.MessageRoutingInformation{}, false)
	code, _ := do(t, s, http.MethodGet, "/message-routing-information", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	router.EXPECT().LocalRoutingInformation().Return(domain.NewMessageRoutingInformation("node-a", 2, command.CommandNames("Ship")), true)
	code, body := do(t, s, http.MethodGet, "/message-routing-information", "")
	require.Equal(t, http.StatusOK, code)

	info, err := domain.DecodeRoutingInformation(body)
	require.NoError(t, err)
	assert.Equal(t, "node-a", info.MemberID)
	assert.Equal(t, 2, info.LoadFactor)
}

func TestServer_UpdateMembership(t *testing.T) {
	router, s := newTestServer(t)

	router.EXPECT().UpdateMembership(gomock.Any(), 3, command.CommandNames("Ship")).Return(nil)
	router.EXPECT().LocalRoutingInformation().Return(domain.NewMessageRoutingInformation("node-a", 3, command.CommandNames("Ship")), true)
	code, _ := do(t, s, http.MethodPut, "/membership", `{"load_factor":3,"command_filter":{"type":"command_name","names":["Ship"]}}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, s, http.MethodPut, "/membership", `{"command_filter":{"type":"accept_all"}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	router.EXPECT().UpdateMembership(gomock.Any(), -1, gomock.Any()).Return(port.ErrInvalidLoadFactor)
	code, _ = do(t, s, http.MethodPut, "/membership", `{"load_factor":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	router.EXPECT().UpdateMembership(gomock.Any(), 1, gomock.Any()).Return(errors.New("directory down"))
	code, _ = do(t, s, http.MethodPut, "/membership", `{"load_factor":1}`)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestServer_Route(t *testing.T) {
	router, s := newTestServer(t)
	body := `{"name":"Ship","meta_data":{"order_id":"42"}}`

	router.EXPECT().Route(gomock.Any()).Return(shard.NewMember("node-b", map[string]string{"http": "http://node-b"}), true, nil)
	code, data := do(t, s, http.MethodPost, "/commands/route", body)
	require.Equal(t, http.StatusOK, code)
	var resp RouteResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "node-b", resp.MemberID)

	router.EXPECT().Route(gomock.Any()).Return(shard.Member{}, false, nil)
	code, _ = do(t, s, http.MethodPost, "/commands/route", body)
	assert.Equal(t, http.StatusNotFound, code)

	router.EXPECT().Route(gomock.Any()).Return(shard.Member{}, false, port.ErrRoutingKeyUnresolved)
	code, _ = do(t, s, http.MethodPost, "/commands/route", body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestServer_RouteKeepsNumericPayloadFields(t *testing.T) {
	router, s := newTestServer(t)
	filter := command.PayloadFieldEquals("tenant", "12345678")

	router.EXPECT().Route(gomock.Any()).DoAndReturn(func(msg command.Message) (shard.Member, bool, error) {
		v, ok := msg.PayloadField("tenant")
		require.True(t, ok)
		assert.Equal(t, "12345678", v)
		assert.True(t, filter.Matches(msg))
		return shard.NewMember("node-b", nil), true, nil
	})

	code, _ := do(t, s, http.MethodPost, "/commands/route", `{"name":"Ship","payload":{"tenant":12345678}}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Members(t *testing.T) {
	router, s := newTestServer(t)
	ring := shard.NewRing(
		shard.NewCapability(shard.NewMember("node-a", nil), 2, command.AcceptAll()),
		shard.NewCapability(shard.NewMember("node-b", nil), 1, command.DenyAll()),
	)
	router.EXPECT().Snapshot().Return(ring)

	code, data := do(t, s, http.MethodGet, "/members", "")
	require.Equal(t, http.StatusOK, code)

	var view RingView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, 3, view.VirtualNodes)
	require.Len(t, view.Members, 2)
	assert.Equal(t, "node-a", view.Members[0].MemberID)
	assert.Len(t, view.Checksum, 8)
}

func TestServer_Metrics(t *testing.T) {
	_, s := newTestServer(t)
	code, _ := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
}
