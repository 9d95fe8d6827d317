package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
)

type relayCall struct {
	Method      string
	Path        string
	ContentType string
	APIKey      string
	Body        []byte
}

type fakeRelay struct {
	mu        sync.Mutex
	calls     []relayCall
	responses map[string]func(w http.ResponseWriter)
}

func newFakeRelay(t *testing.T) (*fakeRelay, *httptest.Server) {
	relay := &fakeRelay{responses: make(map[string]func(w http.ResponseWriter))}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		relay.mu.Lock()
		relay.calls = append(relay.calls, relayCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			APIKey:      r.Header.Get("X-API-Key"),
			Body:        body,
		})
		respond, ok := relay.responses[r.URL.Path]
		relay.mu.Unlock()

		if ok {
			respond(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(server.Close)
	return relay, server
}

func (f *fakeRelay) respond(path, body string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(body))
	}
}

func (f *fakeRelay) last() relayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeRelay) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestNetwork(t *testing.T, endpoint string) *RelayTransport {
	rt, err := newRelayTransport(model.PrinterKindNetwork, RelayConfig{
		Endpoint: endpoint + "/",
		Host:     "192.168.1.50",
		Port:     9100,
	}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return rt
}

func TestRelayNetworkConnect(t *testing.T) {
	relay, server := newFakeRelay(t)
	rt := newTestNetwork(t, server.URL)

	require.NoError(t, rt.Connect(context.Background()))

	call := relay.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/connect", call.Path)
	assert.Equal(t, "application/json", call.ContentType)
	assert.JSONEq(t, `{"type":"network","ipAddress":"192.168.1.50","port":9100}`, string(call.Body))
}

func TestRelayConnectRejected(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/connect", `{"success":false,"message":"printer unreachable"}`, http.StatusOK)
	rt := newTestNetwork(t, server.URL)

	err := rt.Connect(context.Background())

	var connErr *ConnectError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "printer unreachable", connErr.Reason)

	var writeErr *WriteError
	require.ErrorAs(t, rt.Write(context.Background(), []byte{0x01}), &writeErr)
	assert.ErrorIs(t, writeErr, ErrNotOpen)
}

func TestRelayPrint(t *testing.T) {
	relay, server := newFakeRelay(t)
	rt := newTestNetwork(t, server.URL)
	require.NoError(t, rt.Connect(context.Background()))

	payload := []byte{0x1B, 0x40, 'h', 'i', 0x1D, 0x56, 0x41, 0x03}
	require.NoError(t, rt.Write(context.Background(), payload))

	call := relay.last()
	assert.Equal(t, "/print", call.Path)
	assert.Equal(t, "application/octet-stream", call.ContentType)
	assert.Equal(t, payload, call.Body)
}

func TestRelayPrintOffline(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/print", `{"success":false,"message":"offline"}`, http.StatusOK)
	rt := newTestNetwork(t, server.URL)
	require.NoError(t, rt.Connect(context.Background()))

	err := rt.Write(context.Background(), []byte{0x01})

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "offline", writeErr.Reason)
	assert.Equal(t, model.PrinterKindNetwork, writeErr.Kind)
}

func TestRelayPrintMalformedResponse(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/print", `<html>bad gateway</html>`, http.StatusBadGateway)
	rt := newTestNetwork(t, server.URL)
	require.NoError(t, rt.Connect(context.Background()))

	var writeErr *WriteError
	require.ErrorAs(t, rt.Write(context.Background(), []byte{0x01}), &writeErr)
	assert.Contains(t, writeErr.Error(), "502")
}

func TestRelayStatusPassthrough(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/status", `{"paper":"low","queue":[1,2]}`, http.StatusOK)
	rt := newTestNetwork(t, server.URL)

	status, err := rt.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Live)
	assert.False(t, status.Connected)
	assert.JSONEq(t, `{"paper":"low","queue":[1,2]}`, string(status.Remote))
	assert.Equal(t, http.MethodGet, relay.last().Method)

	relay.respond("/status", `oops`, http.StatusOK)
	_, err = rt.Status(context.Background())
	assert.Error(t, err)

	relay.respond("/status", `{}`, http.StatusServiceUnavailable)
	_, err = rt.Status(context.Background())
	assert.Error(t, err)
}

func TestRelayDisconnect(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/disconnect", `not json at all`, http.StatusAccepted)
	rt := newTestNetwork(t, server.URL)
	require.NoError(t, rt.Connect(context.Background()))

	require.NoError(t, rt.Disconnect(context.Background()))

	call := relay.last()
	assert.Equal(t, "/disconnect", call.Path)
	var body map[string]string
	require.NoError(t, json.Unmarshal(call.Body, &body))
	assert.Equal(t, "network", body["type"])
	assert.Equal(t, "192.168.1.50:9100", body["device"])

	calls := relay.count()
	require.NoError(t, rt.Disconnect(context.Background()))
	assert.Equal(t, calls, relay.count(), "second disconnect is a no-op")
}

func TestRelayDisconnectNon2xx(t *testing.T) {
	relay, server := newFakeRelay(t)
	relay.respond("/disconnect", `{}`, http.StatusInternalServerError)
	rt := newTestNetwork(t, server.URL)
	require.NoError(t, rt.Connect(context.Background()))

	var discErr *DisconnectError
	require.ErrorAs(t, rt.Disconnect(context.Background()), &discErr)
}

func TestRelayAPIAuth(t *testing.T) {
	relay, server := newFakeRelay(t)
	params := model.ConnectParams{API: &model.APIParams{Endpoint: server.URL, APIKey: "secret"}}

	tr, err := NewAPITransport(params, DefaultDefaults(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, model.PrinterKindAPI, tr.Kind())

	require.NoError(t, tr.Connect(context.Background()))
	call := relay.last()
	assert.Equal(t, "/auth", call.Path)
	assert.JSONEq(t, `{"apiKey":"secret"}`, string(call.Body))

	require.NoError(t, tr.Write(context.Background(), []byte{0x01}))
	assert.Equal(t, "secret", relay.last().APIKey)
}

func TestRelayConstructorValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewNetworkTransport(model.ConnectParams{Network: &model.NetworkParams{Host: "10.0.0.2"}}, DefaultDefaults(), logger)
	assert.Error(t, err, "endpoint required")

	_, err = NewNetworkTransport(model.ConnectParams{Network: &model.NetworkParams{Endpoint: "http://relay"}}, DefaultDefaults(), logger)
	assert.Error(t, err, "host required")

	_, err = NewAPITransport(model.ConnectParams{API: &model.APIParams{Endpoint: "http://relay"}}, DefaultDefaults(), logger)
	assert.Error(t, err, "api key required")

	tr, err := NewNetworkTransport(model.ConnectParams{Network: &model.NetworkParams{Endpoint: "http://relay", Host: "10.0.0.2"}}, DefaultDefaults(), logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultNetworkPort, tr.(*RelayTransport).config.Port)
}
