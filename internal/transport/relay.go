// internal/transport/relay.go
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// maxRelayBody caps how much of a relay response is read
const maxRelayBody = 1 << 20

// relayResponse is the envelope the relay answers connect/auth/print with
type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type relayConnectRequest struct {
	Type      string `json:"type"`
	IPAddress string `json:"ipAddress"`
	Port      int    `json:"port"`
}

type relayAuthRequest struct {
	APIKey string `json:"apiKey"`
}

type relayDisconnectRequest struct {
	Type   string `json:"type"`
	Device string `json:"device"`
}

// RelayTransport drives a network or API-gated printer through an HTTP relay.
// It holds no device handle; every operation is a single request.
type RelayTransport struct {
	kind      model.PrinterKind
	config    RelayConfig
	client    *http.Client
	connected bool
	logger    *zap.Logger
	mutex     sync.RWMutex
	stats     Stats
}

// NewNetworkTransport creates a relay transport addressing a LAN printer
func NewNetworkTransport(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error) {
	config := defaults.Relay
	if p := params.Network; p != nil {
		if p.Endpoint != "" {
			config.Endpoint = p.Endpoint
		}
		if p.Host != "" {
			config.Host = p.Host
		}
		if p.Port > 0 {
			config.Port = p.Port
		}
	}

	if config.Host == "" {
		return nil, connectErr(model.PrinterKindNetwork, "printer host is required", nil)
	}
	if config.Port <= 0 {
		config.Port = DefaultNetworkPort
	}

	return newRelayTransport(model.PrinterKindNetwork, config, nil, logger)
}

// NewAPITransport creates a relay transport authenticated with an API key
func NewAPITransport(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error) {
	config := defaults.Relay
	if p := params.API; p != nil {
		if p.Endpoint != "" {
			config.Endpoint = p.Endpoint
		}
		if p.APIKey != "" {
			config.APIKey = p.APIKey
		}
	}

	if config.APIKey == "" {
		return nil, connectErr(model.PrinterKindAPI, "API key is required", nil)
	}

	return newRelayTransport(model.PrinterKindAPI, config, nil, logger)
}

func newRelayTransport(kind model.PrinterKind, config RelayConfig, client *http.Client, logger *zap.Logger) (*RelayTransport, error) {
	config.Endpoint = strings.TrimRight(strings.TrimSpace(config.Endpoint), "/")
	if config.Endpoint == "" {
		return nil, connectErr(kind, "relay endpoint is required", nil)
	}

	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &RelayTransport{
		kind:   kind,
		config: config,
		client: client,
		logger: logger.With(
			zap.String("transport", strings.ToLower(string(kind))),
			zap.String("endpoint", config.Endpoint),
		),
	}, nil
}

// Kind returns the printer kind
func (rt *RelayTransport) Kind() model.PrinterKind {
	return rt.kind
}

// Connect asks the relay to open the printer (network) or to accept the API key (api)
func (rt *RelayTransport) Connect(ctx context.Context) error {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	if rt.connected {
		return nil
	}

	var (
		path string
		body interface{}
	)
	switch rt.kind {
	case model.PrinterKindAPI:
		path, body = "/auth", relayAuthRequest{APIKey: rt.config.APIKey}
	default:
		path, body = "/connect", relayConnectRequest{
			Type:      "network",
			IPAddress: rt.config.Host,
			Port:      rt.config.Port,
		}
	}

	rt.logger.Info("Connecting through relay", zap.String("path", path))

	resp, err := rt.postJSON(ctx, path, body)
	if err != nil {
		return connectErr(rt.kind, "relay unreachable", err)
	}
	if !resp.Success {
		return connectErr(rt.kind, messageOr(resp.Message, "relay rejected connect"), nil)
	}

	rt.connected = true
	rt.logger.Info("Relay connection established")
	return nil
}

// Write posts the encoded job as an octet-stream
func (rt *RelayTransport) Write(ctx context.Context, data []byte) error {
	rt.mutex.RLock()
	defer rt.mutex.RUnlock()

	if !rt.connected {
		return writeErr(rt.kind, "relay session not open", ErrNotOpen)
	}

	startTime := time.Now()

	req, err := rt.newRequest(ctx, http.MethodPost, "/print", bytes.NewReader(data))
	if err != nil {
		return writeErr(rt.kind, "failed to build print request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := rt.do(req)
	if err != nil {
		rt.stats.recordError()
		rt.logger.Error("Relay print failed", zap.Error(err))
		return writeErr(rt.kind, "relay unreachable", err)
	}
	if !resp.Success {
		rt.stats.recordError()
		rt.logger.Warn("Relay reported print failure", zap.String("message", resp.Message))
		return writeErr(rt.kind, messageOr(resp.Message, "relay reported failure"), nil)
	}

	rt.stats.recordWrite(len(data), time.Since(startTime))
	rt.logger.Debug("Relay print completed", zap.Int("bytes", len(data)))
	return nil
}

// Status performs a live GET /status and passes the payload through verbatim
func (rt *RelayTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	rt.mutex.RLock()
	connected := rt.connected
	rt.mutex.RUnlock()

	req, err := rt.newRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := rt.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay status: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxRelayBody))
	if err != nil {
		return nil, fmt.Errorf("relay status: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("relay status: unexpected HTTP %d", httpResp.StatusCode)
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("relay status: response is not JSON")
	}

	phase := model.PhaseDisconnected
	if connected {
		phase = model.PhaseConnected
	}

	return &model.StatusReport{
		Kind:      rt.kind,
		Phase:     phase,
		Connected: connected,
		Live:      true,
		Summary:   rt.stats.summary(map[string]interface{}{"endpoint": rt.config.Endpoint}),
		Remote:    json.RawMessage(payload),
		CheckedAt: time.Now(),
	}, nil
}

// Disconnect notifies the relay. Any 2xx answer is success.
func (rt *RelayTransport) Disconnect(ctx context.Context) error {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	if !rt.connected {
		return nil
	}
	rt.connected = false

	body, err := json.Marshal(relayDisconnectRequest{
		Type:   strings.ToLower(string(rt.kind)),
		Device: rt.deviceName(),
	})
	if err != nil {
		return &DisconnectError{Kind: rt.kind, Err: err}
	}

	req, err := rt.newRequest(ctx, http.MethodPost, "/disconnect", bytes.NewReader(body))
	if err != nil {
		return &DisconnectError{Kind: rt.kind, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := rt.client.Do(req)
	if err != nil {
		rt.logger.Warn("Relay disconnect failed", zap.Error(err))
		return &DisconnectError{Kind: rt.kind, Err: err}
	}
	defer httpResp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxRelayBody))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return &DisconnectError{Kind: rt.kind, Err: fmt.Errorf("unexpected HTTP %d", httpResp.StatusCode)}
	}

	rt.logger.Info("Relay connection closed")
	return nil
}

func (rt *RelayTransport) deviceName() string {
	if rt.kind == model.PrinterKindNetwork {
		return net.JoinHostPort(rt.config.Host, strconv.Itoa(rt.config.Port))
	}
	return rt.config.Endpoint
}

func (rt *RelayTransport) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rt.config.Endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if rt.kind == model.PrinterKindAPI && rt.config.APIKey != "" {
		req.Header.Set("X-API-Key", rt.config.APIKey)
	}
	return req, nil
}

func (rt *RelayTransport) postJSON(ctx context.Context, path string, payload interface{}) (*relayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := rt.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return rt.do(req)
}

// do sends req and decodes the success envelope. The envelope's success
// field decides the outcome, not the HTTP status.
func (rt *RelayTransport) do(req *http.Request) (*relayResponse, error) {
	httpResp, err := rt.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var resp relayResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxRelayBody)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("invalid relay response (HTTP %d): %w", httpResp.StatusCode, err)
	}
	return &resp, nil
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
