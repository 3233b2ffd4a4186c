package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/protocol"
)

// maxResponseSize bounds how much of a device response is read into memory.
const maxResponseSize = 4 << 20 // 4MB

// allowedMethods are the HTTP verbs accepted as commands.
var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Protocol implements the Lumina protocol contract over HTTP.
//
// Request/response only: there is no push channel, so Subscribe and
// Unsubscribe succeed without doing anything. State transitions still fire
// so observers can treat all transports uniformly.
type Protocol struct {
	protocol.Base

	cfg    config.HTTPConfig
	logger protocol.Logger

	mu     sync.Mutex
	client *http.Client
}

// New creates an HTTP protocol instance. Connect must be called before use.
func New(cfg config.HTTPConfig, logger protocol.Logger) *Protocol {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Protocol{
		Base:   protocol.NewBase("http", logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Connect initialises the underlying HTTP client.
//
// No network traffic occurs; the CONNECTED state means the transport is
// ready to issue requests.
func (p *Protocol) Connect(_ context.Context) error {
	if p.State() == protocol.StateConnected {
		return nil
	}

	p.SetState(protocol.StateConnecting, nil)

	p.mu.Lock()
	p.client = &http.Client{Timeout: p.cfg.RequestTimeout()}
	p.mu.Unlock()

	p.SetState(protocol.StateConnected, nil)
	return nil
}

// Disconnect releases the HTTP client and closes idle connections.
func (p *Protocol) Disconnect(_ context.Context) error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client != nil {
		client.CloseIdleConnections()
	}

	if p.State() != protocol.StateDisconnected {
		p.SetState(protocol.StateDisconnected, nil)
	}
	return nil
}

// Publish POSTs the payload to the topic, which is interpreted as a URL.
// JSON encoding is applied to structured payloads. A response status of 400
// or above is reported as a publish failure.
func (p *Protocol) Publish(ctx context.Context, topic string, payload any, _ byte, _ bool) error {
	if topic == "" {
		return protocol.ErrInvalidTopic
	}
	if _, err := url.ParseRequestURI(topic); err != nil {
		return fmt.Errorf("%w: %q is not a valid URL", protocol.ErrInvalidTopic, topic)
	}

	client := p.currentClient()
	if client == nil {
		return protocol.ErrNotConnected
	}

	body, contentType, err := encodeBody(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topic, body)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize)) //nolint:errcheck

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: endpoint returned %d", protocol.ErrPublishFailed, resp.StatusCode)
	}
	return nil
}

// Subscribe is a documented no-op: HTTP has no push channel. It succeeds so
// callers can treat transports uniformly.
func (p *Protocol) Subscribe(_ context.Context, topic string, _ byte) error {
	p.logger.Debug("http subscribe is a no-op", "topic", topic)
	return nil
}

// Unsubscribe is a documented no-op, mirroring Subscribe.
func (p *Protocol) Unsubscribe(_ context.Context, _ string) error {
	return nil
}

// SendCommand executes an HTTP request against a device endpoint.
//
// The command is the HTTP verb. Parameters:
//   - url: target URL (required)
//   - headers: map of request headers
//   - body: request body (JSON-encoded when structured)
//   - query: map of query string parameters
//
// Returns:
//   - *CommandResult: always structured; on success Result holds
//     "status_code", "headers", and "data" (JSON-decoded when possible)
//   - error: nil on success, or the validation/transport error
func (p *Protocol) SendCommand(ctx context.Context, deviceID, command string, parameters map[string]any) (*protocol.CommandResult, error) {
	result := &protocol.CommandResult{
		DeviceID: deviceID,
		Command:  command,
	}

	method := strings.ToUpper(command)
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		err := fmt.Errorf("%w: unsupported method %q", protocol.ErrCommandFailed, command)
		result.Error = err.Error()
		return result, err
	}

	target, _ := parameters["url"].(string)
	if target == "" {
		err := fmt.Errorf("%w: url parameter is required", protocol.ErrCommandFailed)
		result.Error = err.Error()
		return result, err
	}

	client := p.currentClient()
	if client == nil {
		result.Error = protocol.ErrNotConnected.Error()
		return result, protocol.ErrNotConnected
	}

	body, contentType, err := encodeBody(parameters["body"])
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	applyHeaders(req, parameters["headers"])
	applyQuery(req, parameters["query"])

	resp, err := client.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		wrapped := fmt.Errorf("%w: reading response: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	result.Success = resp.StatusCode < 400
	result.Result = map[string]any{
		"status_code": resp.StatusCode,
		"headers":     flattenHeaders(resp.Header),
		"data":        decodeResponse(raw),
	}
	if !result.Success {
		result.Error = fmt.Sprintf("endpoint returned %d", resp.StatusCode)
	}
	return result, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// currentClient returns the active HTTP client (nil before Connect).
func (p *Protocol) currentClient() *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}

// encodeBody converts a payload into a request body and content type.
func encodeBody(payload any) (io.Reader, string, error) {
	switch v := payload.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encoding body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// applyHeaders copies a headers parameter onto the request, accepting both
// map[string]string and JSON-decoded map[string]any.
func applyHeaders(req *http.Request, headers any) {
	switch h := headers.(type) {
	case map[string]string:
		for k, v := range h {
			req.Header.Set(k, v)
		}
	case map[string]any:
		for k, v := range h {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}
}

// applyQuery merges a query parameter map into the request URL.
func applyQuery(req *http.Request, query any) {
	values := req.URL.Query()
	switch q := query.(type) {
	case map[string]string:
		for k, v := range q {
			values.Set(k, v)
		}
	case map[string]any:
		for k, v := range q {
			values.Set(k, fmt.Sprintf("%v", v))
		}
	default:
		return
	}
	req.URL.RawQuery = values.Encode()
}

// flattenHeaders reduces multi-value response headers to their first value.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

// decodeResponse parses JSON bodies into structured values, falling back to
// the raw text.
func decodeResponse(raw []byte) any {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}
