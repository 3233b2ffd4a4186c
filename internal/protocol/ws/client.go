package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/protocol"
)

// Connection defaults applied when the configuration leaves them unset.
const (
	defaultMaxMessageSize = 1 << 20 // 1MB
	defaultPingInterval   = 30 * time.Second
	defaultPongTimeout    = 60 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultResponseWait   = 5 * time.Second
	closeGracePeriod      = time.Second
)

// envelope is the JSON frame wrapping published messages on the stream.
type envelope struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
	QoS     byte   `json:"qos"`
	Retain  bool   `json:"retain"`
}

// commandFrame is the JSON frame carrying device commands.
type commandFrame struct {
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}

// Protocol implements the Lumina protocol contract over a WebSocket stream.
//
// All writes are serialised through a mutex because gorilla/websocket
// permits at most one concurrent writer. A single read loop goroutine owns
// the inbound side and feeds observers.
type Protocol struct {
	protocol.Base

	cfg    config.WebSocketConfig
	logger protocol.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	closing bool
	done    chan struct{}
	cancel  context.CancelFunc

	// waiterMu guards the single in-flight response waiter used by
	// SendCommand with wait_for_response.
	waiterMu sync.Mutex
	waiter   chan []byte
}

// New creates a WebSocket protocol instance for the configured URL.
func New(cfg config.WebSocketConfig, logger protocol.Logger) *Protocol {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Protocol{
		Base:   protocol.NewBase("websocket", logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Connect dials the configured WebSocket endpoint and starts the read and
// ping loops.
//
// State transitions: DISCONNECTED → CONNECTING → CONNECTED on success,
// CONNECTING → ERROR on failure.
func (p *Protocol) Connect(ctx context.Context) error {
	if p.State() == protocol.StateConnected {
		return nil
	}
	if p.cfg.URL == "" {
		err := fmt.Errorf("%w: websocket url not configured", protocol.ErrMissingURL)
		p.SetState(protocol.StateError, err)
		return err
	}

	p.SetState(protocol.StateConnecting, nil)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.cfg.URL, nil)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrConnectFailed, err)
		p.SetState(protocol.StateError, wrapped)
		return wrapped
	}

	conn.SetReadLimit(p.maxMessageSize())
	conn.SetReadDeadline(time.Now().Add(p.pongTimeout())) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(p.pongTimeout()))
	})

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.conn = conn
	p.closing = false
	p.done = done
	p.cancel = cancel
	p.mu.Unlock()

	go p.readLoop(conn, done)
	go p.pingLoop(loopCtx, conn)

	p.SetState(protocol.StateConnected, nil)
	return nil
}

// Disconnect performs a clean close handshake and waits for the read loop
// to exit. Safe to call on an already-disconnected protocol.
func (p *Protocol) Disconnect(_ context.Context) error {
	p.mu.Lock()
	conn := p.conn
	done := p.done
	cancel := p.cancel
	p.conn = nil
	p.done = nil
	p.cancel = nil
	p.closing = true
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if conn != nil {
		deadline := time.Now().Add(defaultWriteTimeout)
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

		if done != nil {
			select {
			case <-done:
			case <-time.After(closeGracePeriod):
			}
		}
		conn.Close()
	}

	if p.State() != protocol.StateDisconnected {
		p.SetState(protocol.StateDisconnected, nil)
	}
	return nil
}

// Publish sends a topic-tagged JSON envelope down the stream.
func (p *Protocol) Publish(ctx context.Context, topic string, payload any, qos byte, retain bool) error {
	if topic == "" {
		return protocol.ErrInvalidTopic
	}

	frame, err := json.Marshal(envelope{Topic: topic, Payload: payload, QoS: qos, Retain: retain})
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}

	if err := p.writeFrame(ctx, frame); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}
	return nil
}

// Subscribe is a documented no-op: the stream already delivers every message
// to observers.
func (p *Protocol) Subscribe(_ context.Context, topic string, _ byte) error {
	p.logger.Debug("websocket subscribe is a no-op", "topic", topic)
	return nil
}

// Unsubscribe is a documented no-op, mirroring Subscribe.
func (p *Protocol) Unsubscribe(_ context.Context, _ string) error {
	return nil
}

// SendCommand sends a device command frame over the stream.
//
// When parameters contain "wait_for_response": true, the next inbound frame
// is consumed as the response and returned in Result["response"]; observers
// do not see that frame.
//
// Returns:
//   - *CommandResult: always structured, Success=false with Error set on failure
//   - error: nil on success, or the underlying transport error
func (p *Protocol) SendCommand(ctx context.Context, deviceID, command string, parameters map[string]any) (*protocol.CommandResult, error) {
	result := &protocol.CommandResult{
		DeviceID: deviceID,
		Command:  command,
	}

	frame, err := json.Marshal(commandFrame{DeviceID: deviceID, Command: command, Parameters: parameters})
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	wait, _ := parameters["wait_for_response"].(bool)

	var waiter chan []byte
	if wait {
		waiter = make(chan []byte, 1)
		p.waiterMu.Lock()
		p.waiter = waiter
		p.waiterMu.Unlock()
		defer func() {
			p.waiterMu.Lock()
			p.waiter = nil
			p.waiterMu.Unlock()
		}()
	}

	if err := p.writeFrame(ctx, frame); err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrCommandFailed, err)
		result.Error = wrapped.Error()
		return result, wrapped
	}

	result.Success = true
	if wait {
		select {
		case raw := <-waiter:
			result.Result = map[string]any{"response": decodeFrame(raw)}
		case <-time.After(defaultResponseWait):
			result.Success = false
			result.Error = "timed out waiting for response"
			return result, fmt.Errorf("%w: timed out waiting for response", protocol.ErrCommandFailed)
		case <-ctx.Done():
			result.Success = false
			result.Error = ctx.Err().Error()
			return result, fmt.Errorf("%w: %w", protocol.ErrCommandFailed, ctx.Err())
		}
	}

	return result, nil
}

// readLoop owns the inbound side of the connection until it fails or the
// protocol disconnects.
func (p *Protocol) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			p.mu.Lock()
			closing := p.closing
			p.mu.Unlock()
			if !closing {
				p.logger.Warn("websocket read failed", "error", err)
				p.SetState(protocol.StateError, err)
			}
			return
		}

		// A pending command waiter consumes the frame instead of observers.
		p.waiterMu.Lock()
		waiter := p.waiter
		p.waiter = nil
		p.waiterMu.Unlock()
		if waiter != nil {
			waiter <- raw
			continue
		}

		p.NotifyMessage(toMessage(raw))
	}
}

// pingLoop keeps the connection alive until the context is cancelled.
func (p *Protocol) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(p.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(defaultWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// writeFrame sends a text frame, honouring the single-writer constraint.
func (p *Protocol) writeFrame(ctx context.Context, frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return protocol.ErrNotConnected
	}

	deadline := time.Now().Add(defaultWriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	p.conn.SetWriteDeadline(deadline) //nolint:errcheck

	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

func (p *Protocol) maxMessageSize() int64 {
	if p.cfg.MaxMessageSize > 0 {
		return int64(p.cfg.MaxMessageSize)
	}
	return defaultMaxMessageSize
}

func (p *Protocol) pingInterval() time.Duration {
	if p.cfg.PingInterval > 0 {
		return time.Duration(p.cfg.PingInterval) * time.Second
	}
	return defaultPingInterval
}

func (p *Protocol) pongTimeout() time.Duration {
	if p.cfg.PongTimeout > 0 {
		return time.Duration(p.cfg.PongTimeout) * time.Second
	}
	return defaultPongTimeout
}

// toMessage converts a raw frame into a protocol.Message. Envelope frames
// contribute their topic; anything else arrives under the "ws" topic.
func toMessage(raw []byte) protocol.Message {
	msg := protocol.Message{
		Topic:     "ws",
		Payload:   decodeFrame(raw),
		Timestamp: time.Now().UTC(),
	}
	if obj, ok := msg.Payload.(map[string]any); ok {
		if topic, ok := obj["topic"].(string); ok && topic != "" {
			msg.Topic = topic
			if payload, ok := obj["payload"]; ok {
				msg.Payload = payload
			}
		}
	}
	return msg
}

// decodeFrame parses JSON frames into structured values, falling back to
// the raw text.
func decodeFrame(raw []byte) any {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
