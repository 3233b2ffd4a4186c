package protocol

import (
	"context"
	"time"
)

// State represents the connection state of a protocol instance.
type State string

// Connection states.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
	StateReconnecting State = "reconnecting"
)

// Message is a generic message flowing through a protocol.
//
// For MQTT the topic is the broker topic; for HTTP it is the request URL;
// for WebSocket it is the logical channel carried in the JSON envelope.
type Message struct {
	Topic     string         `json:"topic"`
	Payload   any            `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	QoS       byte           `json:"qos"`
	Retain    bool           `json:"retain"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CommandResult is the uniform structured result of SendCommand.
//
// Callers always receive a CommandResult with Success set; transport failures
// populate Error rather than surfacing as panics or bare errors.
type CommandResult struct {
	Success  bool           `json:"success"`
	DeviceID string         `json:"device_id"`
	Command  string         `json:"command"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Protocol is the contract every transport implements.
//
// Implementations maintain the connection state machine documented in the
// package comment and broadcast state transitions and inbound messages to
// registered observers.
type Protocol interface {
	// Name returns the transport name ("mqtt", "http", "websocket").
	Name() string

	// State returns the current connection state.
	State() State

	// Connect establishes the transport connection.
	// Transitions DISCONNECTED → CONNECTING → CONNECTED on success,
	// CONNECTING → ERROR on failure.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down, cancelling any listen loop and
	// awaiting its completion before reporting DISCONNECTED.
	// Safe to call on an already-disconnected protocol.
	Disconnect(ctx context.Context) error

	// Publish sends a message on the transport.
	Publish(ctx context.Context, topic string, payload any, qos byte, retain bool) error

	// Subscribe registers interest in a topic. Transports without a native
	// push channel (HTTP) treat this as a documented no-op success.
	Subscribe(ctx context.Context, topic string, qos byte) error

	// Unsubscribe removes interest in a topic.
	Unsubscribe(ctx context.Context, topic string) error

	// SendCommand translates a generic device command into transport-specific
	// wire operations. The result is always structured; transport failures
	// are reported via CommandResult.Error plus a non-nil error.
	SendCommand(ctx context.Context, deviceID, command string, parameters map[string]any) (*CommandResult, error)

	// AddObserver registers an observer for messages and state changes.
	AddObserver(Observer)

	// RemoveObserver deregisters an observer.
	RemoveObserver(Observer)
}
