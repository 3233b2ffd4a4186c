package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/protocol"
)

// Protocol implements the Lumina protocol contract over MQTT using
// paho.mqtt.golang.
//
// The MQTT topic IS the command: SendCommand publishes the parameters'
// payload to the topic named by the command argument. Inbound messages on
// subscribed topics are decoded (JSON if parseable, raw text otherwise)
// and broadcast to observers.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Protocol struct {
	protocol.Base

	cfg    config.MQTTConfig
	logger protocol.Logger

	clientMu sync.Mutex
	client   pahomqtt.Client

	// subscriptions tracks active topics for re-subscription on reconnect.
	subMu         sync.RWMutex
	subscriptions map[string]byte
}

// New creates an MQTT protocol instance. The connection is not established
// until Connect is called; the initial state is DISCONNECTED.
func New(cfg config.MQTTConfig, logger protocol.Logger) *Protocol {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Protocol{
		Base:          protocol.NewBase("mqtt", logger),
		cfg:           cfg,
		logger:        logger,
		subscriptions: make(map[string]byte),
	}
}

// Connect establishes a connection to the MQTT broker.
//
// State transitions: DISCONNECTED → CONNECTING → CONNECTED on success,
// CONNECTING → ERROR on failure (observers are notified exactly once with
// the triggering error).
//
// After an established session, connection loss is handled by paho's
// auto-reconnect: observers see RECONNECTING and then CONNECTED again,
// with tracked subscriptions restored.
//
// Returns:
//   - error: nil on success, or ErrConnectFailed wrapped with the cause
func (p *Protocol) Connect(ctx context.Context) error {
	if p.State() == protocol.StateConnected {
		return nil
	}

	p.SetState(protocol.StateConnecting, nil)

	opts := buildClientOptions(p.cfg)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		p.restoreSubscriptions()
		if p.State() != protocol.StateConnected {
			p.SetState(protocol.StateConnected, nil)
		}
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		p.logger.Warn("mqtt connection lost", "error", err)
		p.SetState(protocol.StateError, err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		p.SetState(protocol.StateReconnecting, nil)
	})

	client := pahomqtt.NewClient(opts)

	token := client.Connect()
	if !waitToken(ctx, token, defaultConnectTimeout) {
		err := fmt.Errorf("%w: timeout after %v", protocol.ErrConnectFailed, defaultConnectTimeout)
		p.SetState(protocol.StateError, err)
		return err
	}
	if err := token.Error(); err != nil {
		wrapped := fmt.Errorf("%w: %w", protocol.ErrConnectFailed, err)
		p.SetState(protocol.StateError, wrapped)
		return wrapped
	}

	p.clientMu.Lock()
	p.client = client
	p.clientMu.Unlock()

	// The OnConnectHandler runs asynchronously and may not have executed
	// yet; set CONNECTED here so callers observe the right state on return.
	if p.State() != protocol.StateConnected {
		p.SetState(protocol.StateConnected, nil)
	}

	return nil
}

// Disconnect gracefully closes the broker connection.
//
// Paho's receive loop is quiesced (pending operations get a grace period to
// complete) before the state machine reports DISCONNECTED. Safe to call on
// an already-disconnected protocol.
func (p *Protocol) Disconnect(_ context.Context) error {
	p.clientMu.Lock()
	client := p.client
	p.client = nil
	p.clientMu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(defaultDisconnectQuiesce)
	}

	if p.State() != protocol.StateDisconnected {
		p.SetState(protocol.StateDisconnected, nil)
	}

	return nil
}

// Publish sends a message to the specified MQTT topic.
//
// Payloads are encoded as JSON for maps/slices/structs, passed through for
// []byte, and stringified otherwise.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "lumina/command/light-living")
//   - payload: The message payload (max 1MB after encoding)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retain: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (p *Protocol) Publish(ctx context.Context, topic string, payload any, qos byte, retain bool) error {
	if topic == "" {
		return protocol.ErrInvalidTopic
	}
	if qos > maxQoS {
		return protocol.ErrInvalidQoS
	}

	data, err := encodePayload(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}
	if len(data) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", protocol.ErrPublishFailed, len(data), maxPayloadSize)
	}

	client := p.currentClient()
	if client == nil || !client.IsConnected() {
		return protocol.ErrNotConnected
	}

	token := client.Publish(topic, qos, retain, data)
	if !waitToken(ctx, token, defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", protocol.ErrPublishFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrPublishFailed, err)
	}

	return nil
}

// Subscribe registers interest in a topic.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "lumina/state/+" matches any device
//   - # (multi-level): "lumina/#" matches all Lumina topics
//
// Inbound messages are decoded into protocol.Message and broadcast to all
// registered observers. Subscriptions are restored after reconnection.
func (p *Protocol) Subscribe(ctx context.Context, topic string, qos byte) error {
	if topic == "" {
		return protocol.ErrInvalidTopic
	}
	if qos > maxQoS {
		return protocol.ErrInvalidQoS
	}

	client := p.currentClient()
	if client == nil || !client.IsConnected() {
		return protocol.ErrNotConnected
	}

	// Track subscription for reconnection restoration
	p.subMu.Lock()
	p.subscriptions[topic] = qos
	p.subMu.Unlock()

	token := client.Subscribe(topic, qos, p.handleInbound)
	if !waitToken(ctx, token, defaultOpTimeout) {
		p.forgetSubscription(topic)
		return fmt.Errorf("%w: timeout after %v", protocol.ErrSubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		p.forgetSubscription(topic)
		return fmt.Errorf("%w: %w", protocol.ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe removes a subscription and stops receiving messages for a topic.
// Messages already in flight may still be delivered.
func (p *Protocol) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return protocol.ErrInvalidTopic
	}

	client := p.currentClient()
	if client == nil || !client.IsConnected() {
		return protocol.ErrNotConnected
	}

	p.forgetSubscription(topic)

	token := client.Unsubscribe(topic)
	if !waitToken(ctx, token, defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", protocol.ErrUnsubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrUnsubscribeFailed, err)
	}

	return nil
}

// SendCommand publishes a device command. For MQTT the command IS the topic;
// parameters carry the payload, qos, and retain flag:
//
//	{"payload": {...}, "qos": 1, "retain": false}
//
// Returns:
//   - *CommandResult: always structured, with Success=false and Error set on failure
//   - error: nil on success, or the underlying publish error
func (p *Protocol) SendCommand(ctx context.Context, deviceID, command string, parameters map[string]any) (*protocol.CommandResult, error) {
	topic := command
	payload := parameters["payload"]
	qos := paramQoS(parameters, byte(p.cfg.QoS))
	retain, _ := parameters["retain"].(bool)

	result := &protocol.CommandResult{
		DeviceID: deviceID,
		Command:  command,
	}

	if err := p.Publish(ctx, topic, payload, qos, retain); err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Success = true
	result.Result = map[string]any{
		"topic":  topic,
		"qos":    int(qos),
		"retain": retain,
	}
	return result, nil
}

// SubscriptionCount returns the number of tracked subscriptions.
func (p *Protocol) SubscriptionCount() int {
	p.subMu.RLock()
	defer p.subMu.RUnlock()
	return len(p.subscriptions)
}

// handleInbound converts a raw paho message into a protocol.Message and
// feeds the observer notify path. JSON payloads are decoded; anything else
// is delivered as raw text.
func (p *Protocol) handleInbound(_ pahomqtt.Client, msg pahomqtt.Message) {
	p.NotifyMessage(protocol.Message{
		Topic:     msg.Topic(),
		Payload:   decodePayload(msg.Payload()),
		Timestamp: time.Now().UTC(),
		QoS:       msg.Qos(),
		Retain:    msg.Retained(),
		Metadata: map[string]any{
			"message_id": msg.MessageID(),
		},
	})
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (p *Protocol) restoreSubscriptions() {
	client := p.currentClient()
	if client == nil {
		return
	}

	p.subMu.RLock()
	defer p.subMu.RUnlock()

	for topic, qos := range p.subscriptions {
		// Re-subscribe (errors during reconnection are logged, not fatal)
		token := client.Subscribe(topic, qos, p.handleInbound)
		if token.WaitTimeout(defaultOpTimeout) && token.Error() != nil {
			p.logger.Warn("failed to restore subscription", "topic", topic, "error", token.Error())
		}
	}
}

// forgetSubscription drops a topic from the restore set.
func (p *Protocol) forgetSubscription(topic string) {
	p.subMu.Lock()
	delete(p.subscriptions, topic)
	p.subMu.Unlock()
}

// currentClient returns the active paho client (may be nil).
func (p *Protocol) currentClient() pahomqtt.Client {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	return p.client
}

// nopLogger keeps the hot paths free of nil checks when no logger is wired.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// paramQoS extracts a QoS level from command parameters. JSON-decoded
// parameters carry numbers as float64; direct callers may pass int.
func paramQoS(parameters map[string]any, fallback byte) byte {
	switch v := parameters["qos"].(type) {
	case int:
		if v >= 0 && v <= int(maxQoS) {
			return byte(v)
		}
	case float64:
		if v >= 0 && v <= float64(maxQoS) {
			return byte(v)
		}
	}
	return fallback
}

// waitToken waits for a paho token honouring both the timeout and the
// caller's context.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return token.WaitTimeout(time.Until(deadline))
}

// encodePayload converts an arbitrary payload into bytes for the wire.
func encodePayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding payload: %w", err)
		}
		return data, nil
	}
}

// decodePayload parses JSON payloads into structured values, falling back
// to the raw text for anything that isn't valid JSON.
func decodePayload(raw []byte) any {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}
