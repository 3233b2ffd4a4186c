package protocol

import "errors"

// Domain-specific errors for protocol operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected protocol.
	ErrNotConnected = errors.New("protocol: not connected")

	// ErrConnectFailed is returned when the connection attempt fails.
	ErrConnectFailed = errors.New("protocol: connect failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("protocol: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("protocol: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("protocol: unsubscribe failed")

	// ErrCommandFailed is returned when SendCommand cannot reach the device.
	ErrCommandFailed = errors.New("protocol: command failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("protocol: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("protocol: topic cannot be empty")

	// ErrMissingURL is returned when an HTTP command lacks the url parameter.
	ErrMissingURL = errors.New("protocol: url parameter is required")
)
