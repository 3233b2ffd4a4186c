package device

import (
	"fmt"
	"time"
)

// Device represents a controllable or monitorable entity in the system.
//
// Unlike the per-request value objects elsewhere in the pipeline, a Device is
// long-lived and mutable: its State, Capabilities and LastSeen are refreshed
// on every discovery pass and state report.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Classification
	Type   string `json:"type"`
	Domain Domain `json:"domain"`

	// Protocol is the transport name the device is reachable through
	// ("mqtt", "http", "websocket").
	Protocol string `json:"protocol"`

	// Capabilities maps capability name to presence, inferred from State.
	// Example: {"has_on_off": true, "has_brightness": true, "has_color": false}
	Capabilities map[string]bool `json:"capabilities"`

	// Current raw state as last reported by the transport.
	State map[string]any `json:"state,omitempty"`

	// Metadata
	Model        string         `json:"model,omitempty"`
	Manufacturer string         `json:"manufacturer,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	// LastSeen is updated on registration and on every state refresh.
	LastSeen time.Time `json:"last_seen"`
}

// DeepCopy creates a complete independent copy of the Device.
// All map fields are cloned so modifications to the copy do not affect the
// original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	if d.Capabilities != nil {
		cpy.Capabilities = make(map[string]bool, len(d.Capabilities))
		for k, v := range d.Capabilities {
			cpy.Capabilities[k] = v
		}
	}
	cpy.State = deepCopyMap(d.State)
	cpy.Metadata = deepCopyMap(d.Metadata)

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Domain is the closed functional classification of a device. It replaces
// open-ended string matching: every value outside the set below is rejected
// by ParseDomain, and dispatch to typed controls goes through a single table
// keyed by Domain.
type Domain string

// Domain constants.
const (
	DomainSensor       Domain = "sensor"
	DomainBinarySensor Domain = "binary_sensor"
	DomainLight        Domain = "light"
	DomainSwitch       Domain = "switch"
	DomainCover        Domain = "cover"
	DomainClimate      Domain = "climate"
	DomainMediaPlayer  Domain = "media_player"
	DomainMQTT         Domain = "mqtt"
	DomainGeneric      Domain = "generic"
)

// AllDomains returns all valid domain values.
func AllDomains() []Domain {
	return []Domain{
		DomainSensor, DomainBinarySensor, DomainLight, DomainSwitch,
		DomainCover, DomainClimate, DomainMediaPlayer, DomainMQTT,
		DomainGeneric,
	}
}

// ParseDomain converts a raw string into a Domain.
// Returns ErrInvalidDomain for anything outside the closed set.
func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	for _, valid := range AllDomains() {
		if d == valid {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDomain, s)
}
