package device

import (
	"context"
	"fmt"

	"github.com/luminahome/lumina-core/internal/protocol"
)

// Control is a typed handle for operating one device over a transport.
// Specialisations add domain operations (SetBrightness, Toggle, SetPosition);
// the base contract is the generic command send every domain supports.
type Control interface {
	// DeviceID returns the ID of the controlled device.
	DeviceID() string

	// Domain returns the control's functional classification.
	Domain() Domain

	// Send issues a raw command with an explicit payload.
	Send(ctx context.Context, command string, payload map[string]any) (*protocol.CommandResult, error)
}

// controlConstructors is the single dispatch table mapping a domain variant
// to its control constructor. Adding a domain means adding exactly one row.
var controlConstructors = map[Domain]func(protocol.Protocol, *Device) Control{
	DomainLight:        func(p protocol.Protocol, d *Device) Control { return &Light{base{p, d, DomainLight}} },
	DomainSwitch:       func(p protocol.Protocol, d *Device) Control { return &Switch{base{p, d, DomainSwitch}} },
	DomainSensor:       func(p protocol.Protocol, d *Device) Control { return &Sensor{base{p, d, DomainSensor}} },
	DomainBinarySensor: func(p protocol.Protocol, d *Device) Control { return &Sensor{base{p, d, DomainBinarySensor}} },
	DomainCover:        func(p protocol.Protocol, d *Device) Control { return &Cover{base{p, d, DomainCover}} },
	DomainClimate:      func(p protocol.Protocol, d *Device) Control { return &Climate{base{p, d, DomainClimate}} },
	DomainMediaPlayer:  func(p protocol.Protocol, d *Device) Control { return &Generic{base{p, d, DomainMediaPlayer}} },
	DomainMQTT:         func(p protocol.Protocol, d *Device) Control { return &Generic{base{p, d, DomainMQTT}} },
	DomainGeneric:      func(p protocol.Protocol, d *Device) Control { return &Generic{base{p, d, DomainGeneric}} },
}

// NewControl constructs the typed control for a domain.
// Returns ErrInvalidDomain for anything outside the closed set.
//
// The control carries no device metadata; HTTP devices need Registry.Control
// so the URL mapping can be read from the catalogue entry.
func NewControl(domain Domain, proto protocol.Protocol, deviceID string) (Control, error) {
	ctor, ok := controlConstructors[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return ctor(proto, &Device{ID: deviceID, Domain: domain}), nil
}

// base carries the transport handle shared by every control.
type base struct {
	proto  protocol.Protocol
	dev    *Device
	domain Domain
}

func (b *base) DeviceID() string { return b.dev.ID }

func (b *base) Domain() Domain { return b.domain }

// Send issues a command with the payload wrapped the way the decision
// translator wraps its parameters, so typed controls and translated
// decisions produce identical wire traffic.
func (b *base) Send(ctx context.Context, command string, payload map[string]any) (*protocol.CommandResult, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	wireCmd, params, err := WireCommand(b.proto, b.dev, command, map[string]any{"payload": payload})
	if err != nil {
		return nil, err
	}
	return b.proto.SendCommand(ctx, b.dev.ID, wireCmd, params)
}

// Light controls a lighting device.
type Light struct{ base }

// TurnOn switches the light on.
func (l *Light) TurnOn(ctx context.Context) (*protocol.CommandResult, error) {
	return l.Send(ctx, "turn_on", map[string]any{"on": true})
}

// TurnOff switches the light off.
func (l *Light) TurnOff(ctx context.Context) (*protocol.CommandResult, error) {
	return l.Send(ctx, "turn_off", map[string]any{"on": false})
}

// SetBrightness sets the light's brightness.
//
// Parameters:
//   - brightness: target level, 0-254
//
// Returns:
//   - ErrInvalidValue when brightness is out of range
func (l *Light) SetBrightness(ctx context.Context, brightness int) (*protocol.CommandResult, error) {
	if brightness < 0 || brightness > 254 {
		return nil, fmt.Errorf("%w: brightness %d out of range 0-254", ErrInvalidValue, brightness)
	}
	return l.Send(ctx, "set_brightness", map[string]any{"bri": brightness})
}

// SetColor sets the light's colour. The colour map is passed through as the
// payload (HS, XY or CT keys, depending on what the device supports).
func (l *Light) SetColor(ctx context.Context, color map[string]any) (*protocol.CommandResult, error) {
	return l.Send(ctx, "set_color", color)
}

// SetColorTemperature sets the light's colour temperature in mireds.
func (l *Light) SetColorTemperature(ctx context.Context, ct int) (*protocol.CommandResult, error) {
	return l.Send(ctx, "set_ct", map[string]any{"ct": ct})
}

// Switch controls an on/off device.
type Switch struct{ base }

// TurnOn switches the device on.
func (s *Switch) TurnOn(ctx context.Context) (*protocol.CommandResult, error) {
	return s.Send(ctx, "turn_on", map[string]any{"on": true})
}

// TurnOff switches the device off.
func (s *Switch) TurnOff(ctx context.Context) (*protocol.CommandResult, error) {
	return s.Send(ctx, "turn_off", map[string]any{"on": false})
}

// Toggle flips the device's on/off state.
func (s *Switch) Toggle(ctx context.Context) (*protocol.CommandResult, error) {
	return s.Send(ctx, "toggle", map[string]any{"toggle": true})
}

// Sensor reads a measuring device. Binary sensors share this control.
type Sensor struct{ base }

// Measurements queries the sensor and returns its current readings.
//
// Returns:
//   - The result map from the transport (nil when the query failed)
func (s *Sensor) Measurements(ctx context.Context) (map[string]any, error) {
	result, err := s.Send(ctx, "query_status", map[string]any{"query": "status"})
	if err != nil {
		return nil, err
	}
	return result.Result, nil
}

// Cover controls a blind or curtain.
type Cover struct{ base }

// SetPosition moves the cover to a target position.
//
// Parameters:
//   - position: target position, 0-100
//
// Returns:
//   - ErrInvalidValue when position is out of range
func (c *Cover) SetPosition(ctx context.Context, position int) (*protocol.CommandResult, error) {
	if position < 0 || position > 100 {
		return nil, fmt.Errorf("%w: position %d out of range 0-100", ErrInvalidValue, position)
	}
	return c.Send(ctx, "set_position", map[string]any{"position": position})
}

// Stop halts the cover's movement.
func (c *Cover) Stop(ctx context.Context) (*protocol.CommandResult, error) {
	return c.Send(ctx, "stop", nil)
}

// Climate controls a heating or cooling device.
type Climate struct{ base }

// SetTemperature sets the target temperature.
func (c *Climate) SetTemperature(ctx context.Context, temperature float64) (*protocol.CommandResult, error) {
	return c.Send(ctx, "set_temperature", map[string]any{"temperature": temperature})
}

// SetMode sets the operating mode (heat, cool, auto).
func (c *Climate) SetMode(ctx context.Context, mode string) (*protocol.CommandResult, error) {
	return c.Send(ctx, "set_mode", map[string]any{"mode": mode})
}

// Generic covers domains without typed operations; media players and raw
// MQTT devices use the base Send directly.
type Generic struct{ base }
