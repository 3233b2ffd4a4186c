package device

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/luminahome/lumina-core/internal/protocol"
)

// mockTransport records SendCommand invocations and returns a canned result.
type mockTransport struct {
	mu       sync.Mutex
	deviceID string
	command  string
	params   map[string]any
	calls    int
	result   *protocol.CommandResult
}

func (m *mockTransport) Name() string                                   { return "mock" }
func (m *mockTransport) State() protocol.State                          { return protocol.StateConnected }
func (m *mockTransport) Connect(context.Context) error                  { return nil }
func (m *mockTransport) Disconnect(context.Context) error               { return nil }
func (m *mockTransport) Subscribe(context.Context, string, byte) error  { return nil }
func (m *mockTransport) Unsubscribe(context.Context, string) error      { return nil }
func (m *mockTransport) AddObserver(protocol.Observer)                  {}
func (m *mockTransport) RemoveObserver(protocol.Observer)               {}
func (m *mockTransport) Publish(context.Context, string, any, byte, bool) error {
	return nil
}

func (m *mockTransport) SendCommand(_ context.Context, deviceID, command string, parameters map[string]any) (*protocol.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceID = deviceID
	m.command = command
	m.params = parameters
	m.calls++
	if m.result != nil {
		return m.result, nil
	}
	return &protocol.CommandResult{Success: true, DeviceID: deviceID, Command: command}, nil
}

func (m *mockTransport) lastPayload() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, _ := m.params["payload"].(map[string]any)
	return payload
}

func TestNewControlDispatch(t *testing.T) {
	transport := &mockTransport{}

	tests := []struct {
		domain Domain
		want   string
	}{
		{DomainLight, "*device.Light"},
		{DomainSwitch, "*device.Switch"},
		{DomainSensor, "*device.Sensor"},
		{DomainBinarySensor, "*device.Sensor"},
		{DomainCover, "*device.Cover"},
		{DomainClimate, "*device.Climate"},
		{DomainMediaPlayer, "*device.Generic"},
		{DomainMQTT, "*device.Generic"},
		{DomainGeneric, "*device.Generic"},
	}

	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			ctrl, err := NewControl(tt.domain, transport, "d1")
			if err != nil {
				t.Fatalf("NewControl() error: %v", err)
			}
			if got := reflect.TypeOf(ctrl).String(); got != tt.want {
				t.Errorf("NewControl(%s) = %s, want %s", tt.domain, got, tt.want)
			}
			if ctrl.DeviceID() != "d1" {
				t.Errorf("DeviceID() = %q", ctrl.DeviceID())
			}
			if ctrl.Domain() != tt.domain {
				t.Errorf("Domain() = %q, want %q", ctrl.Domain(), tt.domain)
			}
		})
	}

	if _, err := NewControl("thermostat", transport, "d1"); !errors.Is(err, ErrInvalidDomain) {
		t.Errorf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestRegistryControl(t *testing.T) {
	registry := NewRegistry(nil)
	err := registry.Register(&Device{
		ID:       "light-hall",
		Name:     "Hall light",
		Domain:   DomainLight,
		Protocol: "mqtt",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	transport := &namedTransport{name: "mqtt"}
	ctrl, err := registry.Control("light-hall", transport)
	if err != nil {
		t.Fatalf("Control() error: %v", err)
	}

	light, ok := ctrl.(*Light)
	if !ok {
		t.Fatalf("control type = %T, want *Light", ctrl)
	}
	if _, err := light.TurnOn(context.Background()); err != nil {
		t.Fatalf("TurnOn() error: %v", err)
	}
	if transport.command != "lumina/command/light-hall" {
		t.Errorf("command = %q, want lumina/command/light-hall", transport.command)
	}
	if want := map[string]any{"on": true}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}

	if _, err := registry.Control("ghost", transport); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLightOperations(t *testing.T) {
	transport := &mockTransport{}
	ctrl, _ := NewControl(DomainLight, transport, "light-salon")
	light := ctrl.(*Light)
	ctx := context.Background()

	if _, err := light.TurnOn(ctx); err != nil {
		t.Fatalf("TurnOn() error: %v", err)
	}
	if transport.command != "turn_on" {
		t.Errorf("command = %q", transport.command)
	}
	if want := map[string]any{"on": true}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}

	if _, err := light.SetBrightness(ctx, 120); err != nil {
		t.Fatalf("SetBrightness() error: %v", err)
	}
	if want := map[string]any{"bri": 120}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}
	if transport.deviceID != "light-salon" {
		t.Errorf("deviceID = %q", transport.deviceID)
	}

	if _, err := light.SetColor(ctx, map[string]any{"hue": 200, "sat": 80}); err != nil {
		t.Fatalf("SetColor() error: %v", err)
	}
	if want := map[string]any{"hue": 200, "sat": 80}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}

	if _, err := light.SetColorTemperature(ctx, 366); err != nil {
		t.Fatalf("SetColorTemperature() error: %v", err)
	}
	if transport.command != "set_ct" {
		t.Errorf("command = %q", transport.command)
	}
}

func TestLightSetBrightnessRange(t *testing.T) {
	transport := &mockTransport{}
	ctrl, _ := NewControl(DomainLight, transport, "d1")
	light := ctrl.(*Light)

	for _, bri := range []int{-1, 255, 1000} {
		if _, err := light.SetBrightness(context.Background(), bri); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("SetBrightness(%d) = %v, want ErrInvalidValue", bri, err)
		}
	}
	if transport.calls != 0 {
		t.Errorf("out-of-range brightness reached the transport (%d calls)", transport.calls)
	}
}

func TestSwitchToggle(t *testing.T) {
	transport := &mockTransport{}
	ctrl, _ := NewControl(DomainSwitch, transport, "plug")
	sw := ctrl.(*Switch)

	if _, err := sw.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if transport.command != "toggle" {
		t.Errorf("command = %q", transport.command)
	}
	if want := map[string]any{"toggle": true}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}
}

func TestSensorMeasurements(t *testing.T) {
	transport := &mockTransport{
		result: &protocol.CommandResult{
			Success: true,
			Result:  map[string]any{"temperature": 21.5, "humidity": 40.0},
		},
	}
	ctrl, _ := NewControl(DomainSensor, transport, "t1")
	sensor := ctrl.(*Sensor)

	got, err := sensor.Measurements(context.Background())
	if err != nil {
		t.Fatalf("Measurements() error: %v", err)
	}
	if got["temperature"] != 21.5 {
		t.Errorf("temperature = %v", got["temperature"])
	}
	if transport.command != "query_status" {
		t.Errorf("command = %q", transport.command)
	}
	if want := map[string]any{"query": "status"}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}
}

func TestCoverOperations(t *testing.T) {
	transport := &mockTransport{}
	ctrl, _ := NewControl(DomainCover, transport, "blind")
	cover := ctrl.(*Cover)
	ctx := context.Background()

	if _, err := cover.SetPosition(ctx, 50); err != nil {
		t.Fatalf("SetPosition() error: %v", err)
	}
	if want := map[string]any{"position": 50}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}

	if _, err := cover.SetPosition(ctx, 101); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetPosition(101) = %v, want ErrInvalidValue", err)
	}

	if _, err := cover.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if transport.command != "stop" {
		t.Errorf("command = %q", transport.command)
	}
	if got := transport.lastPayload(); len(got) != 0 {
		t.Errorf("stop payload = %v, want empty", got)
	}
}

func TestClimateOperations(t *testing.T) {
	transport := &mockTransport{}
	ctrl, _ := NewControl(DomainClimate, transport, "hvac")
	climate := ctrl.(*Climate)
	ctx := context.Background()

	if _, err := climate.SetTemperature(ctx, 21.5); err != nil {
		t.Fatalf("SetTemperature() error: %v", err)
	}
	if want := map[string]any{"temperature": 21.5}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}

	if _, err := climate.SetMode(ctx, "heat"); err != nil {
		t.Fatalf("SetMode() error: %v", err)
	}
	if want := map[string]any{"mode": "heat"}; !reflect.DeepEqual(transport.lastPayload(), want) {
		t.Errorf("payload = %v, want %v", transport.lastPayload(), want)
	}
}
