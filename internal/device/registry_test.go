package device

import (
	"errors"
	"testing"
	"time"
)

func testDevice(id string, domain Domain) *Device {
	return &Device{
		ID:       id,
		Name:     "Test " + id,
		Domain:   domain,
		Protocol: "mqtt",
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)

	dev := testDevice("light-salon", DomainLight)
	dev.State = map[string]any{"on": true, "bri": 120}

	if err := r.Register(dev); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	got, err := r.Get("light-salon")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "Test light-salon" {
		t.Errorf("Name = %q", got.Name)
	}
	if !got.Capabilities[CapBrightness] {
		t.Error("expected brightness capability inferred at registration")
	}
	if got.Capabilities[CapColor] {
		t.Error("colour capability inferred without hue/xy in state")
	}
	if got.LastSeen.IsZero() {
		t.Error("LastSeen not stamped")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Register(testDevice("d1", DomainSwitch)); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}
	err := r.Register(testDevice("d1", DomainSwitch))
	if !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name string
		dev  *Device
		want error
	}{
		{"nil device", nil, ErrInvalidDevice},
		{"empty id", &Device{Name: "x", Domain: DomainLight}, ErrInvalidDevice},
		{"empty name", &Device{ID: "x", Domain: DomainLight}, ErrInvalidDevice},
		{"unknown domain", &Device{ID: "x", Name: "x", Domain: "thermostat"}, ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.dev); !errors.Is(err, tt.want) {
				t.Errorf("Register() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	r := NewRegistry(nil)

	dev := testDevice("d1", DomainLight)
	dev.State = map[string]any{"on": true}
	dev.Metadata = map[string]any{"room": "salon"}
	if err := r.Register(dev); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	got, _ := r.Get("d1")
	got.State["on"] = false
	got.Metadata["room"] = "cuisine"
	got.Capabilities[CapOnOff] = false

	fresh, _ := r.Get("d1")
	if fresh.State["on"] != true {
		t.Error("mutation of returned state leaked into the registry")
	}
	if fresh.Metadata["room"] != "salon" {
		t.Error("mutation of returned metadata leaked into the registry")
	}
	if !fresh.Capabilities[CapOnOff] {
		t.Error("mutation of returned capabilities leaked into the registry")
	}
}

func TestUpdateStateReinfersCapabilities(t *testing.T) {
	r := NewRegistry(nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	dev := testDevice("d1", DomainLight)
	dev.State = map[string]any{"on": true}
	if err := r.Register(dev); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	r.now = func() time.Time { return base.Add(time.Minute) }
	if err := r.UpdateState("d1", map[string]any{"on": true, "bri": 180, "hue": 90}); err != nil {
		t.Fatalf("UpdateState() error: %v", err)
	}

	got, _ := r.Get("d1")
	if !got.Capabilities[CapBrightness] || !got.Capabilities[CapColor] {
		t.Errorf("capabilities not re-inferred: %v", got.Capabilities)
	}
	if !got.LastSeen.Equal(base.Add(time.Minute)) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, base.Add(time.Minute))
	}

	if err := r.UpdateState("missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryFilters(t *testing.T) {
	r := NewRegistry(nil)

	lamp := testDevice("lamp", DomainLight)
	lamp.State = map[string]any{"on": true, "bri": 100}
	plug := testDevice("plug", DomainSwitch)
	sensor := testDevice("sensor", DomainSensor)
	sensor.Protocol = "http"

	for _, d := range []*Device{lamp, plug, sensor} {
		if err := r.Register(d); err != nil {
			t.Fatalf("Register(%s) error: %v", d.ID, err)
		}
	}

	if got := len(r.ByDomain(DomainLight)); got != 1 {
		t.Errorf("ByDomain(light) = %d devices, want 1", got)
	}
	if got := len(r.ByProtocol("mqtt")); got != 2 {
		t.Errorf("ByProtocol(mqtt) = %d devices, want 2", got)
	}
	if got := r.ByCapability(CapBrightness); len(got) != 1 || got[0].ID != "lamp" {
		t.Errorf("ByCapability(%s) = %v", CapBrightness, got)
	}
	if got := len(r.List()); got != 3 {
		t.Errorf("List() = %d devices, want 3", got)
	}

	stats := r.GetStats()
	if stats.TotalDevices != 3 {
		t.Errorf("TotalDevices = %d", stats.TotalDevices)
	}
	if stats.ByProtocol["http"] != 1 {
		t.Errorf("ByProtocol[http] = %d", stats.ByProtocol["http"])
	}
	if stats.ByDomain[DomainSwitch] != 1 {
		t.Errorf("ByDomain[switch] = %d", stats.ByDomain[DomainSwitch])
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Register(testDevice("d1", DomainGeneric)); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := r.Remove("d1"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after removal", r.Count())
	}
	if err := r.Remove("d1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
