package device

import (
	"reflect"
	"testing"
)

func TestInferCapabilities(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
		state  map[string]any
		want   map[string]bool
	}{
		{
			name:   "dimmable light without colour",
			domain: DomainLight,
			state:  map[string]any{"bri": 120},
			want: map[string]bool{
				CapColor:      false,
				CapBrightness: true,
				CapColorTemp:  false,
				CapOnOff:      false,
			},
		},
		{
			name:   "full colour light",
			domain: DomainLight,
			state:  map[string]any{"on": true, "bri": 200, "hue": 120, "ct": 366},
			want: map[string]bool{
				CapColor:      true,
				CapBrightness: true,
				CapColorTemp:  true,
				CapOnOff:      true,
			},
		},
		{
			name:   "xy colour implies has_color",
			domain: DomainLight,
			state:  map[string]any{"xy": []any{0.4, 0.4}},
			want: map[string]bool{
				CapColor:      true,
				CapBrightness: false,
				CapColorTemp:  false,
				CapOnOff:      false,
			},
		},
		{
			name:   "switch always toggles",
			domain: DomainSwitch,
			state:  map[string]any{"on": false},
			want: map[string]bool{
				CapOnOff:  true,
				CapToggle: true,
			},
		},
		{
			name:   "multi sensor",
			domain: DomainSensor,
			state:  map[string]any{"temperature": 21.5, "humidity": 40},
			want: map[string]bool{
				CapMeasurements: true,
				CapTemperature:  true,
				CapHumidity:     true,
				CapPressure:     false,
				CapIlluminance:  false,
			},
		},
		{
			name:   "sensor with empty state has no measurements",
			domain: DomainSensor,
			state:  map[string]any{},
			want: map[string]bool{
				CapMeasurements: false,
				CapTemperature:  false,
				CapHumidity:     false,
				CapPressure:     false,
				CapIlluminance:  false,
			},
		},
		{
			name:   "cover always stops",
			domain: DomainCover,
			state:  map[string]any{"position": 50},
			want: map[string]bool{
				CapPosition: true,
				CapTilt:     false,
				CapStop:     true,
			},
		},
		{
			name:   "climate",
			domain: DomainClimate,
			state:  map[string]any{"temperature": 21.5, "mode": "heat"},
			want: map[string]bool{
				CapTemperature: true,
				CapMode:        true,
				CapFanSpeed:    false,
				CapSwing:       false,
			},
		},
		{
			name:   "generic falls back to on_off",
			domain: DomainGeneric,
			state:  map[string]any{"on": true},
			want:   map[string]bool{CapOnOff: true},
		},
		{
			name:   "media player uses the generic profile",
			domain: DomainMediaPlayer,
			state:  map[string]any{"volume": 30},
			want:   map[string]bool{CapOnOff: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCapabilities(tt.domain, map[string]any{"state": tt.state})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InferCapabilities() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInferCapabilitiesNilData(t *testing.T) {
	got := InferCapabilities(DomainLight, nil)
	if got == nil {
		t.Fatal("expected non-nil capability map")
	}
	for cap, present := range got {
		if present {
			t.Errorf("capability %s inferred from nil data", cap)
		}
	}
}

func TestParseDomain(t *testing.T) {
	for _, d := range AllDomains() {
		got, err := ParseDomain(string(d))
		if err != nil {
			t.Errorf("ParseDomain(%q) unexpected error: %v", d, err)
		}
		if got != d {
			t.Errorf("ParseDomain(%q) = %q", d, got)
		}
	}

	if _, err := ParseDomain("thermostat"); err == nil {
		t.Error("expected error for domain outside the closed set")
	}
}
