package decision

import (
	"reflect"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		want     map[string]any
	}{
		{
			name:     "turn_on",
			decision: Decision{Action: "turn_on", Target: "light-living"},
			want:     map[string]any{"on": true},
		},
		{
			name:     "turn_off",
			decision: Decision{Action: "turn_off", Target: "light-living"},
			want:     map[string]any{"on": false},
		},
		{
			name: "set_brightness",
			decision: Decision{
				Action:     "set_brightness",
				Target:     "light-living",
				Parameters: map[string]any{"brightness": 120},
			},
			want: map[string]any{"bri": 120},
		},
		{
			name: "set_color",
			decision: Decision{
				Action:     "set_color",
				Target:     "light-living",
				Parameters: map[string]any{"hue": 200, "sat": 80},
			},
			want: map[string]any{"hue": 200, "sat": 80},
		},
		{
			name:     "query_status",
			decision: Decision{Action: "query_status", Target: "all_devices"},
			want:     map[string]any{"query": "status"},
		},
		{
			name:     "unmapped action yields empty payload",
			decision: Decision{Action: "defragment", Target: "light-living"},
			want:     map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Translate(tt.decision)

			if cmd.DeviceID != tt.decision.Target {
				t.Errorf("DeviceID = %q, want %q", cmd.DeviceID, tt.decision.Target)
			}
			if cmd.Command != tt.decision.Action {
				t.Errorf("Command = %q, want %q", cmd.Command, tt.decision.Action)
			}

			payload, ok := cmd.Parameters["payload"].(map[string]any)
			if !ok {
				t.Fatalf("payload type = %T, want map[string]any", cmd.Parameters["payload"])
			}
			if !reflect.DeepEqual(payload, tt.want) {
				t.Errorf("payload = %v, want %v", payload, tt.want)
			}
		})
	}
}
