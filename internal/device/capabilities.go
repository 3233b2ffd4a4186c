package device

// Capability names populated by inference.
//
// These are the keys every Capabilities map may carry; which subset appears
// depends on the device's domain.
const (
	CapOnOff        = "has_on_off"
	CapBrightness   = "has_brightness"
	CapColor        = "has_color"
	CapColorTemp    = "has_ct"
	CapToggle       = "has_toggle"
	CapMeasurements = "has_measurements"
	CapTemperature  = "has_temperature"
	CapHumidity     = "has_humidity"
	CapPressure     = "has_pressure"
	CapIlluminance  = "has_illuminance"
	CapPosition     = "has_position"
	CapTilt         = "has_tilt"
	CapStop         = "has_stop"
	CapMode         = "has_mode"
	CapFanSpeed     = "has_fan_speed"
	CapSwing        = "has_swing"
)

// InferCapabilities derives a boolean capability map from raw device data.
//
// Inference is structural: the presence of a field in data["state"] implies
// the matching capability. Domains without a specialised profile fall back to
// the generic on/off check.
//
// Parameters:
//   - domain: the device's functional classification
//   - data: raw device data as reported by the transport; the "state" key
//     holds the state map
//
// Returns:
//   - Capability map, never nil
func InferCapabilities(domain Domain, data map[string]any) map[string]bool {
	state := rawState(data)

	switch domain {
	case DomainLight:
		return map[string]bool{
			CapColor:      hasKey(state, "hue") || hasKey(state, "xy"),
			CapBrightness: hasKey(state, "bri"),
			CapColorTemp:  hasKey(state, "ct"),
			CapOnOff:      hasKey(state, "on"),
		}

	case DomainSwitch:
		return map[string]bool{
			CapOnOff:  hasKey(state, "on"),
			CapToggle: true,
		}

	case DomainSensor, DomainBinarySensor:
		return map[string]bool{
			CapMeasurements: len(state) > 0,
			CapTemperature:  hasKey(state, "temperature"),
			CapHumidity:     hasKey(state, "humidity"),
			CapPressure:     hasKey(state, "pressure"),
			CapIlluminance:  hasKey(state, "illuminance"),
		}

	case DomainCover:
		return map[string]bool{
			CapPosition: hasKey(state, "position"),
			CapTilt:     hasKey(state, "tilt"),
			CapStop:     true,
		}

	case DomainClimate:
		return map[string]bool{
			CapTemperature: hasKey(state, "temperature"),
			CapMode:        hasKey(state, "mode"),
			CapFanSpeed:    hasKey(state, "fan_speed"),
			CapSwing:       hasKey(state, "swing"),
		}

	default:
		// media_player, mqtt and generic devices carry no structural profile
		// beyond on/off.
		return map[string]bool{
			CapOnOff: hasKey(state, "on"),
		}
	}
}

// rawState extracts the state map from raw device data.
func rawState(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	state, _ := data["state"].(map[string]any)
	return state
}

func hasKey(state map[string]any, key string) bool {
	_, ok := state[key]
	return ok
}
