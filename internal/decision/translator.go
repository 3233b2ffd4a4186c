package decision

// Command is a transport-ready device command derived from a Decision.
type Command struct {
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}

// Translate maps a Decision to a device command via the fixed
// action→payload table. Unmapped actions translate to an empty payload:
// the transport decides whether that is meaningful.
//
// Payload parameters are read from the decision:
//   - set_brightness uses Parameters["brightness"]
//   - set_color uses Parameters["hue"] and Parameters["sat"]
//   - set_temperature uses Parameters["temperature"]
//   - set_position uses Parameters["position"]
func Translate(decision Decision) Command {
	payload := map[string]any{}

	switch decision.Action {
	case "turn_on":
		payload["on"] = true
	case "turn_off":
		payload["on"] = false
	case "toggle":
		payload["toggle"] = true
	case "set_brightness":
		payload["bri"] = decision.Parameters["brightness"]
	case "set_color":
		payload["hue"] = decision.Parameters["hue"]
		payload["sat"] = decision.Parameters["sat"]
	case "set_temperature":
		payload["temperature"] = decision.Parameters["temperature"]
	case "set_position":
		payload["position"] = decision.Parameters["position"]
	case "query_status":
		payload["query"] = "status"
	case "activate_scene":
		payload["scene"] = decision.Parameters["scene_name"]
	}

	return Command{
		DeviceID:   decision.Target,
		Command:    decision.Action,
		Parameters: map[string]any{"payload": payload},
	}
}
