package device

import (
	"fmt"

	"github.com/luminahome/lumina-core/internal/protocol"
	"github.com/luminahome/lumina-core/internal/protocol/mqtt"
)

// WireCommand adapts a generic device command to the transport's SendCommand
// convention. Each transport maps the (command, parameters) pair uniformly
// but differently:
//
//   - MQTT: the topic is the command. The generic command name is replaced
//     with the device's command topic; the parameters (payload envelope, qos,
//     retain) pass through unchanged.
//   - HTTP: the verb is the command. The method and URL come from the
//     device's metadata ("method", defaulting to POST, and "url", required);
//     the payload becomes the request body.
//   - Everything else (WebSocket included) takes the generic command and
//     parameters as-is.
//
// Parameters:
//   - proto: the transport the command will be sent on
//   - dev: the target device; metadata drives the HTTP mapping
//   - command: the generic command name (turn_on, set_brightness, ...)
//   - parameters: the translated parameters, payload under "payload"
//
// Returns:
//   - string: the transport-level command (topic, verb, or the name itself)
//   - map[string]any: the transport-level parameters
//   - error: ErrInvalidDevice when the HTTP mapping lacks a URL
func WireCommand(proto protocol.Protocol, dev *Device, command string, parameters map[string]any) (string, map[string]any, error) {
	switch proto.Name() {
	case "mqtt":
		return mqtt.Topics{}.Command(dev.ID), parameters, nil

	case "http":
		url, _ := dev.Metadata["url"].(string)
		if url == "" {
			return "", nil, fmt.Errorf("%w: device %q has no url metadata for http transport", ErrInvalidDevice, dev.ID)
		}
		method, _ := dev.Metadata["method"].(string)
		if method == "" {
			method = "POST"
		}

		params := map[string]any{
			"url":  url,
			"body": parameters["payload"],
		}
		if headers, ok := dev.Metadata["headers"].(map[string]any); ok {
			params["headers"] = headers
		}
		return method, params, nil

	default:
		return command, parameters, nil
	}
}
