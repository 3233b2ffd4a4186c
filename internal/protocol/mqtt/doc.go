// Package mqtt implements the Lumina protocol contract over MQTT.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Decoding inbound payloads (JSON if parseable, raw text otherwise)
//     into protocol.Message and feeding the observer notify path
//   - Device commands, where the MQTT topic IS the command
//
// # Architecture
//
// MQTT is the push-style transport: the paho client maintains a background
// receive loop and invokes our handlers for every inbound publish. Handlers
// convert payloads to protocol.Message and broadcast them to observers.
// Disconnect tears the receive path down cooperatively before the state
// machine reports DISCONNECTED.
//
// # Topics
//
// Command topics follow lumina/command/{device_id}; Home Assistant discovery
// topics follow homeassistant/{domain}/{id}/config|state|availability.
// See topics.go for the builders.
//
// # Usage
//
//	p := mqtt.New(cfg.MQTT, logger)
//	if err := p.Connect(ctx); err != nil {
//	    return err
//	}
//	defer p.Disconnect(context.Background())
//
//	p.Subscribe(ctx, mqtt.Topics{}.DeviceState("light-1"), 1)
//	result, _ := p.SendCommand(ctx, "light-1",
//	    mqtt.Topics{}.DeviceCommand("light-1"),
//	    map[string]any{"payload": map[string]any{"on": true}})
package mqtt
