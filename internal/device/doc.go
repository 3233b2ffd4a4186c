// Package device provides the device catalogue for Lumina Core.
//
// A Device is the one long-lived mutable record in the system: it is created
// on discovery, refreshed on every state report, and timestamped via LastSeen.
// Its capability map is inferred from the raw transport state and is the
// contract downstream consumers (decision translation, typed controls) rely
// on.
//
// # Key Types
//
//   - Device: the catalogue record (id, protocol, name, type, capabilities,
//     model, manufacturer, last_seen, metadata)
//   - Domain: closed functional classification (sensor, binary_sensor, light,
//     switch, cover, climate, media_player, mqtt, generic)
//   - Registry: explicit in-memory catalogue, constructed at startup and
//     passed by reference into the components that need it
//   - Control and its specialisations (Light, Switch, Sensor, Cover,
//     Climate, Generic): typed operations over a transport Protocol
//
// # Capability Inference
//
// InferCapabilities maps a domain plus raw device data to a boolean
// capability map. Inference is purely structural: the presence of a field in
// the reported state implies the capability. A light reporting
// state={"bri": 120} therefore has has_brightness=true and, lacking hue/xy,
// has_color=false.
//
// # Dispatch
//
// Picking a typed control for a device goes through a single dispatch table
// keyed by Domain. There is no string matching at call sites and no global
// registry; unknown domains are rejected at parse time by ParseDomain.
//
// Controls send generic commands; WireCommand adapts them to each
// transport's SendCommand convention (topic for MQTT, verb plus URL from
// device metadata for HTTP, pass-through otherwise).
//
// # Usage
//
//	registry := device.NewRegistry(log)
//	dev := &device.Device{
//		ID:       "light-salon",
//		Name:     "Lumière du salon",
//		Domain:   device.DomainLight,
//		Protocol: "mqtt",
//	}
//	if err := registry.Register(dev); err != nil {
//	    return err
//	}
//
//	// Refresh from a transport state report; capabilities are re-inferred.
//	registry.UpdateState("light-salon", map[string]any{"on": true, "bri": 120})
//
//	// Typed control over a transport.
//	ctrl, _ := registry.Control("light-salon", transport)
//	light := ctrl.(*device.Light)
//	light.SetBrightness(ctx, 120)
//
// # Thread Safety
//
// The Registry is safe for concurrent use; all operations are protected by a
// read-write mutex and devices cross the API boundary as deep copies.
package device
