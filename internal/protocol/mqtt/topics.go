package mqtt

import "fmt"

// Topic prefixes for the Lumina MQTT hierarchy.
//
// Lumina topics use the flat scheme: lumina/{category}/{device_id}
// Home Assistant discovery topics follow HA's convention:
// homeassistant/{domain}/{object_id}/{suffix}
const (
	// TopicPrefixLumina is the base for all Lumina topics.
	TopicPrefixLumina = "lumina"

	// TopicPrefixDiscovery is the Home Assistant discovery prefix.
	TopicPrefixDiscovery = "homeassistant"
)

// Topics provides builders for Lumina and Home Assistant MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.Command("light-living")
//	// Returns: "lumina/command/light-living"
type Topics struct{}

// Command returns the topic for commands to a device.
//
// Example: lumina/command/light-living
func (Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefixLumina, deviceID)
}

// State returns the topic for state updates from a device.
//
// Example: lumina/state/light-living
func (Topics) State(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefixLumina, deviceID)
}

// StateAll returns the wildcard subscription matching every device state topic.
//
// Example: lumina/state/+
func (Topics) StateAll() string {
	return fmt.Sprintf("%s/state/+", TopicPrefixLumina)
}

// Intent returns the topic for raw intent text submitted over MQTT.
//
// Example: lumina/intent/kitchen-panel
func (Topics) Intent(source string) string {
	return fmt.Sprintf("%s/intent/%s", TopicPrefixLumina, source)
}

// IntentAll returns the wildcard subscription matching every intent source.
//
// Example: lumina/intent/+
func (Topics) IntentAll() string {
	return fmt.Sprintf("%s/intent/+", TopicPrefixLumina)
}

// Decision returns the topic on which executed decisions are announced.
//
// Example: lumina/decision/light-living
func (Topics) Decision(deviceID string) string {
	return fmt.Sprintf("%s/decision/%s", TopicPrefixLumina, deviceID)
}

// Health returns the topic for core health status.
//
// Example: lumina/health/core
func (Topics) Health(component string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixLumina, component)
}

// DiscoveryConfig returns the Home Assistant discovery config topic for a
// device in the given HA domain (light, switch, sensor, cover, climate).
//
// Example: homeassistant/light/light-living/config
func (Topics) DiscoveryConfig(domain, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/config", TopicPrefixDiscovery, domain, objectID)
}

// DiscoveryState returns the Home Assistant state topic for a device.
//
// Example: homeassistant/light/light-living/state
func (Topics) DiscoveryState(domain, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/state", TopicPrefixDiscovery, domain, objectID)
}

// DiscoveryAvailability returns the Home Assistant availability topic for a
// device.
//
// Example: homeassistant/light/light-living/availability
func (Topics) DiscoveryAvailability(domain, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/availability", TopicPrefixDiscovery, domain, objectID)
}
