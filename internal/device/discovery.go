package device

// DiscoveryConfig is the Home Assistant MQTT discovery payload published on
// homeassistant/{domain}/{id}/config for a registered device. The consumer is
// external; only the payload shape is owned here.
type DiscoveryConfig struct {
	Device            DiscoveryDevice `json:"device"`
	StateTopic        string          `json:"state_topic"`
	CommandTopic      string          `json:"command_topic,omitempty"`
	AvailabilityTopic string          `json:"availability_topic,omitempty"`
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	Platform          string          `json:"platform"`
	DeviceClass       string          `json:"device_class,omitempty"`
}

// DiscoveryDevice is the nested device block of a discovery payload.
type DiscoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

// DiscoveryMessage builds the discovery payload for a device.
//
// Parameters:
//   - dev: the registered device
//   - stateTopic: topic the device's state is published on
//   - commandTopic: topic commands are accepted on (empty for read-only
//     domains)
//   - availabilityTopic: topic the bridge availability is published on
func DiscoveryMessage(dev Device, stateTopic, commandTopic, availabilityTopic string) DiscoveryConfig {
	return DiscoveryConfig{
		Device: DiscoveryDevice{
			Identifiers:  []string{dev.ID},
			Manufacturer: dev.Manufacturer,
			Model:        dev.Model,
			Name:         dev.Name,
		},
		StateTopic:        stateTopic,
		CommandTopic:      commandTopic,
		AvailabilityTopic: availabilityTopic,
		Name:              dev.Name,
		UniqueID:          dev.ID,
		Platform:          "mqtt",
		DeviceClass:       dev.Type,
	}
}
