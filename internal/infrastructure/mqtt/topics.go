package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the ApplianceLink MQTT namespace.
//
// All appliance topics use the flat scheme:
//
//	appliancelink/{category}/{haId}/{channel}
//
// haId is the opaque appliance identifier from the cloud listing; channel is
// a stable channel name such as "operation_state" or "setpoint_temperature".
const (
	// TopicPrefix is the base for all ApplianceLink topics.
	TopicPrefix = "appliancelink"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "appliancelink/system"
)

// Topics provides builders for ApplianceLink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("BOSCH-HCS01OVN1-0000000000AA", "operation_state")
//	// Returns: "appliancelink/state/BOSCH-HCS01OVN1-0000000000AA/operation_state"
type Topics struct{}

// State returns the topic carrying one channel's value for one appliance.
// State topics are published retained so late subscribers see current state.
//
// Example: appliancelink/state/BOSCH-HCS01OVN1-0000000000AA/operation_state
func (Topics) State(haID, channel string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, haID, channel)
}

// Command returns the topic carrying inbound user commands for one channel.
//
// Example: appliancelink/command/BOSCH-HCS01OVN1-0000000000AA/basic_action
func (Topics) Command(haID, channel string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, haID, channel)
}

// Availability returns the reachability topic for one appliance.
//
// Example: appliancelink/availability/BOSCH-HCS01OVN1-0000000000AA
func (Topics) Availability(haID string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, haID)
}

// Discovery returns the topic announcing registered appliances and their
// metadata (name, brand, type).
//
// Example: appliancelink/discovery/BOSCH-HCS01OVN1-0000000000AA
func (Topics) Discovery(haID string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefix, haID)
}

// SystemStatus returns the service status topic, used for the online/offline
// last-will message.
//
// Example: appliancelink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllCommands returns a pattern matching every inbound command topic.
//
// Pattern: appliancelink/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// ParseCommand extracts the haId and channel from a command topic.
// Returns an error for topics outside the command namespace.
func (Topics) ParseCommand(topic string) (haID, channel string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "command" {
		return "", "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q has empty segments", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}
