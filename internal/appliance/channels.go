package appliance

import "fmt"

// Channel identifies one externally observable or settable attribute of an
// appliance. Channel identifiers are stable and appear in MQTT topics.
type Channel string

// Channels shared across appliance kinds, plus the oven-specific ones.
const (
	ChannelOperationState      Channel = "operation_state"
	ChannelPowerState          Channel = "power_state"
	ChannelDoorState           Channel = "door_state"
	ChannelRemoteControlActive Channel = "remote_control_active"
	ChannelRemoteStartAllowed  Channel = "remote_start_allowed"
	ChannelSelectedProgram     Channel = "selected_program"
	ChannelActiveProgram       Channel = "active_program"
	ChannelRemainingTime       Channel = "remaining_time"
	ChannelProgress            Channel = "program_progress"
	ChannelElapsedTime         Channel = "elapsed_time"
	ChannelDuration            Channel = "duration"
	ChannelSetpointTemperature Channel = "setpoint_temperature"
	ChannelCavityTemperature   Channel = "cavity_temperature"
	ChannelBasicAction         Channel = "basic_action"
)

// Unit is the semantic physical unit attached to a quantity value.
type Unit string

// Units used by channel values.
const (
	UnitCelsius    Unit = "°C"
	UnitFahrenheit Unit = "°F"
	UnitSeconds    Unit = "seconds"
	UnitPercent    Unit = "%"
)

// ValueKind tags the variants of a channel Value.
type ValueKind int

// Value variants.
const (
	ValueUndefined ValueKind = iota
	ValueQuantity
	ValueString
	ValueBool
)

// Value is the externally visible representation of one channel: either
// Undefined or a defined quantity, string or boolean payload. Values are
// comparable with ==; the zero Value is Undefined.
type Value struct {
	Kind   ValueKind
	Number int
	Unit   Unit
	Text   string
	Bool   bool
}

// Undefined returns the "not applicable" channel value.
func Undefined() Value { return Value{} }

// QuantityValue returns a defined numeric value with its unit.
func QuantityValue(n int, u Unit) Value {
	return Value{Kind: ValueQuantity, Number: n, Unit: u}
}

// StringValue returns a defined textual value.
func StringValue(s string) Value {
	return Value{Kind: ValueString, Text: s}
}

// BoolValue returns a defined boolean value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// Defined reports whether the value carries a payload.
func (v Value) Defined() bool { return v.Kind != ValueUndefined }

// String renders the value for logs and diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case ValueQuantity:
		return fmt.Sprintf("%d %s", v.Number, v.Unit)
	case ValueString:
		return v.Text
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "undefined"
	}
}
