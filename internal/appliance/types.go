package appliance

import "strings"

// Kind identifies the appliance family a session is built for.
// Each kind carries its own channel and event handler registrations
// (see profiles.go).
type Kind string

// Supported appliance kinds. The values match the `type` field reported
// by the appliance listing endpoint.
const (
	KindOven          Kind = "Oven"
	KindCoffeeMaker   Kind = "CoffeeMaker"
	KindDishwasher    Kind = "Dishwasher"
	KindWasher        Kind = "Washer"
	KindDryer         Kind = "Dryer"
	KindFridgeFreezer Kind = "FridgeFreezer"
	KindHood          Kind = "Hood"
)

// KindForType maps the appliance type string from the cloud listing onto a
// supported Kind. The second result is false for unsupported types.
func KindForType(apiType string) (Kind, bool) {
	switch Kind(apiType) {
	case KindOven, KindCoffeeMaker, KindDishwasher, KindWasher,
		KindDryer, KindFridgeFreezer, KindHood:
		return Kind(apiType), true
	default:
		return "", false
	}
}

// Appliance is the metadata record returned by the appliance listing.
// Identity is the haId alone; all other fields are descriptive.
type Appliance struct {
	HaID      string `json:"haId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	VIB       string `json:"vib"`
	ENumber   string `json:"enumber"`
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// Option is a single named value, with unit, attached to a program.
// Options are immutable once constructed.
type Option struct {
	Key   string
	Value int
	Unit  string
}

// Program is a named operating mode together with its reported options.
// Two slots exist per appliance: the selected program (configured, not yet
// running) and the active program (currently executing).
type Program struct {
	Key     string
	Options []Option
}

// Option returns the first option with the given key, if present.
func (p Program) Option(key string) (Option, bool) {
	for _, o := range p.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Wire keys used by the appliance cloud API. Statuses, settings, program
// options and push events all share this key space.
const (
	KeyOperationState      = "BSH.Common.Status.OperationState"
	KeyDoorState           = "BSH.Common.Status.DoorState"
	KeyRemoteControlActive = "BSH.Common.Status.RemoteControlActive"
	KeyRemoteStartAllowed  = "BSH.Common.Status.RemoteControlStartAllowed"
	KeyPowerState          = "BSH.Common.Setting.PowerState"
	KeySelectedProgram     = "BSH.Common.Root.SelectedProgram"
	KeyActiveProgram       = "BSH.Common.Root.ActiveProgram"
	KeyRemainingTime       = "BSH.Common.Option.RemainingProgramTime"
	KeyProgramProgress     = "BSH.Common.Option.ProgramProgress"
	KeyElapsedTime         = "BSH.Common.Option.ElapsedProgramTime"
	KeyDuration            = "BSH.Common.Option.Duration"
	KeySetpointTemperature = "Cooking.Oven.Option.SetpointTemperature"
	KeyCavityTemperature   = "Cooking.Oven.Status.CurrentCavityTemperature"

	// Connectivity pseudo-events delivered on the push stream.
	KeyConnected    = "CONNECTED"
	KeyDisconnected = "DISCONNECTED"
)

// OperationState is the discrete appliance lifecycle stage. The set is
// closed; unrecognised wire values are treated as unknown state.
type OperationState string

// Operation state values as reported on the wire.
const (
	OperationStateInactive     OperationState = "BSH.Common.EnumType.OperationState.Inactive"
	OperationStateReady        OperationState = "BSH.Common.EnumType.OperationState.Ready"
	OperationStateDelayedStart OperationState = "BSH.Common.EnumType.OperationState.DelayedStart"
	OperationStateRun          OperationState = "BSH.Common.EnumType.OperationState.Run"
	OperationStatePause        OperationState = "BSH.Common.EnumType.OperationState.Pause"
	OperationStateFinished     OperationState = "BSH.Common.EnumType.OperationState.Finished"
	OperationStateError        OperationState = "BSH.Common.EnumType.OperationState.Error"
	OperationStateAborting     OperationState = "BSH.Common.EnumType.OperationState.Aborting"
)

// ParseOperationState maps a raw wire value onto the closed operation state
// set. The second result is false for values outside the set.
func ParseOperationState(value string) (OperationState, bool) {
	switch OperationState(value) {
	case OperationStateInactive, OperationStateReady, OperationStateDelayedStart,
		OperationStateRun, OperationStatePause, OperationStateFinished,
		OperationStateError, OperationStateAborting:
		return OperationState(value), true
	default:
		return "", false
	}
}

// Active reports whether a program is currently absorbing option changes
// live (a running, paused or delayed-start program).
func (s OperationState) Active() bool {
	switch s {
	case OperationStateDelayedStart, OperationStateRun, OperationStatePause:
		return true
	default:
		return false
	}
}

// Inactive reports whether the appliance is idle but able to accept
// configuration for a later run.
func (s OperationState) Inactive() bool {
	return s == OperationStateInactive || s == OperationStateReady
}

// AcceptsProgramOptions reports whether option changes (setpoint, duration)
// may be sent to the appliance in this state.
func (s OperationState) AcceptsProgramOptions() bool {
	return s.Active() || s.Inactive()
}

// PowerState is the appliance power setting.
type PowerState string

// Power state values as reported on the wire.
const (
	PowerOn      PowerState = "BSH.Common.EnumType.PowerState.On"
	PowerStandby PowerState = "BSH.Common.EnumType.PowerState.Standby"
	PowerOff     PowerState = "BSH.Common.EnumType.PowerState.Off"
)

// ParsePowerState maps a raw wire value onto the power state set.
func ParsePowerState(value string) (PowerState, bool) {
	switch PowerState(value) {
	case PowerOn, PowerStandby, PowerOff:
		return PowerState(value), true
	default:
		return "", false
	}
}

// ShortName returns the last dot-separated segment of a wire key or enum
// value, the human-readable form published on string channels
// ("BSH.Common.EnumType.OperationState.Run" becomes "Run").
func ShortName(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
