// Package appliance implements the per-device state synchronisation engine
// at the heart of ApplianceLink.
//
// Each registered appliance gets a Session: a composition of the Device
// State Mirror (the local image of the appliance's operable state), an
// immutable table of event and channel-update handlers derived from the
// appliance kind, the appliance API client and the channel value sink.
//
// # Update sources
//
// Two independent producers mutate a mirror:
//
//   - the push event stream, reconciled by the event handlers
//     (events.go) in strict arrival order, and
//   - on-demand or periodic polling, reconciled by the update handlers
//     (updates.go).
//
// Both paths apply the same value mapping; only event handlers carry the
// cascade rules (a finished program forces progress to 100 %, leaving
// power-on invalidates the program channels, and so on). User commands go
// the other way: HandleCommand (commands.go) translates them into outbound
// API calls, gated on the appliance's operation state.
//
// # Concurrency
//
// All mirror access for one appliance is serialised behind the session
// mutex; sessions for different appliances are fully independent. Handler
// tables are built once at construction and never mutated, so dispatch
// needs no locking of its own.
//
// # Failure policy
//
// No failure in this package is fatal. API communication errors and unit
// conversion errors are logged and the triggering command or poll is
// dropped, leaving the affected channels at their previous values. Unknown
// event and option keys are ignored for forward compatibility.
package appliance
