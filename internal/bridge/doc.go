// Package bridge connects the appliance sessions to the MQTT host
// transport.
//
// # Topics
//
// One retained state topic per appliance channel, one command topic per
// channel, plus per-appliance availability and discovery documents:
//
//	appliancelink/state/{haId}/{channel}     retained channel values
//	appliancelink/command/{haId}/{channel}   inbound commands
//	appliancelink/availability/{haId}        retained online/offline
//	appliancelink/discovery/{haId}           retained channel inventory
//
// # Payloads
//
// State and command payloads share a small JSON envelope with a type
// discriminator (string, onoff, quantity, undefined):
//
//	{"type": "quantity", "value": 176, "unit": "°C", "timestamp": "..."}
//	{"type": "onoff", "value": "on"}
//	{"type": "string", "value": "Cooking.Oven.Program.HeatingMode.HotAir"}
//
// # Failure policy
//
// Inbound messages that cannot be parsed are logged and dropped, one bad
// host must not take down the command subscription. Outbound history and
// telemetry writes are best-effort side channels; only MQTT publication
// failures are considered errors, and those too are absorbed after
// logging because a value will be republished on the next change.
package bridge
