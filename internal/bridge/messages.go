package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
)

// Payload type discriminators shared by state and command messages.
const (
	payloadUndefined = "undefined"
	payloadString    = "string"
	payloadOnOff     = "onoff"
	payloadQuantity  = "quantity"
)

// statePayload is the JSON document published for one channel value.
type statePayload struct {
	Type      string `json:"type"`
	Value     any    `json:"value,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Timestamp string `json:"timestamp"`
}

// encodeState renders a channel value for publication.
func encodeState(v appliance.Value, now time.Time) ([]byte, error) {
	payload := statePayload{
		Type:      payloadUndefined,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	switch v.Kind {
	case appliance.ValueQuantity:
		payload.Type = payloadQuantity
		payload.Value = v.Number
		payload.Unit = string(v.Unit)
	case appliance.ValueString:
		payload.Type = payloadString
		payload.Value = v.Text
	case appliance.ValueBool:
		payload.Type = payloadOnOff
		if v.Bool {
			payload.Value = "on"
		} else {
			payload.Value = "off"
		}
	}

	return json.Marshal(payload)
}

// commandPayload is the JSON document accepted on command topics.
type commandPayload struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit"`
}

// decodeCommand parses a command message into the session-layer command.
//
// Accepted forms:
//
//	{"type": "string",   "value": "Cooking.Oven.Program.HeatingMode.HotAir"}
//	{"type": "onoff",    "value": "on"}
//	{"type": "quantity", "value": 350, "unit": "°F"}
//
// A bare JSON string is accepted as shorthand for a string command so that
// `mosquitto_pub -m '"start"'` works without the envelope.
func decodeCommand(payload []byte) (appliance.Command, error) {
	var shorthand string
	if err := json.Unmarshal(payload, &shorthand); err == nil {
		return appliance.StringCommand(shorthand), nil
	}

	var doc commandPayload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return appliance.Command{}, fmt.Errorf("decoding command payload: %w", err)
	}

	switch doc.Type {
	case payloadString:
		var text string
		if err := json.Unmarshal(doc.Value, &text); err != nil {
			return appliance.Command{}, fmt.Errorf("string command value: %w", err)
		}
		return appliance.StringCommand(text), nil

	case payloadOnOff:
		var state string
		if err := json.Unmarshal(doc.Value, &state); err != nil {
			// Booleans are accepted too.
			var b bool
			if err := json.Unmarshal(doc.Value, &b); err != nil {
				return appliance.Command{}, fmt.Errorf("onoff command value: %w", err)
			}
			return appliance.OnOffCommand(b), nil
		}
		switch state {
		case "on", "ON":
			return appliance.OnOffCommand(true), nil
		case "off", "OFF":
			return appliance.OnOffCommand(false), nil
		default:
			return appliance.Command{}, fmt.Errorf("onoff command value %q: want on or off", state)
		}

	case payloadQuantity:
		var value float64
		if err := json.Unmarshal(doc.Value, &value); err != nil {
			return appliance.Command{}, fmt.Errorf("quantity command value: %w", err)
		}
		return appliance.QuantityCommand(value, doc.Unit), nil

	default:
		return appliance.Command{}, fmt.Errorf("unknown command type %q", doc.Type)
	}
}

// availabilityPayload is published on availability topics.
type availabilityPayload struct {
	Online    bool   `json:"online"`
	Timestamp string `json:"timestamp"`
}

func encodeAvailability(online bool, now time.Time) ([]byte, error) {
	return json.Marshal(availabilityPayload{
		Online:    online,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// discoveryPayload describes one registered appliance for hosts that build
// their channel registry dynamically.
type discoveryPayload struct {
	HaID     string   `json:"haId"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

func encodeDiscovery(meta appliance.Appliance, channels []appliance.Channel) ([]byte, error) {
	doc := discoveryPayload{
		HaID:  meta.HaID,
		Name:  meta.Name,
		Brand: meta.Brand,
		Type:  meta.Type,
	}
	for _, ch := range channels {
		doc.Channels = append(doc.Channels, string(ch))
	}
	return json.Marshal(doc)
}
