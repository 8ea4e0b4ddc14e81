package appliance

import (
	"fmt"
	"strings"
)

// MapTemperature maps a device-reported temperature unit tag onto a semantic
// unit. The mapping is total: unrecognised tags fall back to Celsius so that
// event processing never stalls on firmware quirks. The second result is
// false for the fallback case so callers can log the unexpected tag.
func MapTemperature(tag string) (Unit, bool) {
	switch strings.TrimSpace(tag) {
	case "°C", "C", "Celsius":
		return UnitCelsius, true
	case "°F", "F", "Fahrenheit":
		return UnitFahrenheit, true
	default:
		return UnitCelsius, false
	}
}

// ConvertTemperature converts a commanded temperature quantity to the
// integer Celsius value and unit string the appliance API expects. Celsius
// passes through unchanged; Fahrenheit and Kelvin are converted. Any other
// unit is incommensurable with a temperature channel.
func ConvertTemperature(value float64, tag string) (int, Unit, error) {
	switch strings.TrimSpace(tag) {
	case "°C", "C", "Celsius":
		return int(value), UnitCelsius, nil
	case "°F", "F", "Fahrenheit":
		return int((value - 32) * 5 / 9), UnitCelsius, nil
	case "K", "Kelvin":
		return int(value - 273.15), UnitCelsius, nil
	default:
		return 0, "", fmt.Errorf("%w: %q is not a temperature unit", ErrIncommensurable, tag)
	}
}

// ConvertDuration converts a commanded time quantity to whole seconds.
// Durations on the wire are always seconds; there is no mapping ambiguity
// for time. Any non-time unit is incommensurable.
func ConvertDuration(value float64, tag string) (int, error) {
	switch strings.TrimSpace(tag) {
	case "s", "sec", "seconds":
		return int(value), nil
	case "min", "minutes":
		return int(value * 60), nil
	case "h", "hours":
		return int(value * 3600), nil
	default:
		return 0, fmt.Errorf("%w: %q is not a time unit", ErrIncommensurable, tag)
	}
}
