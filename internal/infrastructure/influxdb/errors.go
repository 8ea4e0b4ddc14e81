package influxdb

import "errors"

// Sentinel errors for telemetry operations; match with errors.Is.
var (
	// ErrDisabled means the config has InfluxDB turned off. Telemetry is
	// optional, so callers treat this as "run without it".
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrNotConnected     = errors.New("influxdb: not connected")
)
