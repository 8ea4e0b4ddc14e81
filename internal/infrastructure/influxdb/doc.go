// Package influxdb is the optional time-series sink for appliance telemetry.
//
// Two measurements are written: channel_metrics carries numeric channel
// readings (setpoint, progress, remaining time) tagged by appliance and
// channel, and connectivity carries reachability transitions. Writes use
// the batched non-blocking API, so telemetry never delays event handling;
// batch failures surface through the SetOnError callback.
//
// InfluxDB is disabled by default in config.yaml. Connect returns
// ErrDisabled in that case and the service runs without telemetry.
package influxdb
