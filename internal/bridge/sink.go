package bridge

import (
	"context"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
	"github.com/homefleet/appliancelink/internal/infrastructure/mqtt"
)

// Publisher is the outbound MQTT surface the sink needs.
// Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Recorder persists channel value changes.
// Satisfied by *history.SQLiteRepository.
type Recorder interface {
	Record(ctx context.Context, haID, channel, value string) error
}

// Telemetry receives numeric channel readings.
// Satisfied by *influxdb.Client.
type Telemetry interface {
	WriteChannelMetric(haID string, channel string, value float64, unit string)
}

// Logger is a minimal logging interface to avoid circular dependencies.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Sink fans each computed channel value out to the host transport, the
// history store and telemetry. It implements appliance.Sink.
//
// MQTT publication is retained so hosts joining late see current state.
// History and telemetry are best-effort: failures are logged, never
// propagated, and never block publication.
type Sink struct {
	publisher Publisher
	recorder  Recorder
	telemetry Telemetry
	logger    Logger
	qos       byte

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// SinkOptions holds the dependencies for creating a sink.
// Recorder, Telemetry and Logger are optional.
type SinkOptions struct {
	Publisher Publisher
	Recorder  Recorder
	Telemetry Telemetry
	Logger    Logger
	QoS       byte
}

// NewSink creates a channel value sink.
func NewSink(opts SinkOptions) *Sink {
	return &Sink{
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		qos:       opts.QoS,
		now:       time.Now,
	}
}

// UpdateState publishes one channel value and records it.
func (s *Sink) UpdateState(haID string, ch appliance.Channel, v appliance.Value) {
	payload, err := encodeState(v, s.now())
	if err != nil {
		s.logError("encoding state payload", haID, ch, err)
		return
	}

	topic := mqtt.Topics{}.State(haID, string(ch))
	if err := s.publisher.Publish(topic, payload, s.qos, true); err != nil {
		s.logError("publishing state", haID, ch, err)
	}

	if s.recorder != nil {
		// History keeps the rendered value; Undefined records as such so
		// gaps in applicability stay visible.
		if err := s.recorder.Record(context.Background(), haID, string(ch), v.String()); err != nil {
			s.logError("recording history", haID, ch, err)
		}
	}

	if s.telemetry != nil && v.Kind == appliance.ValueQuantity {
		s.telemetry.WriteChannelMetric(haID, string(ch), float64(v.Number), string(v.Unit))
	}
}

func (s *Sink) logError(msg, haID string, ch appliance.Channel, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error(msg, "ha_id", haID, "channel", ch, "error", err)
}
