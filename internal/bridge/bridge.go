package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
	"github.com/homefleet/appliancelink/internal/infrastructure/mqtt"
)

// timeNow is swapped in tests for deterministic timestamps.
var timeNow = time.Now

// Subscriber is the inbound MQTT surface the bridge needs.
// Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandRouter dispatches a decoded command to the owning session.
// Satisfied by *appliance.Manager.
type CommandRouter interface {
	HandleCommand(ctx context.Context, haID string, ch appliance.Channel, cmd appliance.Command) error
}

// ConnectivityTelemetry records reachability transitions in the time-series
// store. Satisfied by *influxdb.Client.
type ConnectivityTelemetry interface {
	WriteConnectivity(haID string, connected bool)
}

// ConnectivityStore persists the connected flag in the appliance registry.
// Satisfied by *registry.SQLiteRepository.
type ConnectivityStore interface {
	SetConnected(ctx context.Context, haID string, connected bool) error
}

// Bridge binds the MQTT command namespace to the session manager and
// publishes the per-appliance availability and discovery documents.
//
// State publication flows through the Sink, not the bridge: sessions push
// values as they compute them, while the bridge only handles the inbound
// command direction and the metadata topics.
type Bridge struct {
	subscriber Subscriber
	publisher  Publisher
	router     CommandRouter
	telemetry  ConnectivityTelemetry
	store      ConnectivityStore
	logger     Logger
	qos        byte
}

// Options holds the dependencies for creating a bridge.
// Telemetry, Store, and Logger are optional.
type Options struct {
	Subscriber Subscriber
	Publisher  Publisher
	Router     CommandRouter
	Telemetry  ConnectivityTelemetry
	Store      ConnectivityStore
	Logger     Logger
	QoS        byte
}

// New creates a bridge. Call Start to begin consuming commands.
func New(opts Options) *Bridge {
	return &Bridge{
		subscriber: opts.Subscriber,
		publisher:  opts.Publisher,
		router:     opts.Router,
		telemetry:  opts.Telemetry,
		store:      opts.Store,
		logger:     opts.Logger,
		qos:        opts.QoS,
	}
}

// Start subscribes to the command namespace. The subscription survives
// broker reconnects; ctx bounds command handling, not the subscription.
func (b *Bridge) Start(ctx context.Context) error {
	topic := mqtt.Topics{}.AllCommands()
	err := b.subscriber.Subscribe(topic, b.qos, func(topic string, payload []byte) error {
		return b.handleCommand(ctx, topic, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}
	return nil
}

// handleCommand decodes one inbound command message and routes it.
//
// Malformed topics and payloads are logged and dropped; a bad message from
// one host must not disturb the subscription. Unknown appliances are
// dropped quietly since retained commands can outlive a deregistration.
func (b *Bridge) handleCommand(ctx context.Context, topic string, payload []byte) error {
	haID, channel, err := mqtt.Topics{}.ParseCommand(topic)
	if err != nil {
		b.logWarn("dropping command with malformed topic", "topic", topic, "error", err)
		return nil
	}

	cmd, err := decodeCommand(payload)
	if err != nil {
		b.logWarn("dropping malformed command payload",
			"ha_id", haID,
			"channel", channel,
			"error", err)
		return nil
	}

	if err := b.router.HandleCommand(ctx, haID, appliance.Channel(channel), cmd); err != nil {
		b.logWarn("dropping command for unknown appliance",
			"ha_id", haID,
			"channel", channel,
			"error", err)
	}
	return nil
}

// PublishAvailability publishes the retained availability document for one
// appliance. Called on registration and on connectivity transitions.
func (b *Bridge) PublishAvailability(haID string, online bool) error {
	payload, err := encodeAvailability(online, timeNow())
	if err != nil {
		return fmt.Errorf("encoding availability: %w", err)
	}

	topic := mqtt.Topics{}.Availability(haID)
	if err := b.publisher.Publish(topic, payload, b.qos, true); err != nil {
		return fmt.Errorf("publishing availability: %w", err)
	}
	return nil
}

// HandleConnectivity propagates one reachability transition: the retained
// availability document, the connectivity measurement, and the stored
// connected flag. Telemetry and store failures are logged and absorbed so
// one sink cannot block the others; only a publish failure is returned.
func (b *Bridge) HandleConnectivity(ctx context.Context, haID string, online bool) error {
	err := b.PublishAvailability(haID, online)

	if b.telemetry != nil {
		b.telemetry.WriteConnectivity(haID, online)
	}
	if b.store != nil {
		if storeErr := b.store.SetConnected(ctx, haID, online); storeErr != nil {
			b.logWarn("persisting connectivity failed", "ha_id", haID, "error", storeErr)
		}
	}
	return err
}

// PublishDiscovery publishes the retained discovery document for one
// appliance so hosts can build their channel registry without static
// configuration.
func (b *Bridge) PublishDiscovery(meta appliance.Appliance, channels []appliance.Channel) error {
	payload, err := encodeDiscovery(meta, channels)
	if err != nil {
		return fmt.Errorf("encoding discovery: %w", err)
	}

	topic := mqtt.Topics{}.Discovery(meta.HaID)
	if err := b.publisher.Publish(topic, payload, b.qos, true); err != nil {
		return fmt.Errorf("publishing discovery: %w", err)
	}
	return nil
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
