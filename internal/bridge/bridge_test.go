package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/homefleet/appliancelink/internal/appliance"
	"github.com/homefleet/appliancelink/internal/infrastructure/mqtt"
)

// fakeBroker captures subscriptions and publications in-process.
type fakeBroker struct {
	published []publication
	handlers  map[string]mqtt.MessageHandler
	pubErr    error
}

type publication struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, publication{topic, string(payload), qos, retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.handlers[topic] = handler
	return nil
}

// deliver simulates an inbound message on a previously subscribed pattern.
func (f *fakeBroker) deliver(t *testing.T, pattern, topic string, payload string) {
	t.Helper()
	handler, ok := f.handlers[pattern]
	if !ok {
		t.Fatalf("no subscription for %q", pattern)
	}
	if err := handler(topic, []byte(payload)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
}

// fakeRouter records routed commands.
type fakeRouter struct {
	calls []routedCommand
	err   error
}

type routedCommand struct {
	haID    string
	channel appliance.Channel
	cmd     appliance.Command
}

func (f *fakeRouter) HandleCommand(_ context.Context, haID string, ch appliance.Channel, cmd appliance.Command) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, routedCommand{haID, ch, cmd})
	return nil
}

// countingLogger tallies log calls by level.
type countingLogger struct {
	debugs, warns, errs int
}

func (l *countingLogger) Debug(string, ...any) { l.debugs++ }
func (l *countingLogger) Warn(string, ...any)  { l.warns++ }
func (l *countingLogger) Error(string, ...any) { l.errs++ }

func newTestBridge(t *testing.T) (*Bridge, *fakeBroker, *fakeRouter, *countingLogger) {
	t.Helper()
	broker := newFakeBroker()
	router := &fakeRouter{}
	logger := &countingLogger{}
	b := New(Options{
		Subscriber: broker,
		Publisher:  broker,
		Router:     router,
		Logger:     logger,
		QoS:        1,
	})
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b, broker, router, logger
}

func TestBridgeRoutesCommands(t *testing.T) {
	_, broker, router, _ := newTestBridge(t)

	broker.deliver(t, mqtt.Topics{}.AllCommands(),
		"appliancelink/command/BOSCH-HCS01OVN1-0000000000AA/setpoint_temperature",
		`{"type": "quantity", "value": 350, "unit": "°F"}`)

	if len(router.calls) != 1 {
		t.Fatalf("expected 1 routed command, got %d", len(router.calls))
	}
	call := router.calls[0]
	if call.haID != "BOSCH-HCS01OVN1-0000000000AA" {
		t.Errorf("haID = %q", call.haID)
	}
	if call.channel != appliance.ChannelSetpointTemperature {
		t.Errorf("channel = %q", call.channel)
	}
	if call.cmd != appliance.QuantityCommand(350, "°F") {
		t.Errorf("command = %+v", call.cmd)
	}
}

func TestBridgeDropsMalformedTopic(t *testing.T) {
	_, broker, router, logger := newTestBridge(t)

	broker.deliver(t, mqtt.Topics{}.AllCommands(),
		"appliancelink/state/test-ha/door_state", `"open"`)

	if len(router.calls) != 0 {
		t.Fatalf("expected no routed commands, got %d", len(router.calls))
	}
	if logger.warns != 1 {
		t.Errorf("expected 1 warning, got %d", logger.warns)
	}
}

func TestBridgeDropsMalformedPayload(t *testing.T) {
	_, broker, router, logger := newTestBridge(t)

	broker.deliver(t, mqtt.Topics{}.AllCommands(),
		"appliancelink/command/test-ha/basic_action", `{"type": "color"}`)

	if len(router.calls) != 0 {
		t.Fatalf("expected no routed commands, got %d", len(router.calls))
	}
	if logger.warns != 1 {
		t.Errorf("expected 1 warning, got %d", logger.warns)
	}
}

func TestBridgeAbsorbsRouterError(t *testing.T) {
	_, broker, router, logger := newTestBridge(t)
	router.err = errors.New("appliance not registered")

	// Handler must not propagate the error; a retained command for a
	// deregistered appliance is expected noise.
	broker.deliver(t, mqtt.Topics{}.AllCommands(),
		"appliancelink/command/gone-ha/basic_action", `"start"`)

	if logger.warns != 1 {
		t.Errorf("expected 1 warning, got %d", logger.warns)
	}
}

func TestPublishAvailability(t *testing.T) {
	b, broker, _, _ := newTestBridge(t)

	if err := b.PublishAvailability("test-ha", true); err != nil {
		t.Fatalf("PublishAvailability: %v", err)
	}

	if len(broker.published) != 1 {
		t.Fatalf("expected 1 publication, got %d", len(broker.published))
	}
	pub := broker.published[0]
	if pub.topic != "appliancelink/availability/test-ha" {
		t.Errorf("topic = %q", pub.topic)
	}
	if !pub.retained {
		t.Error("availability must be retained")
	}
	if !strings.Contains(pub.payload, `"online":true`) {
		t.Errorf("payload = %s", pub.payload)
	}
}

func TestPublishDiscovery(t *testing.T) {
	b, broker, _, _ := newTestBridge(t)

	meta := appliance.Appliance{HaID: "test-ha", Name: "Oven", Type: "Oven"}
	channels := []appliance.Channel{appliance.ChannelOperationState}

	if err := b.PublishDiscovery(meta, channels); err != nil {
		t.Fatalf("PublishDiscovery: %v", err)
	}

	pub := broker.published[0]
	if pub.topic != "appliancelink/discovery/test-ha" {
		t.Errorf("topic = %q", pub.topic)
	}
	if !pub.retained {
		t.Error("discovery must be retained")
	}
	if !strings.Contains(pub.payload, `"operation_state"`) {
		t.Errorf("payload = %s", pub.payload)
	}
}

func TestPublishAvailabilityError(t *testing.T) {
	b, broker, _, _ := newTestBridge(t)
	broker.pubErr = errors.New("broker gone")

	if err := b.PublishAvailability("test-ha", false); err == nil {
		t.Fatal("expected publish error to propagate")
	}
}

// fakeConnectivityTelemetry records reachability writes.
type fakeConnectivityTelemetry struct {
	writes []connectivityWrite
}

type connectivityWrite struct {
	haID   string
	online bool
}

func (f *fakeConnectivityTelemetry) WriteConnectivity(haID string, connected bool) {
	f.writes = append(f.writes, connectivityWrite{haID, connected})
}

// fakeConnectivityStore records persisted connected flags.
type fakeConnectivityStore struct {
	sets []connectivityWrite
	err  error
}

func (f *fakeConnectivityStore) SetConnected(_ context.Context, haID string, connected bool) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, connectivityWrite{haID, connected})
	return nil
}

func TestHandleConnectivityFansOut(t *testing.T) {
	broker := newFakeBroker()
	telemetry := &fakeConnectivityTelemetry{}
	store := &fakeConnectivityStore{}
	b := New(Options{
		Subscriber: broker,
		Publisher:  broker,
		Router:     &fakeRouter{},
		Telemetry:  telemetry,
		Store:      store,
		QoS:        1,
	})

	const haID = "BOSCH-HCS01OVN1-0000000000AA"
	if err := b.HandleConnectivity(context.Background(), haID, true); err != nil {
		t.Fatalf("HandleConnectivity() error = %v", err)
	}
	if err := b.HandleConnectivity(context.Background(), haID, false); err != nil {
		t.Fatalf("HandleConnectivity() error = %v", err)
	}

	if len(broker.published) != 2 {
		t.Fatalf("published %d availability documents, want 2", len(broker.published))
	}
	wantTopic := mqtt.Topics{}.Availability(haID)
	if got := broker.published[0]; got.topic != wantTopic || !got.retained {
		t.Errorf("availability publication = %+v", got)
	}
	if !strings.Contains(broker.published[0].payload, `"online":true`) {
		t.Errorf("online payload = %s", broker.published[0].payload)
	}
	if !strings.Contains(broker.published[1].payload, `"online":false`) {
		t.Errorf("offline payload = %s", broker.published[1].payload)
	}

	want := []connectivityWrite{{haID, true}, {haID, false}}
	if len(telemetry.writes) != 2 || telemetry.writes[0] != want[0] || telemetry.writes[1] != want[1] {
		t.Errorf("telemetry writes = %v, want %v", telemetry.writes, want)
	}
	if len(store.sets) != 2 || store.sets[0] != want[0] || store.sets[1] != want[1] {
		t.Errorf("stored flags = %v, want %v", store.sets, want)
	}
}

func TestHandleConnectivityOptionalSinks(t *testing.T) {
	broker := newFakeBroker()
	b := New(Options{
		Subscriber: broker,
		Publisher:  broker,
		Router:     &fakeRouter{},
		QoS:        1,
	})

	// No telemetry or store configured; the availability publish alone
	// must succeed.
	if err := b.HandleConnectivity(context.Background(), "BOSCH-HCS01OVN1-0000000000AA", true); err != nil {
		t.Fatalf("HandleConnectivity() error = %v", err)
	}
	if len(broker.published) != 1 {
		t.Errorf("published %d documents, want 1", len(broker.published))
	}
}

func TestHandleConnectivityAbsorbsStoreError(t *testing.T) {
	broker := newFakeBroker()
	store := &fakeConnectivityStore{err: errors.New("database locked")}
	logger := &countingLogger{}
	b := New(Options{
		Subscriber: broker,
		Publisher:  broker,
		Router:     &fakeRouter{},
		Store:      store,
		Logger:     logger,
		QoS:        1,
	})

	if err := b.HandleConnectivity(context.Background(), "BOSCH-HCS01OVN1-0000000000AA", false); err != nil {
		t.Fatalf("HandleConnectivity() error = %v", err)
	}
	if len(broker.published) != 1 {
		t.Error("availability not published despite store failure")
	}
	if logger.warns != 1 {
		t.Errorf("warns = %d, want 1", logger.warns)
	}
}

func TestHandleConnectivityReturnsPublishError(t *testing.T) {
	broker := newFakeBroker()
	broker.pubErr = errors.New("broker gone")
	store := &fakeConnectivityStore{}
	b := New(Options{
		Subscriber: broker,
		Publisher:  broker,
		Router:     &fakeRouter{},
		Store:      store,
		QoS:        1,
	})

	if err := b.HandleConnectivity(context.Background(), "BOSCH-HCS01OVN1-0000000000AA", true); err == nil {
		t.Error("HandleConnectivity() = nil despite publish failure")
	}
	// The stored flag must still be updated so the registry reflects
	// reality once the broker returns.
	if len(store.sets) != 1 {
		t.Errorf("stored flags = %d, want 1", len(store.sets))
	}
}
