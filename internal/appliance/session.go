package appliance

import (
	"context"
	"strconv"
	"sync"
)

// Event is one inbound push notification from the appliance event stream.
// Values arrive as strings on the wire; Int and Bool provide the common
// decodings.
type Event struct {
	Key   string
	Value string
	Unit  string
}

// Int returns the event value as an integer (0 if not numeric).
func (e Event) Int() int {
	n, err := strconv.Atoi(e.Value)
	if err != nil {
		return 0
	}
	return n
}

// Bool returns the event value as a boolean ("true" is true, all else false).
func (e Event) Bool() bool { return e.Value == "true" }

// EventHandler reconciles one inbound push event against the session mirror.
// Handlers run with the session lock held.
type EventHandler func(ctx context.Context, s *Session, ev Event)

// UpdateHandler recomputes one channel by pulling from the appliance API.
// Handlers run with the session lock held.
type UpdateHandler func(ctx context.Context, s *Session)

// Session binds one appliance to the host. It owns the Device State Mirror,
// reconciles the two inbound update sources (push events and polling)
// against it, and translates user commands into outbound API calls.
//
// Concurrency: push events and commands may arrive from independent
// producers; all mirror mutation for one appliance is serialised behind the
// session mutex. The handler tables are built once at construction and are
// read-only afterwards.
type Session struct {
	haID   string
	kind   Kind
	client Client
	sink   Sink
	logger Logger

	mu        sync.Mutex
	mirror    *Mirror
	reachable bool

	channels []Channel
	events   map[string]EventHandler
	updates  map[Channel]UpdateHandler
	present  map[Channel]bool
}

// SessionOptions holds the dependencies for creating a session.
type SessionOptions struct {
	// HaID is the opaque appliance identifier. Required.
	HaID string

	// Kind selects the channel/event registrations. Required.
	Kind Kind

	// Client is the appliance API client. Required.
	Client Client

	// Sink receives every computed channel value. Required.
	Sink Sink

	// Logger is optional; nil silences session logging.
	Logger Logger

	// Reachable is the initial connectivity state from the listing.
	Reachable bool
}

// NewSession creates a session for one appliance. The handler tables are
// derived from the kind profile and never change afterwards.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.HaID == "" {
		return nil, ErrNotRegistered
	}
	if opts.Client == nil || opts.Sink == nil {
		return nil, ErrNotRegistered
	}

	p, ok := profileFor(opts.Kind)
	if !ok {
		return nil, ErrUnsupportedKind
	}

	present := make(map[Channel]bool, len(p.channels))
	for _, ch := range p.channels {
		present[ch] = true
	}

	return &Session{
		haID:      opts.HaID,
		kind:      opts.Kind,
		client:    opts.Client,
		sink:      opts.Sink,
		logger:    opts.Logger,
		mirror:    NewMirror(),
		reachable: opts.Reachable,
		channels:  p.channels,
		events:    p.events,
		updates:   p.updates,
		present:   present,
	}, nil
}

// HaID returns the appliance identifier.
func (s *Session) HaID() string { return s.haID }

// Kind returns the appliance kind.
func (s *Session) Kind() Kind { return s.kind }

// Channels returns the channels this appliance kind exposes, in profile
// order. The returned slice is a copy.
func (s *Session) Channels() []Channel {
	out := make([]Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// Reachable reports whether the appliance is currently connected to the
// cloud, per the listing and connectivity events.
func (s *Session) Reachable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachable
}

// Mirror returns a read snapshot of selected mirror fields for diagnostics.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		HaID:      s.haID,
		Kind:      s.kind,
		Reachable: s.reachable,
		Values:    make(map[Channel]Value, len(s.channels)),
	}
	snap.OperationState, snap.OperationKnown = s.mirror.OperationState()
	snap.PowerState, snap.PowerKnown = s.mirror.PowerState()
	for _, ch := range s.channels {
		snap.Values[ch] = s.mirror.Value(ch)
	}
	return snap
}

// Snapshot is a point-in-time copy of a session's externally visible state.
type Snapshot struct {
	HaID           string
	Kind           Kind
	Reachable      bool
	OperationState OperationState
	OperationKnown bool
	PowerState     PowerState
	PowerKnown     bool
	Values         map[Channel]Value
}

// HandleEvent processes one inbound push event. Events for one appliance
// must be delivered in arrival order; cascade logic depends on the mirror
// state at time of processing. Unknown event keys are ignored for forward
// compatibility with newer appliance firmware.
func (s *Session) HandleEvent(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handler, ok := s.events[ev.Key]
	if !ok {
		s.logDebug("ignoring unknown event key", "key", ev.Key)
		return
	}
	handler(ctx, s, ev)
}

// RefreshChannel recomputes one channel by pulling from the appliance API.
// Channels without an update handler are left untouched.
func (s *Session) RefreshChannel(ctx context.Context, ch Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshChannelLocked(ctx, ch)
}

// RefreshAll recomputes every channel with an update handler. Used for
// periodic polling and after power-on, when the appliance may have changed
// state while the mirror was stale.
func (s *Session) RefreshAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshAllLocked(ctx)
}

func (s *Session) refreshChannelLocked(ctx context.Context, ch Channel) {
	if handler, ok := s.updates[ch]; ok {
		handler(ctx, s)
	}
}

func (s *Session) refreshAllLocked(ctx context.Context) {
	for _, ch := range s.channels {
		s.refreshChannelLocked(ctx, ch)
	}
}

// publish records a channel value in the mirror and forwards it to the sink.
func (s *Session) publish(ch Channel, v Value) {
	s.mirror.SetValue(ch, v)
	s.sink.UpdateState(s.haID, ch, v)
}

// publishIfPresent publishes only when the kind profile carries the channel.
func (s *Session) publishIfPresent(ch Channel, v Value) {
	if s.present[ch] {
		s.publish(ch, v)
	}
}

// resetProgramStateChannels sets the channels that only mean something while
// a program is running to Undefined. Idempotent.
func (s *Session) resetProgramStateChannels() {
	s.logDebug("resetting program state channels")
	s.publishIfPresent(ChannelRemainingTime, Undefined())
	s.publishIfPresent(ChannelProgress, Undefined())
	s.publishIfPresent(ChannelElapsedTime, Undefined())
	s.publishIfPresent(ChannelCavityTemperature, Undefined())
}

func (s *Session) setReachable(reachable bool) {
	s.reachable = reachable
}

func (s *Session) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, append(args, "ha_id", s.haID)...)
	}
}

func (s *Session) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, append(args, "ha_id", s.haID)...)
	}
}

func (s *Session) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, append(args, "ha_id", s.haID)...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append(args, "ha_id", s.haID)...)
	}
}
