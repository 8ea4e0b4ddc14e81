package appliance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager owns the live appliance sessions, keyed by haId. Sessions are
// created when an appliance is registered and discarded on deregistration;
// the per-appliance mirrors live and die with their sessions.
//
// Thread safety: all methods are safe for concurrent use. Mutation of an
// individual appliance's state is serialised inside its session; the manager
// lock only guards the session map itself.
type Manager struct {
	client Client
	sink   Sink
	logger Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(client Client, sink Sink, logger Logger) *Manager {
	return &Manager{
		client:   client,
		sink:     sink,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Register creates a session for an appliance from its listing metadata.
// Appliance types without a profile return ErrUnsupportedKind; registering
// the same haId twice returns ErrAlreadyRegistered.
func (m *Manager) Register(meta Appliance) (*Session, error) {
	kind, ok := KindForType(meta.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, meta.Type)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[meta.HaID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, meta.HaID)
	}

	session, err := NewSession(SessionOptions{
		HaID:      meta.HaID,
		Kind:      kind,
		Client:    m.client,
		Sink:      m.sink,
		Logger:    m.logger,
		Reachable: meta.Connected,
	})
	if err != nil {
		return nil, err
	}

	m.sessions[meta.HaID] = session
	if m.logger != nil {
		m.logger.Info("appliance registered",
			"ha_id", meta.HaID, "kind", string(kind), "name", meta.Name)
	}
	return session, nil
}

// Deregister discards the session and its mirror for an appliance.
func (m *Manager) Deregister(haID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[haID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotRegistered, haID)
	}
	delete(m.sessions, haID)
	if m.logger != nil {
		m.logger.Info("appliance deregistered", "ha_id", haID)
	}
	return nil
}

// Session returns the live session for a haId.
func (m *Manager) Session(haID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[haID]
	return s, ok
}

// Sessions returns a snapshot of all live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// HandleEvent routes one push event to the owning session. Events for
// unregistered appliances are ignored; the stream may outlive a
// deregistration by a few messages.
func (m *Manager) HandleEvent(ctx context.Context, haID string, ev Event) {
	session, ok := m.Session(haID)
	if !ok {
		if m.logger != nil {
			m.logger.Debug("event for unregistered appliance", "ha_id", haID, "key", ev.Key)
		}
		return
	}
	session.HandleEvent(ctx, ev)
}

// HandleCommand routes one user command to the owning session.
func (m *Manager) HandleCommand(ctx context.Context, haID string, ch Channel, cmd Command) error {
	session, ok := m.Session(haID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, haID)
	}
	session.HandleCommand(ctx, ch, cmd)
	return nil
}

// Poll refreshes every session's channels at the given interval until the
// context is cancelled. Each session refresh is serialised behind that
// session's own lock; different appliances refresh independently.
func (m *Manager) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, session := range m.Sessions() {
				if !session.Reachable() {
					continue
				}
				session.RefreshAll(ctx)
			}
		}
	}
}
