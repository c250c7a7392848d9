package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Pandey-Krishant/Msgly/internal/core"
	"github.com/Pandey-Krishant/Msgly/internal/domain"
)

type connEntry struct {
	Identity domain.Identity
	Conn     core.SignalConnection
}

// Registry maps identities to the live connections currently bound to
// them. One identity may hold several connections (multiple devices or
// tabs); one connection is bound to at most one identity at a time.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[domain.Identity]map[core.ConnID]core.SignalConnection
	byConn     map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[domain.Identity]map[core.ConnID]core.SignalConnection),
		byConn:     make(map[core.ConnID]*connEntry),
	}
}

// Track makes a connection known to the registry before it has presented
// an identity, so broadcast events can still reach it.
func (r *Registry) Track(conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[conn.ID()]; ok {
		return
	}
	r.byConn[conn.ID()] = &connEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).Msg("tracking connection")
}

// Register binds the connection to the identity. Registering the same
// identity again is a no-op; registering a different identity replaces
// the previous binding for this connection only.
func (r *Registry) Register(conn core.SignalConnection, identity domain.Identity) error {
	if _, err := domain.ParseIdentity(string(identity)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byConn[conn.ID()]
	if !ok {
		entry = &connEntry{Conn: conn}
		r.byConn[conn.ID()] = entry
	}
	if entry.Identity == identity {
		return nil
	}
	if entry.Identity != "" {
		r.dropBinding(entry.Identity, conn.ID())
		log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).
			Str("old", string(entry.Identity)).Str("new", string(identity)).Msg("rebound identity")
	}
	entry.Identity = identity

	conns, ok := r.byIdentity[identity]
	if !ok {
		conns = make(map[core.ConnID]core.SignalConnection)
		r.byIdentity[identity] = conns
	}
	conns[conn.ID()] = conn
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).
		Str("identity", string(identity)).Bool("group", identity.IsGroup()).Msg("registered")
	return nil
}

// Unregister removes this connection only. Other connections bound to
// the same identity stay registered.
func (r *Registry) Unregister(conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byConn[conn.ID()]
	if !ok {
		return
	}
	delete(r.byConn, conn.ID())
	if entry.Identity != "" {
		r.dropBinding(entry.Identity, conn.ID())
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).
		Str("identity", string(entry.Identity)).Msg("unregistered")
}

// dropBinding removes one connection from an identity's set. Caller holds
// the write lock.
func (r *Registry) dropBinding(identity domain.Identity, id core.ConnID) {
	conns, ok := r.byIdentity[identity]
	if !ok {
		return
	}
	delete(conns, id)
	if len(conns) == 0 {
		delete(r.byIdentity, identity)
	}
}

// Resolve returns a snapshot of the live connections bound to the
// identity. Empty is a valid, non-error result.
func (r *Registry) Resolve(identity domain.Identity) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byIdentity[identity]
	out := make([]core.SignalConnection, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// IdentityOf reports the identity currently bound to the connection.
func (r *Registry) IdentityOf(conn core.SignalConnection) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byConn[conn.ID()]
	if !ok || entry.Identity == "" {
		return "", false
	}
	return entry.Identity, true
}

// Others returns a snapshot of every tracked connection except the given
// one, for events that have no addressed recipient.
func (r *Registry) Others(conn core.SignalConnection) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.byConn))
	for id, entry := range r.byConn {
		if id == conn.ID() {
			continue
		}
		out = append(out, entry.Conn)
	}
	return out
}

// Len reports the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
