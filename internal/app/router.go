package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Pandey-Krishant/Msgly/internal/core"
	"github.com/Pandey-Krishant/Msgly/internal/domain"
)

// Router accepts one inbound frame from a source connection and delivers
// it to the correct target(s) according to event-type policy. Dispatch is
// synchronous, so frames from one connection reach any given recipient in
// send order. No error is ever surfaced back to the sender: a bad or
// unroutable frame is dropped with a diagnostic and the connection lives on.
type Router struct {
	Registry *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{Registry: reg}
}

func (r *Router) Dispatch(conn core.SignalConnection, raw core.Frame) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("conn", string(conn.ID())).Msg("bad frame")
		return
	}

	switch env.Event {
	case EventRegister:
		r.handleRegister(conn, env.Data)
	case EventSendMessage:
		r.relayToReceiver(conn, env.Event, env.Data, markReceived)
	case EventSendRequest, EventRequestAction, EventTyping:
		r.relayToReceiver(conn, env.Event, env.Data, nil)
	case EventUsernameUpdated, EventProfileUpdated:
		r.relayContactUpdate(conn, env.Event, env.Data)
	default:
		if isCallEvent(env.Event) {
			r.relayCall(conn, env.Event, env.Data)
			return
		}
		log.Warn().Str("module", "app.router").Str("event", env.Event).Msg("unknown event")
	}
}

func (r *Router) handleRegister(conn core.SignalConnection, data json.RawMessage) {
	identity, ok := decodeIdentity(data)
	if !ok {
		log.Warn().Str("module", "app.router").Str("conn", string(conn.ID())).Msg("bad register payload")
		return
	}
	if err := r.Registry.Register(conn, identity); err != nil {
		log.Warn().Err(err).Str("module", "app.router").Str("conn", string(conn.ID())).Msg("register rejected")
	}
}

// decodeIdentity accepts both the object form {"identity": "alice"} and
// the bare-string form "alice" the first-generation client emits.
func decodeIdentity(data json.RawMessage) (domain.Identity, bool) {
	var p struct {
		Identity string `json:"identity"`
	}
	if err := json.Unmarshal(data, &p); err == nil && p.Identity != "" {
		return domain.Identity(p.Identity), true
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return domain.Identity(s), true
	}
	return "", false
}

// transform optionally rewrites the delivered copy of a payload. The
// sender's own copy is never touched.
type transform func(json.RawMessage) (json.RawMessage, bool)

// markReceived tags the delivered copy of a chat message so the receiving
// client can tell it apart from its own echoed sends.
func markReceived(data json.RawMessage) (json.RawMessage, bool) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	m["type"] = "received"
	out, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (r *Router) relayToReceiver(conn core.SignalConnection, event string, data json.RawMessage, tf transform) {
	var p struct {
		Receiver string `json:"receiver"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Receiver == "" {
		log.Debug().Str("module", "app.router").Str("event", event).Str("conn", string(conn.ID())).Msg("missing receiver, dropped")
		return
	}

	out := data
	if tf != nil {
		var ok bool
		if out, ok = tf(data); !ok {
			log.Warn().Str("module", "app.router").Str("event", event).Msg("bad payload, dropped")
			return
		}
	}
	r.deliver(r.Registry.Resolve(domain.Identity(p.Receiver)), receiverName[event], out)
}

// relayContactUpdate handles the two events with no addressed recipient in
// the wire contract. An optional receiver field makes them targeted;
// otherwise they go to every other tracked connection.
func (r *Router) relayContactUpdate(conn core.SignalConnection, event string, data json.RawMessage) {
	var p struct {
		Receiver string `json:"receiver"`
	}
	if err := json.Unmarshal(data, &p); err == nil && p.Receiver != "" {
		r.deliver(r.Registry.Resolve(domain.Identity(p.Receiver)), event, data)
		return
	}
	r.deliver(r.Registry.Others(conn), event, data)
}

// deliver marshals the outbound frame once and fans it out. A full send
// buffer on one connection never affects delivery to another.
func (r *Router) deliver(targets []core.SignalConnection, event string, data json.RawMessage) int {
	if len(targets) == 0 {
		log.Debug().Str("module", "app.router").Str("event", event).Msg("no live target, dropped")
		return 0
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("marshal frame")
		return 0
	}
	sent := 0
	for _, t := range targets {
		if err := t.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Str("event", event).
				Str("conn", string(t.ID())).Msg("send failed")
			continue
		}
		sent++
	}
	return sent
}
