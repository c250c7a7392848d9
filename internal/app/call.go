package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Pandey-Krishant/Msgly/internal/core"
	"github.com/Pandey-Krishant/Msgly/internal/domain"
)

// Call signaling is a thin specialization of the router: offer, answer,
// ICE candidates, end and reject are forwarded verbatim between the two
// identities negotiating a call. The relay keeps no call state; the
// payloads (SDP blobs, candidates, kind flags) are opaque.

var callEvents = map[string]bool{
	EventCallOffer:    true,
	EventRequestCall:  true,
	EventCallAnswer:   true,
	EventAnswerCall:   true,
	EventCallICE:      true,
	EventICECandidate: true,
	EventCallEnd:      true,
	EventEndCall:      true,
	EventCallReject:   true,
}

func isCallEvent(event string) bool {
	return callEvents[event]
}

// calleeName maps the legacy call vocabulary to the names the
// first-generation client listens for. The call:* names and ICE
// candidates are delivered unchanged.
var calleeName = map[string]string{
	EventRequestCall: EventIncomingCall,
	EventAnswerCall:  EventCallAnswered,
	EventEndCall:     EventCallEnded,
}

// IsTeardown reports whether the event terminates a call. Teardown events
// are exempt from adapter rate limiting so an end or reject is always
// attempted while the target is registered.
func IsTeardown(event string) bool {
	switch event {
	case EventCallEnd, EventEndCall, EventCallReject:
		return true
	}
	return false
}

// relayCall forwards a call-control event to the connections of the `to`
// identity. Legacy event names are delivered under the name the legacy
// client listens for, mirroring the chat plane's send/receive rename.
func (r *Router) relayCall(conn core.SignalConnection, event string, data json.RawMessage) {
	var p struct {
		To string `json:"to"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Debug().Str("module", "app.call").Str("event", event).Str("conn", string(conn.ID())).Msg("missing to, dropped")
		return
	}
	out := event
	if mapped, ok := calleeName[event]; ok {
		out = mapped
	}
	targets := r.Registry.Resolve(domain.Identity(p.To))
	sent := r.deliver(targets, out, data)
	if sent == 0 && IsTeardown(event) {
		log.Debug().Str("module", "app.call").Str("event", event).Str("to", p.To).Msg("teardown target offline")
	}
}
