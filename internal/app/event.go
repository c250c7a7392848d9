package app

import "encoding/json"

// Wire event names. The call events exist in two generations of the
// client vocabulary; both are accepted and dispatched identically.
const (
	EventRegister = "register"

	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventSendRequest    = "send-request"
	EventReceiveRequest = "receive-request"
	EventRequestAction  = "request-action"
	EventRequestUpdated = "request-updated"
	EventTyping         = "typing"

	EventUsernameUpdated = "username-updated"
	EventProfileUpdated  = "profile-updated"

	EventCallOffer    = "call:offer"
	EventRequestCall  = "request-call"
	EventIncomingCall = "incoming-call"
	EventCallAnswer   = "call:answer"
	EventAnswerCall   = "answer-call"
	EventCallAnswered = "call-answered"
	EventCallICE      = "call:ice"
	EventICECandidate = "ice-candidate"
	EventCallEnd      = "call:end"
	EventEndCall      = "end-call"
	EventCallEnded    = "call-ended"
	EventCallReject   = "call:reject"
)

// Envelope is the unit of routing: a named event with an opaque payload.
// The router never rewrites payload semantics; it only adds the delivery
// direction marker on delivered chat messages.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventName peeks at the event name of a raw frame without decoding the
// payload. Adapters use it for rate-limit exemption checks.
func EventName(raw []byte) (string, bool) {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", false
	}
	return env.Event, true
}

// receiverName maps inbound chat-plane events to the name their
// delivered copy carries.
var receiverName = map[string]string{
	EventSendMessage:   EventReceiveMessage,
	EventSendRequest:   EventReceiveRequest,
	EventRequestAction: EventRequestUpdated,
	EventTyping:        EventTyping,
}
