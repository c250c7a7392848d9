package signal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Pandey-Krishant/Msgly/internal/app"
	"github.com/Pandey-Krishant/Msgly/internal/config"
	"github.com/Pandey-Krishant/Msgly/internal/core"
)

func newTestController(rateLimit int) *RelayWSController {
	cfg := &config.Config{
		RateLimit:    rateLimit,
		RateInterval: time.Minute,
		SendBuffer:   8,
	}
	reg := app.NewRegistry()
	return NewRelayWSController(cfg, app.NewRouter(reg), reg)
}

func newTestConn(id string) *WsRelayConn {
	return &WsRelayConn{
		id:   core.ConnID(id),
		send: make(chan core.Frame, 8),
	}
}

func drainEvent(t *testing.T, c *WsRelayConn) string {
	t.Helper()
	select {
	case raw := <-c.send:
		var env struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("delivered frame is not valid JSON: %v", err)
		}
		return env.Event
	default:
		t.Fatal("no frame was delivered")
		return ""
	}
}

func TestHandleFrameTeardownBypassesSaturatedLimiter(t *testing.T) {
	ctl := newTestController(1)
	caller := newTestConn("caller")
	callee := newTestConn("callee")
	ctl.Router.Dispatch(caller, core.Frame(`{"event":"register","data":{"identity":"alice"}}`))
	ctl.Router.Dispatch(callee, core.Frame(`{"event":"register","data":{"identity":"bob"}}`))

	// Exhaust the window, then confirm it is saturated.
	ctl.handleFrame(caller, []byte(`{"event":"typing","data":{"sender":"alice","receiver":"bob"}}`))
	if got := drainEvent(t, callee); got != app.EventTyping {
		t.Fatalf("delivered event = %q, want typing", got)
	}
	ctl.handleFrame(caller, []byte(`{"event":"typing","data":{"sender":"alice","receiver":"bob"}}`))
	if len(callee.send) != 0 {
		t.Fatal("limiter did not drop the over-limit frame")
	}

	// A teardown still goes through.
	ctl.handleFrame(caller, []byte(`{"event":"call:end","data":{"to":"bob","from":"alice"}}`))
	if got := drainEvent(t, callee); got != app.EventCallEnd {
		t.Errorf("delivered event = %q, want call:end", got)
	}
}

func TestHandleFrameGarbageCountsAgainstLimiter(t *testing.T) {
	ctl := newTestController(2)
	sender := newTestConn("sender")
	peer := newTestConn("peer")
	ctl.Router.Dispatch(sender, core.Frame(`{"event":"register","data":{"identity":"alice"}}`))
	ctl.Router.Dispatch(peer, core.Frame(`{"event":"register","data":{"identity":"bob"}}`))

	ctl.handleFrame(sender, []byte(`not json at all`))
	ctl.handleFrame(sender, []byte(`also garbage`))

	// The window is spent on garbage; a valid frame is now dropped.
	ctl.handleFrame(sender, []byte(`{"event":"typing","data":{"sender":"alice","receiver":"bob"}}`))
	if len(peer.send) != 0 {
		t.Error("garbage frames did not count against the rate limit")
	}
}
