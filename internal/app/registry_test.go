package app

import (
	"errors"
	"testing"

	"github.com/Pandey-Krishant/Msgly/internal/core"
	"github.com/Pandey-Krishant/Msgly/internal/domain"
)

type fakeConn struct {
	id     core.ConnID
	frames []core.Frame
	fail   bool
	closed bool
}

func (f *fakeConn) ID() core.ConnID { return f.id }

func (f *fakeConn) TrySend(fr core.Frame) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func TestRegistryRegisterResolve(t *testing.T) {
	reg := NewRegistry()
	c := newFakeConn("c1")

	if err := reg.Register(c, "alice"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	conns := reg.Resolve("alice")
	if len(conns) != 1 {
		t.Fatalf("Resolve returned %d connections, want 1", len(conns))
	}
	if conns[0].ID() != "c1" {
		t.Errorf("Resolve returned conn %q, want c1", conns[0].ID())
	}

	id, ok := reg.IdentityOf(c)
	if !ok || id != "alice" {
		t.Errorf("IdentityOf = %q, %v; want alice, true", id, ok)
	}
}

func TestRegistryRegisterEmptyIdentity(t *testing.T) {
	reg := NewRegistry()
	c := newFakeConn("c1")

	if err := reg.Register(c, ""); !errors.Is(err, domain.ErrIdentityEmpty) {
		t.Errorf("Register(\"\") = %v, want ErrIdentityEmpty", err)
	}
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := newFakeConn("c1")

	if err := reg.Register(c, "alice"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register(c, "alice"); err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if got := len(reg.Resolve("alice")); got != 1 {
		t.Errorf("Resolve returned %d connections after duplicate register, want 1", got)
	}
}

func TestRegistryFanOut(t *testing.T) {
	reg := NewRegistry()
	phone := newFakeConn("phone")
	laptop := newFakeConn("laptop")

	if err := reg.Register(phone, "alice"); err != nil {
		t.Fatalf("Register phone: %v", err)
	}
	if err := reg.Register(laptop, "alice"); err != nil {
		t.Fatalf("Register laptop: %v", err)
	}

	if got := len(reg.Resolve("alice")); got != 2 {
		t.Fatalf("Resolve returned %d connections, want 2", got)
	}

	// Dropping one device leaves the other reachable.
	reg.Unregister(phone)
	conns := reg.Resolve("alice")
	if len(conns) != 1 {
		t.Fatalf("Resolve returned %d connections after unregister, want 1", len(conns))
	}
	if conns[0].ID() != "laptop" {
		t.Errorf("remaining conn = %q, want laptop", conns[0].ID())
	}
}

func TestRegistryUnregisterLast(t *testing.T) {
	reg := NewRegistry()
	c := newFakeConn("c1")

	if err := reg.Register(c, "alice"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg.Unregister(c)

	if got := len(reg.Resolve("alice")); got != 0 {
		t.Errorf("Resolve returned %d connections, want 0", got)
	}
	if _, ok := reg.IdentityOf(c); ok {
		t.Error("IdentityOf still reports a binding after unregister")
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestRegistryUnregisterUnknownConn(t *testing.T) {
	reg := NewRegistry()
	reg.Unregister(newFakeConn("ghost"))
}

func TestRegistryIdentitySwitch(t *testing.T) {
	reg := NewRegistry()
	c := newFakeConn("c1")

	if err := reg.Register(c, "alice"); err != nil {
		t.Fatalf("Register alice: %v", err)
	}
	// Re-registering under a new identity replaces the old binding.
	if err := reg.Register(c, "alice_renamed"); err != nil {
		t.Fatalf("Register alice_renamed: %v", err)
	}

	if got := len(reg.Resolve("alice")); got != 0 {
		t.Errorf("old identity still resolves to %d connections, want 0", got)
	}
	if got := len(reg.Resolve("alice_renamed")); got != 1 {
		t.Errorf("new identity resolves to %d connections, want 1", got)
	}
}

func TestRegistryTrackAndOthers(t *testing.T) {
	reg := NewRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")
	c := newFakeConn("c")

	reg.Track(a)
	reg.Track(b)
	reg.Track(c)
	reg.Track(c) // idempotent

	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	others := reg.Others(a)
	if len(others) != 2 {
		t.Fatalf("Others returned %d connections, want 2", len(others))
	}
	for _, o := range others {
		if o.ID() == "a" {
			t.Error("Others included the excluded connection")
		}
	}
}
