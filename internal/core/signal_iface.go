package core

// Frame is a raw JSON payload as read from or written to the wire.
type Frame []byte

// ConnID identifies one live transport session.
type ConnID string

// SignalConnection abstracts for a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}
