// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxIdentityLen = 64

	// GroupPrefix marks a group/multicast identity.
	GroupPrefix = "group_"
)

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
)

// Identity is the logical token a client presents to receive targeted
// events. The relay does not enforce uniqueness; it stores whatever a
// connection presents.
type Identity string

// ParseIdentity avoids ad-hoc string casts in adapters.
func ParseIdentity(raw string) (Identity, error) {
	if len(raw) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(raw) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(raw), nil
}

func (i Identity) IsGroup() bool {
	return strings.HasPrefix(string(i), GroupPrefix)
}
