package kv

import (
	"context"
	"errors"
)

// Keys used by the session core.
const (
	KeyActiveSessions    = "active_sessions"
	KeyCompletedSessions = "completed_sessions"
)

// ErrDecode wraps a stored value that could not be decoded into the requested type.
var ErrDecode = errors.New("kv: malformed stored value")

// Store is a dumb JSON key-value persistence sink. Writes replace the whole
// value; there are no transactions across keys.
type Store interface {
	// GetObject decodes the value at key into out. found is false when the key is absent.
	GetObject(ctx context.Context, key string, out any) (found bool, err error)
	SetObject(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
