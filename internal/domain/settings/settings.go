package settings

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("settings: not configured")

// Settings carries the shared access code and the outbound contact
// destination. The access code is a shared secret, not a security boundary.
type Settings struct {
	AccessCode         string
	ContactDestination string
}

type Source interface {
	Fetch(ctx context.Context) (Settings, error)
}
