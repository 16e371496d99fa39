package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkassab/orderlink/internal/domain/settings"
	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"
)

var ErrAccessDenied = errors.New("session: access denied")

const componentSession = "session_manager"

// Manager owns the per-session order contexts. Contexts are created on
// demand and live for the process lifetime; there is no eviction, matching
// the session-scoped lifecycle of the state they hold.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Context

	settings settings.Source
	log      observability.Logger
}

func NewManager(src settings.Source, logger observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Manager{
		sessions: make(map[string]*Context),
		settings: src,
		log:      logger.With(observability.F("component", componentSession)),
	}
}

// Get returns the context for the session id, creating it when absent.
func (m *Manager) Get(sessionID string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		return sess
	}
	sess := NewContext()
	m.sessions[sessionID] = sess
	return sess
}

// ValidateAccess checks the submitted code against the shared access code
// and, on a match, stamps the company and city onto the session. The
// identity fields are set once per gate passage.
func (m *Manager) ValidateAccess(ctx context.Context, sessionID, code, companyName, city string) error {
	cfg, err := m.settings.Fetch(ctx)
	if err != nil {
		logctx.FromOr(ctx, m.log).Error("settings_fetch_failed",
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("session: fetch settings: %w", err)
	}
	if cfg.AccessCode == "" || code != cfg.AccessCode {
		return ErrAccessDenied
	}

	sess := m.Get(sessionID)
	sess.CompanyName = companyName
	sess.City = city
	return nil
}

// EnsureContact resolves the outbound contact destination for the session,
// fetching it from the settings source on first use. The value persists
// across cart resets.
func (m *Manager) EnsureContact(ctx context.Context, sessionID string) (string, error) {
	sess := m.Get(sessionID)
	if sess.ContactDestination != "" {
		return sess.ContactDestination, nil
	}

	cfg, err := m.settings.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("session: fetch settings: %w", err)
	}
	if cfg.ContactDestination == "" {
		return "", settings.ErrNotConfigured
	}
	sess.ContactDestination = cfg.ContactDestination
	return sess.ContactDestination, nil
}
