package memory

import (
	"context"

	"github.com/mkassab/orderlink/internal/domain/settings"
)

// SettingsSource serves config-provided settings.
type SettingsSource struct {
	current settings.Settings
}

func NewSettingsSource(accessCode, contactDestination string) *SettingsSource {
	return &SettingsSource{current: settings.Settings{
		AccessCode:         accessCode,
		ContactDestination: contactDestination,
	}}
}

func (s *SettingsSource) Fetch(ctx context.Context) (settings.Settings, error) {
	_ = ctx
	if s.current == (settings.Settings{}) {
		return settings.Settings{}, settings.ErrNotConfigured
	}
	return s.current, nil
}
