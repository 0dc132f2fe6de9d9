package memory

import (
	"context"
	"fmt"
	"sync"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
)

// SettingsRepository is an in-memory implementation of app.SettingsRepository.
// The mutex gives the same single-record guarantee as the Postgres
// check-constrained primary key.
type SettingsRepository struct {
	mu       sync.RWMutex
	created  bool
	settings domain.Settings
}

var _ app.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Get(_ context.Context) (domain.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.created {
		return domain.Settings{}, false, nil
	}
	return cloneSettings(r.settings), true, nil
}

func (r *SettingsRepository) Create(_ context.Context, s domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created {
		return fmt.Errorf("%w: settings singleton already exists", domain.ErrConflict)
	}
	r.settings = cloneSettings(s)
	r.created = true
	return nil
}

func (r *SettingsRepository) SetCurrentDay(_ context.Context, day domain.Day) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.created {
		return fmt.Errorf("%w: settings singleton", domain.ErrNotFound)
	}
	r.settings.CurrentDay = day
	return nil
}

func (r *SettingsRepository) SetGroupColors(_ context.Context, day domain.Day, colors []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.created {
		return fmt.Errorf("%w: settings singleton", domain.ErrNotFound)
	}
	if r.settings.GroupColors == nil {
		r.settings.GroupColors = map[domain.Day][]string{}
	}
	replacement := make([]string, len(colors))
	copy(replacement, colors)
	r.settings.GroupColors[day] = replacement
	return nil
}

func cloneSettings(in domain.Settings) domain.Settings {
	out := domain.Settings{CurrentDay: in.CurrentDay, GroupColors: map[domain.Day][]string{}}
	for day, colors := range in.GroupColors {
		copied := make([]string, len(colors))
		copy(copied, colors)
		out.GroupColors[day] = copied
	}
	return out
}
