package app

import (
	"context"
	"errors"
	"fmt"

	"event-games-service/internal/domain"
)

// SettingsRepository stores the global singleton settings record. Create must
// reject a second insert with domain.ErrConflict; the field setters update in
// place so concurrent mutations of different fields cannot clobber each other.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, bool, error)
	Create(ctx context.Context, s domain.Settings) error
	SetCurrentDay(ctx context.Context, day domain.Day) error
	SetGroupColors(ctx context.Context, day domain.Day, colors []string) error
}

// AdminService mutates event configuration: the settings singleton and the
// per-day groups documents.
type AdminService struct {
	settings SettingsRepository
	groups   GroupRepository
}

func NewAdminService(settings SettingsRepository, groups GroupRepository) *AdminService {
	return &AdminService{settings: settings, groups: groups}
}

// GetSettings lazily creates the singleton with defaults on first access.
// Losing the creation race to a concurrent caller is not an error: the record
// is simply re-fetched.
func (s *AdminService) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, ok, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if ok {
		return settings, nil
	}

	if err := s.settings.Create(ctx, domain.DefaultSettings()); err != nil && !errors.Is(err, domain.ErrConflict) {
		return domain.Settings{}, err
	}
	settings, ok, err = s.settings.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if !ok {
		return domain.Settings{}, fmt.Errorf("settings singleton missing after create")
	}
	return settings, nil
}

// SetCurrentDay switches the active competition day.
func (s *AdminService) SetCurrentDay(ctx context.Context, rawDay string) error {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return err
	}
	if _, err := s.GetSettings(ctx); err != nil {
		return err
	}
	return s.settings.SetCurrentDay(ctx, day)
}

// SetGroupColors replaces the color palette for a grouped day wholesale.
func (s *AdminService) SetGroupColors(ctx context.Context, rawDay string, colors []string) error {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return err
	}
	if !day.Grouped() {
		return fmt.Errorf("%w: day %s has no group colors", domain.ErrInvalidArgument, day)
	}
	if colors == nil {
		return fmt.Errorf("%w: colors must be a list", domain.ErrInvalidArgument)
	}
	if _, err := s.GetSettings(ctx); err != nil {
		return err
	}
	return s.settings.SetGroupColors(ctx, day, colors)
}

// SetGroups replaces the groups document for a grouped day. Stored order is
// the order given here; grouped leaderboards return it unchanged.
func (s *AdminService) SetGroups(ctx context.Context, rawDay string, groups []domain.Group) error {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return err
	}
	if !day.Grouped() {
		return fmt.Errorf("%w: day %s has no groups", domain.ErrInvalidArgument, day)
	}
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("%w: group name is required", domain.ErrInvalidArgument)
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("%w: duplicate group name %q", domain.ErrInvalidArgument, g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	return s.groups.ReplaceDay(ctx, domain.DayGroups{Day: day, Groups: groups})
}
