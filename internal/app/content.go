package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"event-games-service/internal/domain"
	"event-games-service/internal/tabular"
)

// ContentRepository stores the append-only content history. Implementations
// must reject a duplicate (day, game, group, version) with domain.ErrConflict;
// that uniqueness guarantee is what makes version assignment safe.
type ContentRepository interface {
	// MaxVersion returns 0 when the key has no uploads yet.
	MaxVersion(ctx context.Context, day domain.Day, game domain.Game, group string) (int, error)
	Insert(ctx context.Context, cv domain.ContentVersion) error
	// Current returns the highest-version upload; domain.ErrNotFound when none.
	Current(ctx context.Context, day domain.Day, game domain.Game, group string) (domain.ContentVersion, error)
}

// ContentService validates and ingests uploaded game content.
type ContentService struct {
	contents ContentRepository
	clock    func() time.Time
}

func NewContentService(contents ContentRepository) *ContentService {
	return &ContentService{contents: contents, clock: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (s *ContentService) WithClock(now func() time.Time) *ContentService {
	s.clock = now
	return s
}

// Ingest parses tabular content and appends it as the next version for the
// (day, game, group) key. If a concurrent upload wins the version race the
// computation is retried exactly once before surfacing the conflict; two
// records with the same version are never persisted.
func (s *ContentService) Ingest(ctx context.Context, rawDay, rawGame, group string, src io.Reader) (int, error) {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return 0, err
	}
	game, err := domain.ParseGame(rawGame)
	if err != nil {
		return 0, err
	}
	if group == "" {
		group = domain.DefaultGroup
	}

	rows, err := tabular.Parse(src)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		max, err := s.contents.MaxVersion(ctx, day, game, group)
		if err != nil {
			return 0, err
		}
		cv := domain.ContentVersion{
			Day:        day,
			Game:       game,
			Group:      group,
			Version:    max + 1,
			Payload:    rows,
			UploadedAt: s.clock(),
		}
		if err := s.contents.Insert(ctx, cv); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return 0, err
		}
		return cv.Version, nil
	}
	return 0, fmt.Errorf("%w: lost version race for %s/%s/%s twice", domain.ErrConflict, day, game, group)
}

// Current returns the latest content for a key, defaulting the group.
func (s *ContentService) Current(ctx context.Context, rawDay, rawGame, group string) (domain.ContentVersion, error) {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return domain.ContentVersion{}, err
	}
	game, err := domain.ParseGame(rawGame)
	if err != nil {
		return domain.ContentVersion{}, err
	}
	if group == "" {
		group = domain.DefaultGroup
	}
	return s.contents.Current(ctx, day, game, group)
}
