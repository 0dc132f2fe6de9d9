package memory

import (
	"context"
	"fmt"
	"sync"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
)

type contentKey struct {
	day   domain.Day
	game  domain.Game
	group string
}

// ContentRepository is an in-memory implementation of app.ContentRepository.
// The per-key version map plays the role of the Postgres unique constraint.
type ContentRepository struct {
	mu       sync.RWMutex
	versions map[contentKey]map[int]domain.ContentVersion
}

var _ app.ContentRepository = (*ContentRepository)(nil)

func NewContentRepository() *ContentRepository {
	return &ContentRepository{versions: make(map[contentKey]map[int]domain.ContentVersion)}
}

func (r *ContentRepository) MaxVersion(_ context.Context, day domain.Day, game domain.Game, group string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for version := range r.versions[contentKey{day, game, group}] {
		if version > max {
			max = version
		}
	}
	return max, nil
}

func (r *ContentRepository) Insert(_ context.Context, cv domain.ContentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := contentKey{cv.Day, cv.Game, cv.Group}
	byVersion, ok := r.versions[key]
	if !ok {
		byVersion = make(map[int]domain.ContentVersion)
		r.versions[key] = byVersion
	}
	if _, exists := byVersion[cv.Version]; exists {
		return fmt.Errorf("%w: version %d already exists for %s/%s/%s", domain.ErrConflict, cv.Version, cv.Day, cv.Game, cv.Group)
	}
	byVersion[cv.Version] = cv
	return nil
}

func (r *ContentRepository) Current(_ context.Context, day domain.Day, game domain.Game, group string) (domain.ContentVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byVersion := r.versions[contentKey{day, game, group}]
	max := 0
	for version := range byVersion {
		if version > max {
			max = version
		}
	}
	if max == 0 {
		return domain.ContentVersion{}, fmt.Errorf("%w: no content for %s/%s/%s", domain.ErrNotFound, day, game, group)
	}
	return byVersion[max], nil
}
