package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
)

// ParticipantRepository is an in-memory implementation of
// app.ParticipantRepository with the same uniqueness semantics as the
// Postgres primary key.
type ParticipantRepository struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

var _ app.ParticipantRepository = (*ParticipantRepository)(nil)

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{participants: make(map[string]domain.Participant)}
}

func (r *ParticipantRepository) Insert(_ context.Context, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.participants[p.ExternalID]; exists {
		return fmt.Errorf("%w: participant %q already registered", domain.ErrConflict, p.ExternalID)
	}
	p.Scores = p.Scores.Clone()
	r.participants[p.ExternalID] = p
	return nil
}

func (r *ParticipantRepository) Get(_ context.Context, externalID string) (domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[externalID]
	if !ok {
		return domain.Participant{}, fmt.Errorf("%w: participant %q", domain.ErrNotFound, externalID)
	}
	p.Scores = p.Scores.Clone()
	return p, nil
}

func (r *ParticipantRepository) List(_ context.Context) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		p.Scores = p.Scores.Clone()
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *ParticipantRepository) SetScore(_ context.Context, externalID string, game domain.Game, day domain.Day, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[externalID]
	if !ok {
		return fmt.Errorf("%w: participant %q", domain.ErrNotFound, externalID)
	}
	p.Scores.Set(game, day, score)
	r.participants[externalID] = p
	return nil
}
