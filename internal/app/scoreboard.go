package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"event-games-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultLeaderboardLimit bounds leaderboard responses when the caller gives
// no usable limit.
const DefaultLeaderboardLimit = 50

// ParticipantRepository abstracts how participants are stored (in-memory, Postgres).
type ParticipantRepository interface {
	// Insert fails with domain.ErrConflict when the external ID already exists.
	Insert(ctx context.Context, p domain.Participant) error
	// Get fails with domain.ErrNotFound for unknown IDs.
	Get(ctx context.Context, externalID string) (domain.Participant, error)
	// List returns all participants ordered by external ID ascending.
	List(ctx context.Context) ([]domain.Participant, error)
	// SetScore writes one score cell; fails with domain.ErrNotFound for unknown IDs.
	SetScore(ctx context.Context, externalID string, game domain.Game, day domain.Day, score int) error
}

// GroupRepository stores the single groups document per day.
type GroupRepository interface {
	GetDay(ctx context.Context, day domain.Day) (domain.DayGroups, bool, error)
	ReplaceDay(ctx context.Context, groups domain.DayGroups) error
}

// LeaderboardCache holds computed leaderboard snapshots. Implementations are
// best-effort: misses and failed writes only cost a recompute.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) (domain.Leaderboard, bool)
	Set(ctx context.Context, key string, lb domain.Leaderboard)
	Invalidate(ctx context.Context)
}

// ScoreboardService owns registration, score reads and writes, and
// leaderboard aggregation.
type ScoreboardService struct {
	participants ParticipantRepository
	groups       GroupRepository
	cache        LeaderboardCache // may be nil
	clock        func() time.Time
	sf           singleflight.Group

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewScoreboardService(participants ParticipantRepository, groups GroupRepository, cache LeaderboardCache) *ScoreboardService {
	return &ScoreboardService{
		participants: participants,
		groups:       groups,
		cache:        cache,
		clock:        time.Now,
		subscribers:  make(map[chan domain.Leaderboard]struct{}),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *ScoreboardService) WithClock(now func() time.Time) *ScoreboardService {
	s.clock = now
	return s
}

// Register creates a participant. A second registration with the same
// external ID fails with domain.ErrConflict and leaves the first untouched.
func (s *ScoreboardService) Register(ctx context.Context, externalID, displayName string) error {
	externalID = strings.TrimSpace(externalID)
	displayName = strings.TrimSpace(displayName)
	if externalID == "" || displayName == "" {
		return fmt.Errorf("%w: externalId and displayName are required", domain.ErrInvalidArgument)
	}
	if err := s.participants.Insert(ctx, domain.Participant{
		ExternalID:  externalID,
		DisplayName: displayName,
		Scores:      domain.ScoreMatrix{},
		CreatedAt:   s.clock(),
	}); err != nil {
		return err
	}
	s.broadcast(ctx)
	return nil
}

// GetScore returns a participant's score matrix.
func (s *ScoreboardService) GetScore(ctx context.Context, externalID string) (domain.ScoreMatrix, error) {
	p, err := s.participants.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return p.Scores.Clone(), nil
}

// SubmitScore sets one (game, day) cell to an absolute value. The write is a
// single store-level update so concurrent submissions for different cells
// cannot clobber each other.
func (s *ScoreboardService) SubmitScore(ctx context.Context, externalID, rawGame, rawDay string, score int) error {
	game, err := domain.ParseGame(rawGame)
	if err != nil {
		return err
	}
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return err
	}
	if score < 0 {
		return fmt.Errorf("%w: score must be non-negative", domain.ErrInvalidArgument)
	}
	if err := s.participants.SetScore(ctx, externalID, game, day, score); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.broadcast(ctx)
	return nil
}

// Leaderboard ranks participants by total score, descending, ties broken by
// external ID ascending. Non-positive limits fall back to the default.
func (s *ScoreboardService) Leaderboard(ctx context.Context, rawScope, rawDay string, limit int) (domain.Leaderboard, error) {
	scope, err := domain.ParseScope(rawScope)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	var day domain.Day
	if scope == domain.ScopeDay {
		if day, err = domain.ParseDay(rawDay); err != nil {
			return domain.Leaderboard{}, err
		}
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	lb, err := s.snapshot(ctx, scope, day)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if len(lb.Entries) > limit {
		lb.Entries = lb.Entries[:limit]
	}
	return lb, nil
}

// GroupedLeaderboard returns the stored groups document for day2/day3 in
// stored order. A missing document is an empty list, not an error.
func (s *ScoreboardService) GroupedLeaderboard(ctx context.Context, rawDay string) (domain.DayGroups, error) {
	day, err := domain.ParseDay(rawDay)
	if err != nil {
		return domain.DayGroups{}, err
	}
	if !day.Grouped() {
		return domain.DayGroups{}, fmt.Errorf("%w: day %s has no groups", domain.ErrInvalidArgument, day)
	}
	groups, ok, err := s.groups.GetDay(ctx, day)
	if err != nil {
		return domain.DayGroups{}, err
	}
	if !ok {
		return domain.DayGroups{Day: day, Groups: []domain.Group{}}, nil
	}
	return groups, nil
}

// Subscribe returns a channel receiving overall leaderboard snapshots after
// every accepted score write. The caller must invoke cancel to avoid leaks.
func (s *ScoreboardService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.snapshot(ctx, domain.ScopeOverall, "")
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *ScoreboardService) snapshot(ctx context.Context, scope domain.LeaderboardScope, day domain.Day) (domain.Leaderboard, error) {
	key := cacheKey(scope, day)
	if s.cache != nil {
		if lb, ok := s.cache.Get(ctx, key); ok {
			return lb, nil
		}
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if s.cache != nil {
			// Re-check in case another goroutine filled the cache.
			if lb, ok := s.cache.Get(ctx, key); ok {
				return lb, nil
			}
		}
		lb, err := s.compute(ctx, scope, day)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, key, lb)
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	lb := result.(domain.Leaderboard)
	// Copy before truncation so cached entries stay intact.
	entries := make([]domain.LeaderboardEntry, len(lb.Entries))
	copy(entries, lb.Entries)
	lb.Entries = entries
	return lb, nil
}

func (s *ScoreboardService) compute(ctx context.Context, scope domain.LeaderboardScope, day domain.Day) (domain.Leaderboard, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		total := 0
		if scope == domain.ScopeDay {
			total = p.Scores.DayTotal(day)
		} else {
			total = p.Scores.Total()
		}
		entries = append(entries, domain.LeaderboardEntry{
			ExternalID:  p.ExternalID,
			DisplayName: p.DisplayName,
			Total:       total,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].ExternalID < entries[j].ExternalID
	})

	return domain.Leaderboard{
		Scope:     scope,
		Day:       day,
		Entries:   entries,
		UpdatedAt: s.clock(),
	}, nil
}

func (s *ScoreboardService) broadcast(ctx context.Context) {
	s.mu.Lock()
	n := len(s.subscribers)
	s.mu.Unlock()
	if n == 0 {
		return
	}

	lb, err := s.compute(ctx, domain.ScopeOverall, "")
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so slow clients never block the writer.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func cacheKey(scope domain.LeaderboardScope, day domain.Day) string {
	if scope == domain.ScopeDay {
		return "leaderboard:day:" + string(day)
	}
	return "leaderboard:overall"
}
