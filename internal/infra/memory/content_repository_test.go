package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-games-service/internal/domain"
)

func TestContentRepositoryRejectsDuplicateVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository()

	cv := domain.ContentVersion{Day: domain.Day1, Game: domain.GameQuiz, Group: domain.DefaultGroup, Version: 1}
	if err := repo.Insert(ctx, cv); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := repo.Insert(ctx, cv); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Same version on a different key is fine.
	other := cv
	other.Group = "blue"
	if err := repo.Insert(ctx, other); err != nil {
		t.Fatalf("insert other group: %v", err)
	}
}

func TestContentRepositoryConcurrentInsertsSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository()

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Insert(ctx, domain.ContentVersion{
				Day: domain.Day2, Game: domain.GameCrossword, Group: domain.DefaultGroup, Version: 1,
			})
			if errors.Is(err, domain.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if conflicts != writers-1 {
		t.Fatalf("expected exactly one winner, got %d conflicts", conflicts)
	}
	max, err := repo.MaxVersion(ctx, domain.Day2, domain.GameCrossword, domain.DefaultGroup)
	if err != nil || max != 1 {
		t.Fatalf("expected max version 1, got %d (%v)", max, err)
	}
}

func TestContentRepositoryCurrentReturnsMax(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepository()

	for v := 1; v <= 3; v++ {
		payload := []domain.Row{{"n": string(rune('0' + v))}}
		if err := repo.Insert(ctx, domain.ContentVersion{
			Day: domain.Day1, Game: domain.GameWordSearch, Group: domain.DefaultGroup, Version: v, Payload: payload,
		}); err != nil {
			t.Fatalf("insert v%d: %v", v, err)
		}
	}

	current, err := repo.Current(ctx, domain.Day1, domain.GameWordSearch, domain.DefaultGroup)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Version != 3 {
		t.Fatalf("expected version 3, got %d", current.Version)
	}

	_, err = repo.Current(ctx, domain.Day3, domain.GameWordSearch, domain.DefaultGroup)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
