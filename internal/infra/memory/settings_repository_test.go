package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-games-service/internal/domain"
)

func TestSettingsRepositorySingleton(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository()

	if _, ok, _ := repo.Get(ctx); ok {
		t.Fatalf("expected no settings before create")
	}
	if err := repo.Create(ctx, domain.DefaultSettings()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, domain.DefaultSettings()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second create, got %v", err)
	}
}

func TestSettingsRepositoryConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository()

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, domain.DefaultSettings()); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one create to win, got %d", created)
	}
	settings, ok, err := repo.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("get after create: ok=%v err=%v", ok, err)
	}
	if settings.CurrentDay != domain.Day1 {
		t.Fatalf("expected default currentDay day1, got %s", settings.CurrentDay)
	}
}

func TestSettingsRepositoryColorReplacement(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository()
	if err := repo.Create(ctx, domain.DefaultSettings()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetGroupColors(ctx, domain.Day2, []string{"red", "blue"}); err != nil {
		t.Fatalf("set colors: %v", err)
	}
	if err := repo.SetGroupColors(ctx, domain.Day2, []string{"green"}); err != nil {
		t.Fatalf("replace colors: %v", err)
	}

	settings, _, _ := repo.Get(ctx)
	if len(settings.GroupColors[domain.Day2]) != 1 || settings.GroupColors[domain.Day2][0] != "green" {
		t.Fatalf("expected wholesale replacement, got %+v", settings.GroupColors)
	}
	if _, ok := settings.GroupColors[domain.Day3]; ok {
		t.Fatalf("day3 colors should be untouched")
	}
}
