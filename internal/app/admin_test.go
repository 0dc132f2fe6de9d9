package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"event-games-service/internal/infra/memory"
)

func newAdmin() (*app.AdminService, *memory.GroupRepository) {
	groups := memory.NewGroupRepository()
	return app.NewAdminService(memory.NewSettingsRepository(), groups), groups
}

func TestGetSettingsLazilyCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	service, _ := newAdmin()

	settings, err := service.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.CurrentDay != domain.Day1 {
		t.Fatalf("expected default day1, got %s", settings.CurrentDay)
	}
	if len(settings.GroupColors) != 0 {
		t.Fatalf("expected empty color maps, got %+v", settings.GroupColors)
	}
}

func TestGetSettingsConcurrentFirstAccess(t *testing.T) {
	ctx := context.Background()
	service, _ := newAdmin()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan domain.Settings, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settings, err := service.GetSettings(ctx)
			if err != nil {
				t.Errorf("get settings: %v", err)
				return
			}
			results <- settings
		}()
	}
	wg.Wait()
	close(results)

	// Every caller observes the single default document.
	for settings := range results {
		if settings.CurrentDay != domain.Day1 {
			t.Fatalf("caller observed non-default settings: %+v", settings)
		}
	}
}

func TestSetCurrentDay(t *testing.T) {
	ctx := context.Background()
	service, _ := newAdmin()

	if err := service.SetCurrentDay(ctx, "day3"); err != nil {
		t.Fatalf("set current day: %v", err)
	}
	settings, _ := service.GetSettings(ctx)
	if settings.CurrentDay != domain.Day3 {
		t.Fatalf("expected day3, got %s", settings.CurrentDay)
	}

	if err := service.SetCurrentDay(ctx, "weekend"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestSetGroupColorsReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	service, _ := newAdmin()

	if err := service.SetGroupColors(ctx, "day2", []string{"red", "blue"}); err != nil {
		t.Fatalf("set colors: %v", err)
	}
	if err := service.SetGroupColors(ctx, "day3", []string{"gold"}); err != nil {
		t.Fatalf("set colors: %v", err)
	}

	settings, _ := service.GetSettings(ctx)
	day2 := settings.GroupColors[domain.Day2]
	if len(day2) != 2 || day2[0] != "red" || day2[1] != "blue" {
		t.Fatalf("unexpected day2 colors: %+v", day2)
	}

	if err := service.SetGroupColors(ctx, "day2", []string{"green"}); err != nil {
		t.Fatalf("replace colors: %v", err)
	}
	settings, _ = service.GetSettings(ctx)
	if len(settings.GroupColors[domain.Day2]) != 1 {
		t.Fatalf("expected wholesale replacement, got %+v", settings.GroupColors[domain.Day2])
	}
	if len(settings.GroupColors[domain.Day3]) != 1 || settings.GroupColors[domain.Day3][0] != "gold" {
		t.Fatalf("day3 must be unchanged, got %+v", settings.GroupColors[domain.Day3])
	}
}

func TestSetGroupColorsValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newAdmin()

	if err := service.SetGroupColors(ctx, "day1", []string{"red"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("day1 has no colors, got %v", err)
	}
	if err := service.SetGroupColors(ctx, "day2", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("nil colors must be rejected, got %v", err)
	}
	if err := service.SetGroupColors(ctx, "day2", []string{}); err != nil {
		t.Fatalf("empty list is a valid wholesale replacement: %v", err)
	}
}

func TestSetGroups(t *testing.T) {
	ctx := context.Background()
	service, groups := newAdmin()

	if err := service.SetGroups(ctx, "day1", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("day1 has no groups, got %v", err)
	}
	if err := service.SetGroups(ctx, "day2", []domain.Group{{Name: "red"}, {Name: "red"}}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("duplicate names must be rejected, got %v", err)
	}

	want := []domain.Group{
		{Name: "red", Members: []string{"u1", "u2"}, TotalScore: 12},
		{Name: "blue", Members: []string{"u3"}, TotalScore: 7},
	}
	if err := service.SetGroups(ctx, "day2", want); err != nil {
		t.Fatalf("set groups: %v", err)
	}

	stored, ok, err := groups.GetDay(ctx, domain.Day2)
	if err != nil || !ok {
		t.Fatalf("get day: ok=%v err=%v", ok, err)
	}
	if len(stored.Groups) != 2 || stored.Groups[0].Name != "red" || stored.Groups[1].TotalScore != 7 {
		t.Fatalf("unexpected stored groups: %+v", stored.Groups)
	}
}
