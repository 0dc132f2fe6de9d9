package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"event-games-service/internal/infra/memory"
)

const quizCSV = "question,answer\nWhat is 2+2?,4\n"

func TestIngestAssignsSequentialVersions(t *testing.T) {
	ctx := context.Background()
	service := app.NewContentService(memory.NewContentRepository())

	for want := 1; want <= 4; want++ {
		version, err := service.Ingest(ctx, "day1", "quiz", "", strings.NewReader(quizCSV))
		if err != nil {
			t.Fatalf("ingest %d: %v", want, err)
		}
		if version != want {
			t.Fatalf("expected version %d, got %d", want, version)
		}
	}

	current, err := service.Current(ctx, "day1", "quiz", "")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Version != 4 || current.Group != domain.DefaultGroup {
		t.Fatalf("unexpected current: %+v", current)
	}
	if len(current.Payload) != 1 || current.Payload[0]["answer"] != "4" {
		t.Fatalf("unexpected payload: %+v", current.Payload)
	}
}

func TestIngestSeparateKeysSeparateSequences(t *testing.T) {
	ctx := context.Background()
	service := app.NewContentService(memory.NewContentRepository())

	v1, err := service.Ingest(ctx, "day2", "crossword", "red", strings.NewReader(quizCSV))
	if err != nil || v1 != 1 {
		t.Fatalf("expected red v1, got %d (%v)", v1, err)
	}
	v2, err := service.Ingest(ctx, "day2", "crossword", "blue", strings.NewReader(quizCSV))
	if err != nil || v2 != 1 {
		t.Fatalf("expected blue v1, got %d (%v)", v2, err)
	}
}

func TestIngestValidation(t *testing.T) {
	ctx := context.Background()
	service := app.NewContentService(memory.NewContentRepository())

	if _, err := service.Ingest(ctx, "day4", "quiz", "", strings.NewReader(quizCSV)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid day, got %v", err)
	}
	if _, err := service.Ingest(ctx, "day1", "chess", "", strings.NewReader(quizCSV)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid game, got %v", err)
	}
	if _, err := service.Ingest(ctx, "day1", "quiz", "", strings.NewReader("a,b\n1\n")); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestIngestConcurrentSameKeyNoDuplicateVersions(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewContentRepository()
	service := app.NewContentService(repo)

	const uploads = 12
	var wg sync.WaitGroup
	versions := make(chan int, uploads)

	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			version, err := service.Ingest(ctx, "day3", "wordSearch", "", strings.NewReader(quizCSV))
			if err != nil {
				// Losing the bounded retry is an allowed outcome; a silent
				// duplicate version is not.
				if !errors.Is(err, domain.ErrConflict) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			versions <- version
		}()
	}
	wg.Wait()
	close(versions)

	seen := map[int]bool{}
	count := 0
	for v := range versions {
		if seen[v] {
			t.Fatalf("duplicate version %d persisted", v)
		}
		seen[v] = true
		count++
	}
	if count == 0 {
		t.Fatalf("expected at least one successful ingest")
	}
	max, err := repo.MaxVersion(ctx, domain.Day3, domain.GameWordSearch, domain.DefaultGroup)
	if err != nil {
		t.Fatalf("max version: %v", err)
	}
	if max != count {
		t.Fatalf("expected contiguous versions 1..%d, max is %d", count, max)
	}
}

func TestIngestRetriesOnceAfterLostRace(t *testing.T) {
	ctx := context.Background()
	repo := &racingContentRepo{ContentRepository: memory.NewContentRepository()}
	service := app.NewContentService(repo)

	version, err := service.Ingest(ctx, "day1", "quiz", "", strings.NewReader(quizCSV))
	if err != nil {
		t.Fatalf("ingest after lost race: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected retried version 2, got %d", version)
	}
	if repo.inserts != 2 {
		t.Fatalf("expected exactly 2 insert attempts, got %d", repo.inserts)
	}
}

// racingContentRepo makes the first insert lose the race by slipping a
// competing version 1 in just before it.
type racingContentRepo struct {
	app.ContentRepository
	inserts int
}

func (r *racingContentRepo) Insert(ctx context.Context, cv domain.ContentVersion) error {
	r.inserts++
	if r.inserts == 1 {
		competitor := cv
		if err := r.ContentRepository.Insert(ctx, competitor); err != nil {
			return err
		}
	}
	return r.ContentRepository.Insert(ctx, cv)
}

func TestCurrentNotFound(t *testing.T) {
	ctx := context.Background()
	service := app.NewContentService(memory.NewContentRepository())
	if _, err := service.Current(ctx, "day1", "quiz", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
