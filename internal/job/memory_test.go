package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRepository_Save(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("src", "")

	err := repo.Save(ctx, job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := repo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, saved.ID)
	}
}

func TestMemoryRepository_Save_MissingID(t *testing.T) {
	repo := NewMemoryRepository()

	err := repo.Save(context.Background(), NewWithID("", "src", ""))

	if !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

func TestMemoryRepository_Save_Update(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("src", "")

	_ = repo.Save(ctx, job)

	_ = job.Start()
	_ = job.Complete(Output{Name: "a.webp", Quality: 80})
	_ = repo.Save(ctx, job)

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, saved.Status)
	}
	if saved.Output.Quality != 80 {
		t.Errorf("expected quality 80, got %d", saved.Output.Quality)
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_IsolatesStoredJobs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("src", "")
	_ = repo.Save(ctx, job)

	// Mutating the original after save must not leak into the repository.
	job.Status = StatusFailed

	found, _ := repo.FindByID(ctx, job.ID)
	if found.Status != StatusInQueue {
		t.Errorf("expected stored status %s, got %s", StatusInQueue, found.Status)
	}

	// Mutating a returned job must not leak either.
	found.Status = StatusCompleted
	again, _ := repo.FindByID(ctx, job.ID)
	if again.Status != StatusInQueue {
		t.Errorf("expected stored status %s, got %s", StatusInQueue, again.Status)
	}
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		job := NewWithID(id, "src", "")
		job.CreatedAt = base.Add(time.Duration(2-i) * time.Minute)
		_ = repo.Save(ctx, job)
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, j := range jobs {
		got = append(got, j.ID)
	}
	want := []string{"b", "a", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("src", "")
	_ = repo.Save(ctx, job)

	if err := repo.Delete(ctx, job.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound on second delete, got %v", err)
	}
}

func TestMemoryRepository_Concurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := New("src", "")
			_ = repo.Save(ctx, job)
			_, _ = repo.FindByID(ctx, job.ID)
			_, _ = repo.List(ctx)
		}()
	}
	wg.Wait()

	jobs, _ := repo.List(ctx)
	if len(jobs) != 50 {
		t.Errorf("expected 50 jobs, got %d", len(jobs))
	}
}
