package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	// Check format
	if !strings.HasPrefix(id, "job-") {
		t.Errorf("expected ID to start with 'job-', got %s", id)
	}

	u, err := uuid.Parse(strings.TrimPrefix(id, "job-"))
	if err != nil {
		t.Fatalf("expected a UUID suffix, got %s: %v", id, err)
	}
	if u.Version() != 7 {
		t.Errorf("expected UUID version 7, got %d", u.Version())
	}

	// Check uniqueness
	id2 := Generate()
	if id == id2 {
		t.Error("expected different IDs for consecutive calls")
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerate_SortsByCreation(t *testing.T) {
	prev := Generate()
	for i := 0; i < 100; i++ {
		next := Generate()
		if next <= prev {
			t.Fatalf("expected %s to sort after %s", next, prev)
		}
		prev = next
	}
}
