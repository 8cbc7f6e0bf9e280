package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mossline/wellspring-server/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wellspring.json")
	s, err := Open(NewFileBackend(path))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s, path
}

func TestOpenMissingFileYieldsEmptyDocument(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.View(func(doc *Document) error {
		if doc.MoodEntries == nil || doc.DashboardData == nil || doc.Challenges == nil {
			t.Error("expected all document sections allocated")
		}
		if len(doc.UserIDs()) != 0 {
			t.Errorf("expected no users, got %v", doc.UserIDs())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	s, path := newTestStore(t)

	err := s.Update(func(doc *Document) error {
		doc.MoodEntries["ada"] = append(doc.MoodEntries["ada"], models.MoodEntry{
			Mood:      3,
			Stress:    2,
			Feeling:   "calm",
			Timestamp: "2026-08-01T09:00:00Z",
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	reloaded, err := Open(NewFileBackend(path))
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	err = reloaded.View(func(doc *Document) error {
		entries := doc.MoodEntries["ada"]
		if len(entries) != 1 || entries[0].Feeling != "calm" {
			t.Errorf("reloaded entries = %+v", entries)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
}

func TestSaveLoadRoundTripIsStable(t *testing.T) {
	s, path := newTestStore(t)

	err := s.Update(func(doc *Document) error {
		doc.MoodEntries["ada"] = []models.MoodEntry{{Mood: 1, Stress: 4, Timestamp: "2026-08-01T09:00:00Z"}}
		doc.Challenges["ada"] = []models.ChallengeInstance{{ID: "ch-1", Name: "Reset", Status: models.ChallengeActive}}
		doc.Dashboard("ada").CompletedChallenges = append(doc.Dashboard("ada").CompletedChallenges,
			models.CompletedChallenge{ChallengeID: "ch-0", Name: "Old", CompletedDate: "2026-07-20", DaysCompleted: 3})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}

	// Reload and save without changes; the bytes must not drift.
	reloaded, err := Open(NewFileBackend(path))
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	if err := reloaded.Update(func(doc *Document) error { return nil }); err != nil {
		t.Fatalf("no-op Update() error: %v", err)
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("save(load()) changed the document bytes")
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.Update(func(doc *Document) error {
				doc.MoodEntries["ada"] = append(doc.MoodEntries["ada"], models.MoodEntry{Mood: n % 5, Stress: 1})
				return nil
			})
			if err != nil {
				t.Errorf("Update() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	err := s.View(func(doc *Document) error {
		if got := len(doc.MoodEntries["ada"]); got != writers {
			t.Errorf("entries = %d, want %d (lost update)", got, writers)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
}

func TestUpdateErrorSkipsSave(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.Update(func(doc *Document) error { return nil }); err != nil {
		t.Fatalf("seed Update() error: %v", err)
	}
	before, _ := os.ReadFile(path)

	wantErr := json.Unmarshal([]byte("{"), &struct{}{}) // any non-nil error
	err := s.Update(func(doc *Document) error { return wantErr })
	if err == nil {
		t.Fatal("expected error from Update")
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("failed update must not rewrite the document")
	}
}
