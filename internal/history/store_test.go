package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "monoscope.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndRecent(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.Save(Run{
			RunID:          string(rune('a' + i)),
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			ProjectRoot:    "/proj",
			ComponentCount: 10 + i,
			EdgeCount:      20,
			ClusterCount:   4,
			ProposalCount:  3,
			AltaCount:      1,
			MediaCount:     1,
			BajaCount:      1,
			TotalLOC:       1000,
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	runs, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "c" || runs[1].RunID != "b" {
		t.Fatalf("runs not ordered newest first: %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].ComponentCount != 12 {
		t.Fatalf("component count = %d, want 12", runs[0].ComponentCount)
	}
}

func TestStore_UpsertByRunID(t *testing.T) {
	store := openTestStore(t)

	run := Run{RunID: "same", Timestamp: time.Now().UTC(), ComponentCount: 5}
	if err := store.Save(run); err != nil {
		t.Fatalf("first save: %v", err)
	}
	run.ComponentCount = 9
	if err := store.Save(run); err != nil {
		t.Fatalf("second save: %v", err)
	}

	runs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 after upsert", len(runs))
	}
	if runs[0].ComponentCount != 9 {
		t.Fatalf("component count = %d, want 9", runs[0].ComponentCount)
	}
}
