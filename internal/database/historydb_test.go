package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdreorg/mdreorg/internal/model"
)

// setupTestDB creates a HistoryDB in a temporary directory.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := hdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return hdb
}

// testReport builds a minimal run report with one broken reference.
func testReport(root string) *model.RunReport {
	rep := model.NewRunReport(root, "check")
	rep.Documents["a.md"] = model.NewDocument("a.md", []byte("x\n"), 0644)
	rep.Files["a.md"] = true

	rep.Integrity = &model.IntegrityReport{}
	rep.Integrity.Add(model.IntegrityEntry{Status: model.StatusOK})
	rep.Integrity.Add(model.IntegrityEntry{
		Status: model.StatusBroken,
		Ref:    model.Reference{Owner: "a.md", Line: 3, RawTarget: "gone.md"},
	})
	return rep
}

// TestOpen tests database creation in a nested directory.
func TestOpen(t *testing.T) {
	t.Parallel()

	dbDir := filepath.Join(t.TempDir(), "nested", "dir")
	hdb, err := Open(dbDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer hdb.Close()

	if _, err := os.Stat(filepath.Join(dbDir, "mdreorg.db")); err != nil {
		t.Errorf("expected database file to exist: %v", err)
	}
}

// TestOpenNoCreate tests that mode=rw refuses a missing database file.
func TestOpenNoCreate(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false, EnableWAL: true}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error opening nonexistent database")
	}
}

// TestSaveRunReport tests the round trip of a run and its broken refs.
func TestSaveRunReport(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	runID, err := hdb.SaveRunReport(ctx, testReport("/repo"))
	if err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}
	if runID == 0 {
		t.Error("expected non-zero run ID")
	}

	records, err := hdb.ListRuns(ctx, "/repo", 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 run, got %d", len(records))
	}

	rec := records[0]
	if rec.ID != runID {
		t.Errorf("expected run ID %d, got %d", runID, rec.ID)
	}
	if rec.Mode != "check" {
		t.Errorf("expected mode check, got %s", rec.Mode)
	}
	if rec.DocumentCount != 1 {
		t.Errorf("expected 1 document, got %d", rec.DocumentCount)
	}
	if rec.OKCount != 1 || rec.BrokenCount != 1 {
		t.Errorf("expected 1 OK and 1 broken, got %d and %d", rec.OKCount, rec.BrokenCount)
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected parsed timestamp")
	}

	refs, err := hdb.BrokenRefs(ctx, runID)
	if err != nil {
		t.Fatalf("failed to fetch broken references: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 broken reference, got %d", len(refs))
	}
	if refs[0].Owner != "a.md" || refs[0].Line != 3 || refs[0].Target != "gone.md" {
		t.Errorf("unexpected broken reference: %+v", refs[0])
	}
}

// TestListRunsFilter tests root filtering and newest-first ordering.
func TestListRunsFilter(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	first, err := hdb.SaveRunReport(ctx, testReport("/repo-a"))
	if err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}
	second, err := hdb.SaveRunReport(ctx, testReport("/repo-a"))
	if err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}
	if _, err := hdb.SaveRunReport(ctx, testReport("/repo-b")); err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}

	records, err := hdb.ListRuns(ctx, "/repo-a", 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 runs for /repo-a, got %d", len(records))
	}
	if records[0].ID != second || records[1].ID != first {
		t.Errorf("expected newest-first order [%d %d], got [%d %d]",
			second, first, records[0].ID, records[1].ID)
	}

	all, err := hdb.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs total, got %d", len(all))
	}

	limited, err := hdb.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 run with limit 1, got %d", len(limited))
	}
}

// TestLatestRun tests latest-run lookup including the empty case.
func TestLatestRun(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	rec, err := hdb.LatestRun(ctx, "/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Error("expected nil record for empty database")
	}

	runID, err := hdb.SaveRunReport(ctx, testReport("/repo"))
	if err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}

	rec, err = hdb.LatestRun(ctx, "/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil || rec.ID != runID {
		t.Errorf("expected latest run %d, got %+v", runID, rec)
	}
}

// TestGetRunReport tests full report retrieval and the missing-ID case.
func TestGetRunReport(t *testing.T) {
	t.Parallel()

	hdb := setupTestDB(t)
	ctx := context.Background()

	runID, err := hdb.SaveRunReport(ctx, testReport("/repo"))
	if err != nil {
		t.Fatalf("failed to save run report: %v", err)
	}

	rep, err := hdb.GetRunReport(ctx, runID)
	if err != nil {
		t.Fatalf("failed to get run report: %v", err)
	}
	if rep == nil {
		t.Fatal("expected stored report")
	}
	if rep.Root != "/repo" || rep.Mode != "check" {
		t.Errorf("unexpected report contents: root=%s mode=%s", rep.Root, rep.Mode)
	}
	if rep.Integrity == nil || rep.Integrity.BrokenCount != 1 {
		t.Error("expected integrity section with 1 broken reference")
	}

	missing, err := hdb.GetRunReport(ctx, runID+1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil report for unknown run ID")
	}
}
