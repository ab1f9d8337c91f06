package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docpress/internal/job"
	"docpress/internal/verify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleJob(id string, created time.Time) *job.Job {
	return &job.Job{
		ID:         id,
		State:      job.StateDelivered,
		EngineUsed: "docgen",
		InputHash:  "aaaa",
		Artifact: job.ArtifactMetadata{
			Filename:    "acme-v1.0.0-release-notes.pdf",
			SizeBytes:   1234,
			Pages:       2,
			ContentHash: "bbbb",
		},
		Steps: []job.StepRecord{
			{Step: "validate", DurationMS: 3, Status: job.StepOK},
			{Step: "deliver", DurationMS: 1, Status: job.StepOK},
		},
		Warnings:  []string{"asset directory does not exist: ./assets"},
		CreatedAt: created,
		Verification: &verify.Report{
			ChecksPassed: 7,
			ChecksTotal:  7,
			Passed:       true,
		},
	}
}

func TestRecordAndGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, sampleJob("job-1", time.Now().UTC())); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entry, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.State != job.StateDelivered || entry.Engine != "docgen" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Filename != "acme-v1.0.0-release-notes.pdf" || entry.Pages != 2 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.ChecksPassed == nil || *entry.ChecksPassed != 7 {
		t.Fatalf("checks passed = %v", entry.ChecksPassed)
	}
	if len(entry.Steps) != 2 || entry.Steps[0].Step != "validate" {
		t.Fatalf("steps = %+v", entry.Steps)
	}
	if len(entry.Warnings) != 1 {
		t.Fatalf("warnings = %+v", entry.Warnings)
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"job-old", "job-mid", "job-new"} {
		if err := store.Record(ctx, sampleJob(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "job-new" || entries[1].ID != "job-mid" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestJobWithoutVerificationStoresNullChecks(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	j := sampleJob("job-2", time.Now().UTC())
	j.Verification = nil
	if err := store.Record(ctx, j); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entry, err := store.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.ChecksPassed != nil || entry.ChecksTotal != nil {
		t.Fatalf("checks = %v/%v, want nil", entry.ChecksPassed, entry.ChecksTotal)
	}
}

func TestPruneRemovesOldRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, sampleJob("job-old", time.Now().UTC().Add(-48*time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleJob("job-new", time.Now().UTC())); err != nil {
		t.Fatalf("Record: %v", err)
	}

	removed, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := store.Get(ctx, "job-old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old job should be pruned, got %v", err)
	}
	if _, err := store.Get(ctx, "job-new"); err != nil {
		t.Fatalf("new job must survive prune: %v", err)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(context.Background(), sampleJob("job-1", time.Now().UTC())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(context.Background(), "job-1"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
