package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/healthstore/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestLoadFile verifies kinds, payloads, origins and activity names are decoded.
func TestLoadFile(t *testing.T) {
	records, err := LoadFile("testdata/week.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	if got := records[0].Payload; got != (healthstore.Steps{Count: 150}) {
		t.Errorf("steps payload = %#v", got)
	}
	if records[0].Metadata.DataOrigin != "com.example.fit" {
		t.Errorf("default origin = %q", records[0].Metadata.DataOrigin)
	}
	if !records[0].StartTime.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", records[0].StartTime)
	}

	session, ok := records[2].Payload.(healthstore.ExerciseSession)
	if !ok {
		t.Fatalf("record 2 payload = %T", records[2].Payload)
	}
	if session.ExerciseType != healthstore.ExerciseTypeRunningTreadmill || session.Title != "Intervals" {
		t.Errorf("session = %+v", session)
	}
	if records[2].Metadata.DataOrigin != "com.example.run" {
		t.Errorf("record origin = %q", records[2].Metadata.DataOrigin)
	}
}

// TestParseRejectsBadRecords verifies unknown kinds, activities and inverted windows fail.
func TestParseRejectsBadRecords(t *testing.T) {
	cases := map[string]string{
		"unknown kind": `records: [{kind: HeartRate, start: 2024-01-01T00:00:00Z, end: 2024-01-01T01:00:00Z}]`,
		"activity":     `records: [{kind: ExerciseSession, activity: QUIDDITCH, start: 2024-01-01T00:00:00Z, end: 2024-01-01T01:00:00Z}]`,
		"inverted":     `records: [{kind: Steps, start: 2024-01-02T00:00:00Z, end: 2024-01-01T00:00:00Z}]`,
		"not yaml":     `records: [`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

// TestExerciseTypeCode verifies a raw code wins over the activity name.
func TestExerciseTypeCode(t *testing.T) {
	records, err := Parse([]byte(`records: [{kind: ExerciseSession, exercise_type: 64, activity: YOGA, start: 2024-01-01T00:00:00Z, end: 2024-01-01T01:00:00Z}]`))
	if err != nil {
		t.Fatal(err)
	}
	if got := records[0].Payload.(healthstore.ExerciseSession).ExerciseType; got != 64 {
		t.Errorf("exercise type = %d, want 64", got)
	}
}

// TestSeedDirectory verifies every fixture file is loaded and re-seeding only
// counts duplicates for records with fixed IDs.
func TestSeedDirectory(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/week.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("records: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := memstore.New(0)
	stats, err := New(store, discardLogger(), false).Seed(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 1 || stats.FilesErrored != 1 {
		t.Errorf("files = %d processed, %d errored", stats.FilesProcessed, stats.FilesErrored)
	}
	if stats.RecordsInserted != 4 {
		t.Errorf("inserted = %d, want 4", stats.RecordsInserted)
	}

	stats, err = New(store, discardLogger(), false).Seed(context.Background(), filepath.Join(dir, "a.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.RecordsInserted != 3 || stats.RecordsDuplicate != 1 {
		t.Errorf("second run = %d inserted, %d duplicate; want 3, 1", stats.RecordsInserted, stats.RecordsDuplicate)
	}
}

// TestSeedDryRun verifies nothing is written in dry-run mode.
func TestSeedDryRun(t *testing.T) {
	store := memstore.New(0)
	stats, err := New(store, discardLogger(), true).Seed(context.Background(), "testdata/week.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if stats.RecordsInserted != 4 {
		t.Errorf("counted = %d, want 4", stats.RecordsInserted)
	}
	resp, err := store.ReadRecords(context.Background(), healthstore.ReadRequest{
		Kind:   healthstore.KindSteps,
		Window: healthstore.BetweenMillis(1704067200000, 1704240000000),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 0 {
		t.Errorf("dry run wrote %d records", len(resp.Records))
	}
}
