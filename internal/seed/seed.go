// Package seed loads YAML record fixtures into a health store. It feeds the
// Postgres store in development and the in-memory store in tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// batchSize keeps each insert within PostgreSQL's parameter limit:
// 9 params per row, max 65535 params → ~7281 rows per batch.
const batchSize = 5000

// Inserter stores records and reports how many were new.
type Inserter interface {
	InsertRecords(ctx context.Context, records []healthstore.Record) (int64, error)
}

// File is one fixture document.
type File struct {
	Origin  string          `yaml:"origin"`
	Records []FixtureRecord `yaml:"records"`
}

// FixtureRecord is one record in a fixture. Value is the step count,
// kilocalories or meters depending on Kind. Workouts name their activity with a
// canonical name or a raw exercise_type code.
type FixtureRecord struct {
	ID           string    `yaml:"id"`
	Kind         string    `yaml:"kind"`
	Start        time.Time `yaml:"start"`
	End          time.Time `yaml:"end"`
	Value        float64   `yaml:"value"`
	Activity     string    `yaml:"activity"`
	ExerciseType *int      `yaml:"exercise_type"`
	Title        string    `yaml:"title"`
	Origin       string    `yaml:"origin"`
}

// Stats tracks seeding progress.
type Stats struct {
	FilesProcessed   int
	FilesErrored     int
	RecordsInserted  int64
	RecordsDuplicate int64
}

// Seeder reads fixture files and inserts their records.
type Seeder struct {
	sink   Inserter
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Seeder.
func New(sink Inserter, log *slog.Logger, dryRun bool) *Seeder {
	return &Seeder{sink: sink, log: log, dryRun: dryRun}
}

// Seed loads path, a fixture file or a directory of *.yaml / *.yml files.
// Unparseable files are logged and counted; insert failures abort.
func (s *Seeder) Seed(ctx context.Context, path string) (*Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &s.stats, fmt.Errorf("seed path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fixtureFiles(path)
		if err != nil {
			return &s.stats, err
		}
	}

	for _, f := range files {
		records, err := LoadFile(f)
		if err != nil {
			s.log.Warn("fixture parse failed", "file", f, "error", err)
			s.stats.FilesErrored++
			continue
		}
		s.stats.FilesProcessed++

		if s.dryRun {
			s.stats.RecordsInserted += int64(len(records))
			continue
		}
		if err := s.insert(ctx, records); err != nil {
			return &s.stats, fmt.Errorf("inserting %s: %w", filepath.Base(f), err)
		}
		s.log.Info("fixture loaded", "file", filepath.Base(f), "records", len(records))
	}
	return &s.stats, nil
}

func (s *Seeder) insert(ctx context.Context, records []healthstore.Record) error {
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		inserted, err := s.sink.InsertRecords(ctx, records[i:end])
		if err != nil {
			return err
		}
		s.stats.RecordsInserted += inserted
		s.stats.RecordsDuplicate += int64(end-i) - inserted
	}
	return nil
}

func fixtureFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile parses a fixture file into records.
func LoadFile(path string) ([]healthstore.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture document into records.
func Parse(data []byte) ([]healthstore.Record, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	records := make([]healthstore.Record, 0, len(f.Records))
	for i, fr := range f.Records {
		rec, err := fr.toRecord(f.Origin)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (fr FixtureRecord) toRecord(defaultOrigin string) (healthstore.Record, error) {
	kind, err := healthstore.ParseRecordKind(fr.Kind)
	if err != nil {
		return healthstore.Record{}, err
	}
	if err := healthstore.Between(fr.Start, fr.End).Validate(); err != nil {
		return healthstore.Record{}, err
	}

	origin := fr.Origin
	if origin == "" {
		origin = defaultOrigin
	}
	rec := healthstore.Record{
		StartTime: fr.Start.UTC(),
		EndTime:   fr.End.UTC(),
		Metadata: healthstore.Metadata{
			ID:           fr.ID,
			DataOrigin:   origin,
			LastModified: fr.End.UTC(),
		},
	}

	switch kind {
	case healthstore.KindSteps:
		rec.Payload = healthstore.Steps{Count: int64(fr.Value)}
	case healthstore.KindActiveCaloriesBurned:
		rec.Payload = healthstore.ActiveCaloriesBurned{Kilocalories: fr.Value}
	case healthstore.KindTotalCaloriesBurned:
		rec.Payload = healthstore.TotalCaloriesBurned{Kilocalories: fr.Value}
	case healthstore.KindDistance:
		rec.Payload = healthstore.Distance{Meters: fr.Value}
	case healthstore.KindExerciseSession:
		code, err := fr.exerciseType()
		if err != nil {
			return healthstore.Record{}, err
		}
		rec.Payload = healthstore.ExerciseSession{ExerciseType: code, Title: fr.Title}
	}
	return rec, nil
}

func (fr FixtureRecord) exerciseType() (healthstore.ExerciseType, error) {
	if fr.ExerciseType != nil {
		return healthstore.ExerciseType(*fr.ExerciseType), nil
	}
	if fr.Activity == "" {
		return healthstore.ExerciseTypeOtherWorkout, nil
	}
	code, ok := taxonomy.ToNativeActivity(strings.ToUpper(fr.Activity))
	if !ok {
		return 0, fmt.Errorf("unknown activity %q", fr.Activity)
	}
	return code, nil
}
