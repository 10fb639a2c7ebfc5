// Package normalize converts native records into CanonicalRecords, enriching
// workouts with distance and energy read over each workout's own window.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/reader"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// ErrUnsupportedRecordKind is returned for record kinds getData cannot emit.
var ErrUnsupportedRecordKind = errors.New("unsupported record kind")

// RecordReader is the subset of reader.Reader the enricher needs.
type RecordReader interface {
	ReadAll(ctx context.Context, kind healthstore.RecordKind, window healthstore.TimeRange) ([]healthstore.Record, error)
}

// Normalizer turns raw records into CanonicalRecords. With Concurrency > 1 it
// enriches workouts on an ants pool; otherwise workouts are enriched in order on
// the calling goroutine.
type Normalizer struct {
	reader RecordReader
	pool   *ants.Pool
	log    *slog.Logger
}

// New creates a Normalizer. Call Close to release the pool.
func New(r RecordReader, concurrency int, log *slog.Logger) (*Normalizer, error) {
	n := &Normalizer{reader: r, log: log}
	if concurrency > 1 {
		pool, err := ants.NewPool(concurrency)
		if err != nil {
			return nil, fmt.Errorf("creating enrichment pool: %w", err)
		}
		n.pool = pool
	}
	return n, nil
}

// Close releases the enrichment pool, if any.
func (n *Normalizer) Close() {
	if n.pool != nil {
		n.pool.Release()
	}
}

// Normalize converts one record. Workouts are enriched before being returned.
func (n *Normalizer) Normalize(ctx context.Context, rec healthstore.Record) ([]models.CanonicalRecord, error) {
	switch p := rec.Payload.(type) {
	case healthstore.Steps:
		return []models.CanonicalRecord{base(rec, float64(p.Count), models.UnitCount)}, nil
	case healthstore.ActiveCaloriesBurned:
		return []models.CanonicalRecord{base(rec, p.Kilocalories, models.UnitKilocalorie)}, nil
	case healthstore.ExerciseSession:
		return []models.CanonicalRecord{n.enrich(ctx, rec, p)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordKind, rec.Kind())
	}
}

// NormalizeAll converts records in order. An unsupported record fails the whole
// batch; a workout whose enrichment fails is still emitted with null totals.
func (n *Normalizer) NormalizeAll(ctx context.Context, records []healthstore.Record) ([]models.CanonicalRecord, error) {
	for _, rec := range records {
		switch rec.Kind() {
		case healthstore.KindSteps, healthstore.KindActiveCaloriesBurned, healthstore.KindExerciseSession:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordKind, rec.Kind())
		}
	}

	out := make([]models.CanonicalRecord, len(records))
	if n.pool == nil {
		for i, rec := range records {
			res, err := n.Normalize(ctx, rec)
			if err != nil {
				return nil, err
			}
			out[i] = res[0]
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for i, rec := range records {
		session, ok := rec.Payload.(healthstore.ExerciseSession)
		if !ok {
			res, err := n.Normalize(ctx, rec)
			if err != nil {
				return nil, err
			}
			out[i] = res[0]
			continue
		}

		wg.Add(1)
		err := n.pool.Submit(func() {
			defer wg.Done()
			out[i] = n.enrich(ctx, rec, session)
		})
		if err != nil {
			wg.Done()
			n.log.Warn("enrichment pool rejected task, enriching inline", "error", err)
			out[i] = n.enrich(ctx, rec, session)
		}
	}
	wg.Wait()
	return out, nil
}

func base(rec healthstore.Record, value float64, unit string) models.CanonicalRecord {
	return models.CanonicalRecord{
		Value:      models.Float64(value),
		Unit:       unit,
		DateFrom:   rec.StartTime.UnixMilli(),
		DateTo:     rec.EndTime.UnixMilli(),
		SourceID:   "",
		SourceName: rec.Metadata.DataOrigin,
	}
}

// enrich reads distance and total calories over the workout's window. A sum of
// exactly zero is reported as null. A failed read leaves its field null.
func (n *Normalizer) enrich(ctx context.Context, rec healthstore.Record, session healthstore.ExerciseSession) models.CanonicalRecord {
	out := models.CanonicalRecord{
		Unit:                  models.UnitMinutes,
		DateFrom:              rec.StartTime.UnixMilli(),
		DateTo:                rec.EndTime.UnixMilli(),
		SourceID:              "",
		SourceName:            rec.Metadata.DataOrigin,
		WorkoutActivityType:   models.String(taxonomy.ToCanonicalActivity(session.ExerciseType)),
		TotalDistanceUnit:     models.String(models.UnitMeter),
		TotalEnergyBurnedUnit: models.String(models.UnitKilocalorie),
	}

	window := rec.Window()
	if distance, err := n.sum(ctx, healthstore.KindDistance, window); err != nil {
		n.enrichmentFailed(rec, healthstore.KindDistance, err)
	} else {
		out.TotalDistance = models.NonZero(distance)
	}
	if energy, err := n.sum(ctx, healthstore.KindTotalCaloriesBurned, window); err != nil {
		n.enrichmentFailed(rec, healthstore.KindTotalCaloriesBurned, err)
	} else {
		out.TotalEnergyBurned = models.NonZero(energy)
	}
	return out
}

func (n *Normalizer) sum(ctx context.Context, kind healthstore.RecordKind, window healthstore.TimeRange) (float64, error) {
	records, err := n.reader.ReadAll(ctx, kind, window)
	if err != nil {
		return 0, err
	}
	return reader.Sum(records), nil
}

func (n *Normalizer) enrichmentFailed(rec healthstore.Record, kind healthstore.RecordKind, err error) {
	observability.RecordEnrichmentFailure()
	n.log.Warn("workout enrichment failed",
		"workout_id", rec.Metadata.ID,
		"kind", kind,
		"error", err,
	)
}
