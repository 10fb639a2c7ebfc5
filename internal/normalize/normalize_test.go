package normalize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/healthstore/memstore"
	"github.com/claude/healthbridge/internal/reader"
)

var day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newNormalizer(t *testing.T, store *memstore.Store, concurrency int) *Normalizer {
	t.Helper()
	n, err := New(reader.New(store, reader.Options{}, testLogger()), concurrency, testLogger())
	require.NoError(t, err)
	t.Cleanup(n.Close)
	return n
}

func workout(start time.Time, code healthstore.ExerciseType, id string) healthstore.Record {
	return healthstore.Record{
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Metadata:  healthstore.Metadata{ID: id, DataOrigin: "com.example.run"},
		Payload:   healthstore.ExerciseSession{ExerciseType: code},
	}
}

func at(start time.Time, p healthstore.Payload) healthstore.Record {
	return healthstore.Record{StartTime: start, EndTime: start.Add(time.Minute), Payload: p}
}

func TestNormalizeSteps(t *testing.T) {
	n := newNormalizer(t, memstore.New(0), 0)
	rec := healthstore.Record{
		StartTime: day1,
		EndTime:   day1.Add(time.Hour),
		Metadata:  healthstore.Metadata{DataOrigin: "com.example.fit"},
		Payload:   healthstore.Steps{Count: 150},
	}

	out, err := n.Normalize(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 150.0, *out[0].Value)
	require.Equal(t, day1.UnixMilli(), out[0].DateFrom)
	require.Equal(t, day1.Add(time.Hour).UnixMilli(), out[0].DateTo)
	require.Equal(t, "", out[0].SourceID)
	require.Equal(t, "com.example.fit", out[0].SourceName)
	require.Nil(t, out[0].WorkoutActivityType)
}

func TestNormalizeUnsupportedKind(t *testing.T) {
	n := newNormalizer(t, memstore.New(0), 0)

	_, err := n.Normalize(context.Background(), at(day1, healthstore.Distance{Meters: 3}))
	require.ErrorIs(t, err, ErrUnsupportedRecordKind)

	_, err = n.NormalizeAll(context.Background(), []healthstore.Record{
		at(day1, healthstore.Steps{Count: 1}),
		at(day1, healthstore.TotalCaloriesBurned{Kilocalories: 3}),
	})
	require.ErrorIs(t, err, ErrUnsupportedRecordKind)
}

func TestWorkoutEnrichment(t *testing.T) {
	store := memstore.New(0)
	w := workout(day1, healthstore.ExerciseTypeRunning, "w1")
	store.Add(
		at(day1.Add(5*time.Minute), healthstore.Distance{Meters: 1200}),
		at(day1.Add(20*time.Minute), healthstore.Distance{Meters: 800}),
		at(day1.Add(10*time.Minute), healthstore.TotalCaloriesBurned{Kilocalories: 120.5}),
		at(day1.Add(45*time.Minute), healthstore.Distance{Meters: 999}), // outside the workout
	)
	n := newNormalizer(t, store, 0)

	out, err := n.Normalize(context.Background(), w)
	require.NoError(t, err)
	rec := out[0]
	require.Equal(t, "RUNNING", *rec.WorkoutActivityType)
	require.Equal(t, 2000.0, *rec.TotalDistance)
	require.Equal(t, "METER", *rec.TotalDistanceUnit)
	require.Equal(t, 120.5, *rec.TotalEnergyBurned)
	require.Equal(t, "KILOCALORIE", *rec.TotalEnergyBurnedUnit)
	require.Equal(t, "MINUTES", rec.Unit)
	require.Nil(t, rec.Value)
	require.Equal(t, "com.example.run", rec.SourceName)
}

func TestWorkoutEnrichmentNullForExactZero(t *testing.T) {
	store := memstore.New(0)
	store.Add(
		at(day1.Add(5*time.Minute), healthstore.Distance{Meters: 0}),
		at(day1.Add(5*time.Minute), healthstore.TotalCaloriesBurned{Kilocalories: 0.1}),
	)
	n := newNormalizer(t, store, 0)

	out, err := n.Normalize(context.Background(), workout(day1, healthstore.ExerciseTypeYoga, "w1"))
	require.NoError(t, err)
	require.Nil(t, out[0].TotalDistance)
	require.NotNil(t, out[0].TotalEnergyBurned)
	require.Equal(t, 0.1, *out[0].TotalEnergyBurned)
	require.Equal(t, "YOGA", *out[0].WorkoutActivityType)
}

func TestWorkoutUnmappedActivity(t *testing.T) {
	n := newNormalizer(t, memstore.New(0), 0)

	out, err := n.Normalize(context.Background(), workout(day1, healthstore.ExerciseTypeSoccer, "w1"))
	require.NoError(t, err)
	require.Equal(t, "OTHER", *out[0].WorkoutActivityType)
	require.Nil(t, out[0].TotalDistance)
	require.Nil(t, out[0].TotalEnergyBurned)
}

func TestEnrichmentFailureIsIsolated(t *testing.T) {
	for _, concurrency := range []int{0, 4} {
		store := memstore.New(0)
		failing := workout(day1, healthstore.ExerciseTypeRunning, "bad")
		healthy := workout(day1.Add(2*time.Hour), healthstore.ExerciseTypeWalking, "good")
		store.Add(
			at(day1.Add(5*time.Minute), healthstore.Distance{Meters: 500}),
			at(day1.Add(2*time.Hour+5*time.Minute), healthstore.Distance{Meters: 700}),
		)
		store.FailRead = func(req healthstore.ReadRequest) error {
			if req.Kind == healthstore.KindDistance && req.Window.Start.Equal(day1) {
				return errors.New("provider hiccup")
			}
			return nil
		}
		n := newNormalizer(t, store, concurrency)

		out, err := n.NormalizeAll(context.Background(), []healthstore.Record{failing, healthy})
		require.NoError(t, err, "concurrency %d", concurrency)
		require.Len(t, out, 2)
		require.Nil(t, out[0].TotalDistance)
		require.Equal(t, "RUNNING", *out[0].WorkoutActivityType)
		require.Equal(t, 700.0, *out[1].TotalDistance)
		require.Equal(t, "WALKING", *out[1].WorkoutActivityType)
	}
}

func TestNormalizeAllPreservesOrderConcurrently(t *testing.T) {
	store := memstore.New(0)
	var records []healthstore.Record
	for i := range 20 {
		start := day1.Add(time.Duration(i) * time.Hour)
		records = append(records, workout(start, healthstore.ExerciseTypeBiking, ""))
		store.Add(at(start.Add(time.Minute), healthstore.Distance{Meters: float64(i + 1)}))
	}
	records = append(records, at(day1, healthstore.Steps{Count: 5}))
	n := newNormalizer(t, store, 8)

	out, err := n.NormalizeAll(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, out, 21)
	for i := range 20 {
		require.Equal(t, float64(i+1), *out[i].TotalDistance)
	}
	require.Equal(t, 5.0, *out[20].Value)
}
