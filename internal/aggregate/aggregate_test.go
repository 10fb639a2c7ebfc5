package aggregate

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
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/reader"
)

var day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newAggregator(store *memstore.Store) *Aggregator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, reader.New(store, reader.Options{}, log), log)
}

func at(start time.Time, p healthstore.Payload) healthstore.Record {
	return healthstore.Record{StartTime: start, EndTime: start.Add(time.Minute), Payload: p}
}

func TestSlices(t *testing.T) {
	window := healthstore.Between(day1, day1.Add(3*Day))
	slices := Slices(window, Day)
	require.Len(t, slices, 3)
	require.Equal(t, window.Start, slices[0].Start)
	require.Equal(t, window.End, slices[2].End)
	for i := 1; i < len(slices); i++ {
		require.Equal(t, slices[i-1].End, slices[i].Start)
	}

	clipped := Slices(healthstore.Between(day1, day1.Add(36*time.Hour)), Day)
	require.Len(t, clipped, 2)
	require.Equal(t, day1.Add(36*time.Hour), clipped[1].End)

	require.Empty(t, Slices(healthstore.Between(day1, day1), Day))
	require.Empty(t, Slices(healthstore.Between(day1, day1.Add(Day)), 0))
}

func TestAggregateByDurationThreeDays(t *testing.T) {
	store := memstore.New(0)
	store.Add(
		at(day1.Add(8*time.Hour), healthstore.Steps{Count: 1000}),
		at(day1.Add(2*Day+time.Hour), healthstore.Steps{Count: 42}),
	)

	buckets, err := newAggregator(store).AggregateByDuration(context.Background(),
		healthstore.StepsCountTotal, healthstore.Between(day1, day1.Add(3*Day)), Day)
	require.NoError(t, err)
	require.Equal(t, []models.AggregateBucket{
		{DateFrom: day1.UnixMilli(), DateTo: day1.Add(Day).UnixMilli(), Value: 1000},
		{DateFrom: day1.Add(Day).UnixMilli(), DateTo: day1.Add(2 * Day).UnixMilli(), Value: 0},
		{DateFrom: day1.Add(2 * Day).UnixMilli(), DateTo: day1.Add(3 * Day).UnixMilli(), Value: 42},
	}, buckets)
}

func TestStepsAndCaloriesScenario(t *testing.T) {
	store := memstore.New(0)
	store.Add(
		at(day1.Add(9*time.Hour), healthstore.Steps{Count: 100}),
		at(day1.Add(18*time.Hour), healthstore.Steps{Count: 50}),
		at(day1.Add(10*time.Hour), healthstore.TotalCaloriesBurned{Kilocalories: 100.2}),
		at(day1.Add(20*time.Hour), healthstore.TotalCaloriesBurned{Kilocalories: 50.3}),
	)

	got, err := newAggregator(store).StepsAndCalories(context.Background(), healthstore.Between(day1, day1.Add(2*Day)))
	require.NoError(t, err)
	require.Equal(t, []models.StepsCaloriesBucket{
		{Steps: 150, Calories: 151, DateFrom: 1704067200000, DateTo: 1704153600000},
		{Steps: 0, Calories: 0, DateFrom: 1704153600000, DateTo: 1704240000000},
	}, got)
	require.Equal(t, 2, store.ReadCalls())
	require.Equal(t, 1, store.AggregateCalls())
}

func TestTotalSteps(t *testing.T) {
	store := memstore.New(0)
	agg := newAggregator(store)

	steps, err := agg.TotalSteps(context.Background(), healthstore.Between(day1, day1.Add(Day)))
	require.NoError(t, err)
	require.Zero(t, steps)

	store.Add(at(day1, healthstore.Steps{Count: 7}), at(day1.Add(time.Hour), healthstore.Steps{Count: 3}))
	steps, err = agg.TotalSteps(context.Background(), healthstore.Between(day1, day1.Add(Day)))
	require.NoError(t, err)
	require.Equal(t, int64(10), steps)
}

func TestAggregateFailureIsFetchFailed(t *testing.T) {
	store := memstore.New(0)
	store.FailAggregate = func() error { return errors.New("remote exception") }
	agg := newAggregator(store)

	_, err := agg.TotalSteps(context.Background(), healthstore.Between(day1, day1.Add(Day)))
	require.ErrorIs(t, err, reader.ErrFetchFailed)

	_, err = agg.StepsAndCalories(context.Background(), healthstore.Between(day1, day1.Add(Day)))
	require.ErrorIs(t, err, reader.ErrFetchFailed)
}

func TestStepsAndCaloriesCalorieReadFailure(t *testing.T) {
	store := memstore.New(0)
	store.FailRead = func(healthstore.ReadRequest) error { return errors.New("boom") }

	_, err := newAggregator(store).StepsAndCalories(context.Background(), healthstore.Between(day1, day1.Add(Day)))
	require.ErrorIs(t, err, reader.ErrFetchFailed)
}
