// Package aggregate buckets metrics into fixed-duration slices using the native
// store's grouped aggregation, compensating with raw reads for values the
// aggregation cannot provide.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/reader"
)

// Day is the slice used by getTotalStepAndCaloriesInInterval.
const Day = 24 * time.Hour

// RecordReader is the subset of reader.Reader the aggregator needs.
type RecordReader interface {
	ReadAll(ctx context.Context, kind healthstore.RecordKind, window healthstore.TimeRange) ([]healthstore.Record, error)
}

// Aggregator computes totals and bucketed summaries.
type Aggregator struct {
	store  healthstore.Client
	reader RecordReader
	log    *slog.Logger
}

// New creates an Aggregator.
func New(store healthstore.Client, r RecordReader, log *slog.Logger) *Aggregator {
	return &Aggregator{store: store, reader: r, log: log}
}

// Slices splits window into contiguous slices of the given size, starting at
// window.Start. The last slice is clipped to window.End.
func Slices(window healthstore.TimeRange, slice time.Duration) []healthstore.TimeRange {
	if slice <= 0 {
		return nil
	}
	var out []healthstore.TimeRange
	for start := window.Start; start.Before(window.End); start = start.Add(slice) {
		end := start.Add(slice)
		if end.After(window.End) {
			end = window.End
		}
		out = append(out, healthstore.Between(start, end))
	}
	return out
}

// TotalSteps returns the step count over window. A window without step data
// yields 0.
func (a *Aggregator) TotalSteps(ctx context.Context, window healthstore.TimeRange) (int64, error) {
	result, err := a.store.Aggregate(ctx, healthstore.AggregateRequest{
		Metrics: []healthstore.AggregateMetric{healthstore.StepsCountTotal},
		Window:  window,
	})
	if err != nil {
		observability.RecordFetchFailure("aggregate")
		return 0, fmt.Errorf("%w: aggregating steps: %w", reader.ErrFetchFailed, err)
	}
	steps, _ := result.Get(healthstore.StepsCountTotal)
	return int64(steps), nil
}

// AggregateByDuration returns one bucket per slice of window, in order. Slices
// the store reports no data for carry a value of 0.
func (a *Aggregator) AggregateByDuration(ctx context.Context, metric healthstore.AggregateMetric, window healthstore.TimeRange, slice time.Duration) ([]models.AggregateBucket, error) {
	if slice <= 0 {
		return nil, fmt.Errorf("slice must be positive, got %s", slice)
	}

	groups, err := a.store.AggregateGroupByDuration(ctx, healthstore.AggregateGroupByDurationRequest{
		Metrics: []healthstore.AggregateMetric{metric},
		Window:  window,
		Slice:   slice,
	})
	if err != nil {
		observability.RecordFetchFailure("aggregate")
		return nil, fmt.Errorf("%w: aggregating %s by %s: %w", reader.ErrFetchFailed, metric, slice, err)
	}

	byStart := make(map[int64]float64, len(groups))
	for _, g := range groups {
		if v, ok := g.Result.Get(metric); ok {
			byStart[g.StartTime.UnixMilli()] = v
		}
	}

	slices := Slices(window, slice)
	buckets := make([]models.AggregateBucket, 0, len(slices))
	for _, s := range slices {
		buckets = append(buckets, models.AggregateBucket{
			DateFrom: s.Start.UnixMilli(),
			DateTo:   s.End.UnixMilli(),
			Value:    byStart[s.Start.UnixMilli()],
		})
	}
	return buckets, nil
}

// StepsAndCalories returns daily step totals over window together with the total
// calories burned in each day, summed from raw records and rounded up.
func (a *Aggregator) StepsAndCalories(ctx context.Context, window healthstore.TimeRange) ([]models.StepsCaloriesBucket, error) {
	buckets, err := a.AggregateByDuration(ctx, healthstore.StepsCountTotal, window, Day)
	if err != nil {
		return nil, err
	}

	out := make([]models.StepsCaloriesBucket, 0, len(buckets))
	for _, b := range buckets {
		records, err := a.reader.ReadAll(ctx, healthstore.KindTotalCaloriesBurned, healthstore.BetweenMillis(b.DateFrom, b.DateTo))
		if err != nil {
			return nil, fmt.Errorf("reading calories for bucket %d: %w", b.DateFrom, err)
		}
		out = append(out, models.StepsCaloriesBucket{
			Steps:    int64(b.Value),
			Calories: int64(math.Ceil(reader.Sum(records))),
			DateFrom: b.DateFrom,
			DateTo:   b.DateTo,
		})
	}

	a.log.Debug("steps and calories aggregated", "buckets", len(out))
	return out, nil
}
