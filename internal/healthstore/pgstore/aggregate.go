package pgstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/claude/healthbridge/internal/healthstore"
)

// Aggregate sums each metric over the window. Metrics without rows are absent
// from the result.
func (s *Store) Aggregate(ctx context.Context, req healthstore.AggregateRequest) (healthstore.AggregationResult, error) {
	result := healthstore.AggregationResult{}
	for _, m := range req.Metrics {
		kind := m.Kind()
		if kind == healthstore.KindUnknown {
			return nil, fmt.Errorf("unknown aggregate metric %q", m)
		}

		var sum *float64
		err := s.Pool.QueryRow(ctx,
			`SELECT SUM(value) FROM health_records
			 WHERE kind = $1 AND start_time >= $2 AND start_time < $3`,
			kind.String(), req.Window.Start, req.Window.End,
		).Scan(&sum)
		if err != nil {
			return nil, fmt.Errorf("aggregating %s: %w", m, err)
		}
		if sum != nil {
			result[m] = *sum
		}
	}
	return result, nil
}

// AggregateGroupByDuration sums each metric per slice, where a record belongs to
// the slice its start falls in. Only slices with data are returned, ordered by
// start; the final slice is clipped to the window end.
func (s *Store) AggregateGroupByDuration(ctx context.Context, req healthstore.AggregateGroupByDurationRequest) ([]healthstore.DurationGroup, error) {
	if req.Slice <= 0 {
		return nil, fmt.Errorf("slice must be positive, got %s", req.Slice)
	}

	byIndex := map[int64]healthstore.AggregationResult{}
	var order []int64
	for _, m := range req.Metrics {
		kind := m.Kind()
		if kind == healthstore.KindUnknown {
			return nil, fmt.Errorf("unknown aggregate metric %q", m)
		}

		rows, err := s.Pool.Query(ctx,
			`SELECT FLOOR(EXTRACT(EPOCH FROM (start_time - $2::timestamptz))::double precision / $4::double precision)::bigint AS slice_idx,
			        SUM(value)
			 FROM health_records
			 WHERE kind = $1 AND start_time >= $2 AND start_time < $3
			 GROUP BY slice_idx
			 ORDER BY slice_idx`,
			kind.String(), req.Window.Start, req.Window.End, req.Slice.Seconds(),
		)
		if err != nil {
			return nil, fmt.Errorf("aggregating %s by %s: %w", m, req.Slice, err)
		}

		for rows.Next() {
			var idx int64
			var sum *float64
			if err := rows.Scan(&idx, &sum); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s slice: %w", m, err)
			}
			if sum == nil {
				continue
			}
			if _, ok := byIndex[idx]; !ok {
				byIndex[idx] = healthstore.AggregationResult{}
				order = append(order, idx)
			}
			byIndex[idx][m] = *sum
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading %s slices: %w", m, err)
		}
	}

	groups := make([]healthstore.DurationGroup, 0, len(order))
	slices.Sort(order)
	for _, idx := range order {
		start := req.Window.Start.Add(time.Duration(idx) * req.Slice)
		end := start.Add(req.Slice)
		if end.After(req.Window.End) {
			end = req.Window.End
		}
		groups = append(groups, healthstore.DurationGroup{StartTime: start, EndTime: end, Result: byIndex[idx]})
	}
	return groups, nil
}
