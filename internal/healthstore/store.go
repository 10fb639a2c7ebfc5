// Package healthstore defines the contract of the native health-records store the
// bridge reads from: paginated record reads, aggregation, availability and granted
// permissions. Concrete stores live in the memstore and pgstore subpackages.
package healthstore

import (
	"context"
	"fmt"
	"time"
)

// DefaultPageSize is the page size used when a ReadRequest does not set one.
const DefaultPageSize = 1000

// SDKStatus reports whether the native store can be used on this device.
type SDKStatus int

const (
	SDKUnavailable SDKStatus = iota
	SDKUnavailableProviderUpdateRequired
	SDKAvailable
)

func (s SDKStatus) String() string {
	switch s {
	case SDKAvailable:
		return "available"
	case SDKUnavailableProviderUpdateRequired:
		return "provider_update_required"
	default:
		return "unavailable"
	}
}

// TimeRange is a window between two instants. Records match when their start
// instant falls in [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Between builds a TimeRange from two instants, normalized to UTC.
func Between(start, end time.Time) TimeRange {
	return TimeRange{Start: start.UTC(), End: end.UTC()}
}

// BetweenMillis builds a TimeRange from epoch milliseconds.
func BetweenMillis(startMs, endMs int64) TimeRange {
	return Between(time.UnixMilli(startMs), time.UnixMilli(endMs))
}

// Validate checks that Start is not after End.
func (r TimeRange) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("time range start %s is after end %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls in [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ReadRequest asks for one page of records of a single kind.
type ReadRequest struct {
	Kind      RecordKind
	Window    TimeRange
	PageToken string
	PageSize  int
}

// ReadResponse is one page of records. An empty PageToken means no pages remain.
type ReadResponse struct {
	Records   []Record
	PageToken string
}

// AggregateMetric names a value the store can aggregate natively.
type AggregateMetric string

const (
	StepsCountTotal          AggregateMetric = "Steps_count_total"
	ActiveCaloriesTotal      AggregateMetric = "ActiveCaloriesBurned_energy_total"
	TotalCaloriesBurnedTotal AggregateMetric = "TotalCaloriesBurned_energy_total"
	DistanceTotal            AggregateMetric = "Distance_total"
)

// Kind returns the record kind an aggregate metric is computed over.
func (m AggregateMetric) Kind() RecordKind {
	switch m {
	case StepsCountTotal:
		return KindSteps
	case ActiveCaloriesTotal:
		return KindActiveCaloriesBurned
	case TotalCaloriesBurnedTotal:
		return KindTotalCaloriesBurned
	case DistanceTotal:
		return KindDistance
	default:
		return KindUnknown
	}
}

// AggregationResult holds aggregated values. A metric is absent when the store
// had no data for it.
type AggregationResult map[AggregateMetric]float64

// Get returns the value for m and whether the store reported one.
func (r AggregationResult) Get(m AggregateMetric) (float64, bool) {
	v, ok := r[m]
	return v, ok
}

// AggregateRequest aggregates metrics over a whole window.
type AggregateRequest struct {
	Metrics []AggregateMetric
	Window  TimeRange
}

// AggregateGroupByDurationRequest aggregates metrics per fixed-duration slice.
type AggregateGroupByDurationRequest struct {
	Metrics []AggregateMetric
	Window  TimeRange
	Slice   time.Duration
}

// DurationGroup is the aggregation of one slice.
type DurationGroup struct {
	StartTime time.Time
	EndTime   time.Time
	Result    AggregationResult
}

// Client is the native store. Implementations must be safe for concurrent use.
type Client interface {
	Status(ctx context.Context) SDKStatus
	ReadRecords(ctx context.Context, req ReadRequest) (*ReadResponse, error)
	Aggregate(ctx context.Context, req AggregateRequest) (AggregationResult, error)
	AggregateGroupByDuration(ctx context.Context, req AggregateGroupByDurationRequest) ([]DurationGroup, error)
}

// PermissionController reports which read scopes have been granted.
type PermissionController interface {
	GrantedPermissions(ctx context.Context) ([]Permission, error)
}
