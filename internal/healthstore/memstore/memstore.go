// Package memstore is an in-memory healthstore.Client. It paginates with opaque
// offset tokens and aggregates by slice the way the native store does, which makes
// it the store of choice for tests and for running the bridge without a database.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/google/uuid"
)

// ErrInvalidPageToken is returned for tokens the store did not issue.
var ErrInvalidPageToken = errors.New("invalid page token")

// Store keeps records in insertion order.
type Store struct {
	mu       sync.Mutex
	records  []healthstore.Record
	status   healthstore.SDKStatus
	pageSize int
	granted  map[healthstore.Permission]bool

	// FailRead, when set, is consulted before every ReadRecords call; a non-nil
	// result is returned as the call's error.
	FailRead func(req healthstore.ReadRequest) error
	// FailAggregate does the same for both aggregation calls.
	FailAggregate func() error

	readCalls      int
	aggregateCalls int
}

// New creates an available store serving pageSize records per page
// (healthstore.DefaultPageSize when pageSize <= 0).
func New(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = healthstore.DefaultPageSize
	}
	return &Store{
		status:   healthstore.SDKAvailable,
		pageSize: pageSize,
		granted:  map[healthstore.Permission]bool{},
	}
}

// Add appends records. Records without an ID get a random one.
func (s *Store) Add(records ...healthstore.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.Metadata.ID == "" {
			r.Metadata.ID = uuid.NewString()
		}
		s.records = append(s.records, r)
	}
}

// InsertRecords adds records, skipping IDs already present. Returns the number
// actually added.
func (s *Store) InsertRecords(_ context.Context, records []healthstore.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		seen[r.Metadata.ID] = true
	}
	var n int64
	for _, r := range records {
		if r.Metadata.ID == "" {
			r.Metadata.ID = uuid.NewString()
		}
		if seen[r.Metadata.ID] {
			continue
		}
		seen[r.Metadata.ID] = true
		s.records = append(s.records, r)
		n++
	}
	return n, nil
}

// SetStatus changes the reported SDK status.
func (s *Store) SetStatus(status healthstore.SDKStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Grant marks permissions as granted.
func (s *Store) Grant(perms ...healthstore.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		s.granted[p] = true
	}
}

// ReadCalls returns how many ReadRecords calls were made.
func (s *Store) ReadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCalls
}

// AggregateCalls returns how many aggregation calls were made.
func (s *Store) AggregateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregateCalls
}

func (s *Store) Status(_ context.Context) healthstore.SDKStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) GrantedPermissions(_ context.Context) ([]healthstore.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	perms := make([]healthstore.Permission, 0, len(s.granted))
	for p := range s.granted {
		perms = append(perms, p)
	}
	return perms, nil
}

func (s *Store) ReadRecords(ctx context.Context, req healthstore.ReadRequest) (*healthstore.ReadResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.readCalls++
	fail := s.FailRead
	matching := s.matching(req.Kind, req.Window)
	pageSize := s.pageSize
	s.mu.Unlock()

	if fail != nil {
		if err := fail(req); err != nil {
			return nil, err
		}
	}
	if req.PageSize > 0 {
		pageSize = req.PageSize
	}

	offset := 0
	if req.PageToken != "" {
		n, err := strconv.Atoi(req.PageToken)
		if err != nil || n < 0 || n > len(matching) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageToken, req.PageToken)
		}
		offset = n
	}

	end := min(offset+pageSize, len(matching))
	resp := &healthstore.ReadResponse{Records: matching[offset:end]}
	if end < len(matching) {
		resp.PageToken = strconv.Itoa(end)
	}
	return resp, nil
}

func (s *Store) Aggregate(ctx context.Context, req healthstore.AggregateRequest) (healthstore.AggregationResult, error) {
	if err := s.beginAggregate(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregate(req.Metrics, req.Window), nil
}

// AggregateGroupByDuration returns one group per slice that has data; the final
// slice is clipped to the window end.
func (s *Store) AggregateGroupByDuration(ctx context.Context, req healthstore.AggregateGroupByDurationRequest) ([]healthstore.DurationGroup, error) {
	if req.Slice <= 0 {
		return nil, fmt.Errorf("slice must be positive, got %s", req.Slice)
	}
	if err := s.beginAggregate(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []healthstore.DurationGroup
	for start := req.Window.Start; start.Before(req.Window.End); start = start.Add(req.Slice) {
		end := minTime(start.Add(req.Slice), req.Window.End)
		result := s.aggregate(req.Metrics, healthstore.Between(start, end))
		if len(result) == 0 {
			continue
		}
		groups = append(groups, healthstore.DurationGroup{StartTime: start, EndTime: end, Result: result})
	}
	return groups, nil
}

func (s *Store) beginAggregate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.aggregateCalls++
	fail := s.FailAggregate
	s.mu.Unlock()
	if fail != nil {
		return fail()
	}
	return nil
}

// matching must be called with s.mu held.
func (s *Store) matching(kind healthstore.RecordKind, window healthstore.TimeRange) []healthstore.Record {
	var out []healthstore.Record
	for _, r := range s.records {
		if r.Kind() == kind && window.Contains(r.StartTime) {
			out = append(out, r)
		}
	}
	return out
}

// aggregate must be called with s.mu held.
func (s *Store) aggregate(metrics []healthstore.AggregateMetric, window healthstore.TimeRange) healthstore.AggregationResult {
	result := healthstore.AggregationResult{}
	for _, m := range metrics {
		var sum float64
		var seen bool
		for _, r := range s.matching(m.Kind(), window) {
			sum += value(r)
			seen = true
		}
		if seen {
			result[m] = sum
		}
	}
	return result
}

func value(r healthstore.Record) float64 {
	switch p := r.Payload.(type) {
	case healthstore.Steps:
		return float64(p.Count)
	case healthstore.ActiveCaloriesBurned:
		return p.Kilocalories
	case healthstore.TotalCaloriesBurned:
		return p.Kilocalories
	case healthstore.Distance:
		return p.Meters
	default:
		return 0
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
