// Package reader drains paginated native store reads into a complete record set.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/observability"
)

// ErrFetchFailed wraps any store error that aborted a read.
var ErrFetchFailed = errors.New("fetch failed")

// Options tune a Reader. The zero value reads with the store's default page size
// and makes exactly one attempt per page.
type Options struct {
	PageSize     int
	PageRetries  uint64
	RetryBackoff time.Duration
}

// Reader fetches every page of a record kind over a window.
type Reader struct {
	store healthstore.Client
	opts  Options
	log   *slog.Logger
}

// New creates a Reader over store.
func New(store healthstore.Client, opts Options, log *slog.Logger) *Reader {
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	return &Reader{store: store, opts: opts, log: log}
}

// ReadAll returns every record of kind whose start instant falls in window.
// Pages are requested strictly in sequence and their order is preserved; the
// loop ends when the store returns an empty continuation token. A page that
// still fails after its retries fails the whole read with ErrFetchFailed.
func (r *Reader) ReadAll(ctx context.Context, kind healthstore.RecordKind, window healthstore.TimeRange) ([]healthstore.Record, error) {
	var (
		records []healthstore.Record
		token   string
		page    int
	)
	for {
		resp, err := r.readPage(ctx, healthstore.ReadRequest{
			Kind:      kind,
			Window:    window,
			PageToken: token,
			PageSize:  r.opts.PageSize,
		})
		if err != nil {
			observability.RecordFetchFailure("read")
			r.log.Warn("reading records failed", "kind", kind, "page", page, "error", err)
			return nil, fmt.Errorf("%w: reading %s page %d: %w", ErrFetchFailed, kind, page, err)
		}
		observability.RecordPage(kind.String(), len(resp.Records))
		records = append(records, resp.Records...)

		if resp.PageToken == "" {
			break
		}
		token = resp.PageToken
		page++
	}

	r.log.Debug("records read", "kind", kind, "pages", page+1, "count", len(records))
	return records, nil
}

func (r *Reader) readPage(ctx context.Context, req healthstore.ReadRequest) (*healthstore.ReadResponse, error) {
	var resp *healthstore.ReadResponse
	op := func() error {
		var err error
		resp, err = r.store.ReadRecords(ctx, req)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.opts.RetryBackoff), r.opts.PageRetries),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	if resp == nil {
		return &healthstore.ReadResponse{}, nil
	}
	return resp, nil
}

// Sum reduces records of a numeric kind to one scalar.
func Sum(records []healthstore.Record) float64 {
	var total float64
	for _, rec := range records {
		switch p := rec.Payload.(type) {
		case healthstore.Steps:
			total += float64(p.Count)
		case healthstore.ActiveCaloriesBurned:
			total += p.Kilocalories
		case healthstore.TotalCaloriesBurned:
			total += p.Kilocalories
		case healthstore.Distance:
			total += p.Meters
		}
	}
	return total
}
