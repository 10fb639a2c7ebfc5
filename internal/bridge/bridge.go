// Package bridge composes the gate, reader, normalizer and aggregator into the
// six method contracts exposed to the host runtime.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/claude/healthbridge/internal/aggregate"
	"github.com/claude/healthbridge/internal/gate"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/normalize"
	"github.com/claude/healthbridge/internal/reader"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// DefaultRequiredScopes are checked before every read and requested by
// RequestAuthorization when Options.RequiredScopes is empty.
var DefaultRequiredScopes = []healthstore.Permission{
	healthstore.ReadPermission(healthstore.KindSteps),
	healthstore.ReadPermission(healthstore.KindTotalCaloriesBurned),
}

// Options configure a Bridge.
type Options struct {
	// PreferHealthConnect starts the bridge with the native backend selected,
	// as if UseHealthConnectIfAvailable had been called.
	PreferHealthConnect bool
	RequiredScopes      []healthstore.Permission
	// StrictFetchErrors returns fetch failures to the caller instead of
	// degrading them to a null result.
	StrictFetchErrors bool
	Reader            reader.Options
	EnrichConcurrency int
}

// Bridge serves the method contracts. It is safe for concurrent use.
type Bridge struct {
	gate       *gate.Gate
	normalizer *normalize.Normalizer
	aggregator *aggregate.Aggregator
	reader     *reader.Reader
	scopes     []healthstore.Permission
	strict     bool
	preferHC   atomic.Bool
	log        *slog.Logger
}

// New wires a Bridge over a native store. consent may be nil.
func New(store healthstore.Client, perms healthstore.PermissionController, consent gate.ConsentRequester, opts Options, log *slog.Logger) (*Bridge, error) {
	r := reader.New(store, opts.Reader, log)
	n, err := normalize.New(r, opts.EnrichConcurrency, log)
	if err != nil {
		return nil, err
	}

	scopes := opts.RequiredScopes
	if len(scopes) == 0 {
		scopes = DefaultRequiredScopes
	}

	b := &Bridge{
		gate:       gate.New(store, perms, consent, log),
		normalizer: n,
		aggregator: aggregate.New(store, r, log),
		reader:     r,
		scopes:     scopes,
		strict:     opts.StrictFetchErrors,
		log:        log,
	}
	b.preferHC.Store(opts.PreferHealthConnect)
	return b, nil
}

// Close releases the enrichment pool.
func (b *Bridge) Close() {
	b.normalizer.Close()
}

// Gate exposes the bridge's gate for readiness checks and permission listings.
func (b *Bridge) Gate() *gate.Gate {
	return b.gate
}

// RequiredScopes returns the scopes checked before every read.
func (b *Bridge) RequiredScopes() []healthstore.Permission {
	return b.scopes
}

// UseHealthConnectIfAvailable selects the native backend for this bridge.
func (b *Bridge) UseHealthConnectIfAvailable() {
	b.preferHC.Store(true)
	b.log.Info("health connect backend selected")
}

// HasPermissions reports whether the required scopes are granted.
func (b *Bridge) HasPermissions(ctx context.Context) bool {
	if !b.preferHC.Load() {
		return false
	}
	return b.gate.HasPermissions(ctx, b.scopes)
}

// RequestAuthorization runs the consent flow for the required scopes.
func (b *Bridge) RequestAuthorization(ctx context.Context) bool {
	if !b.preferHC.Load() {
		return false
	}
	return b.gate.RequestPermissions(ctx, b.scopes)
}

// GetData lists key's records in window as CanonicalRecords. A nil slice with a
// nil error is the null result.
func (b *Bridge) GetData(ctx context.Context, key taxonomy.MetricKey, window healthstore.TimeRange) ([]models.CanonicalRecord, error) {
	kind, err := taxonomy.ToNativeKind(key)
	if err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if !b.allowed(ctx, "getData") {
		return nil, nil
	}

	records, err := b.reader.ReadAll(ctx, kind, window)
	if err != nil {
		return nil, b.degrade("getData", err)
	}
	out, err := b.normalizer.NormalizeAll(ctx, records)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetTotalStepsInInterval returns the step count in window, 0 when the store has
// no step data. A nil result is the null result.
func (b *Bridge) GetTotalStepsInInterval(ctx context.Context, window healthstore.TimeRange) (*int64, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if !b.allowed(ctx, "getTotalStepsInInterval") {
		return nil, nil
	}

	steps, err := b.aggregator.TotalSteps(ctx, window)
	if err != nil {
		return nil, b.degrade("getTotalStepsInInterval", err)
	}
	return &steps, nil
}

// GetTotalStepAndCaloriesInInterval returns one steps-and-calories bucket per
// day of window. A nil slice with a nil error is the null result.
func (b *Bridge) GetTotalStepAndCaloriesInInterval(ctx context.Context, window healthstore.TimeRange) ([]models.StepsCaloriesBucket, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if !b.allowed(ctx, "getTotalStepAndCaloriesInInterval") {
		return nil, nil
	}

	buckets, err := b.aggregator.StepsAndCalories(ctx, window)
	if err != nil {
		return nil, b.degrade("getTotalStepAndCaloriesInInterval", err)
	}
	if buckets == nil {
		buckets = []models.StepsCaloriesBucket{}
	}
	return buckets, nil
}

// allowed applies the backend preference and the gate; a refusal is logged and
// resolves to the null result.
func (b *Bridge) allowed(ctx context.Context, method string) bool {
	if !b.preferHC.Load() {
		b.log.Info("health connect backend not selected", "method", method)
		return false
	}
	if err := b.gate.Require(ctx, b.scopes); err != nil {
		b.log.Info("request gated", "method", method, "reason", err)
		return false
	}
	return true
}

// degrade turns a fetch failure into the null result unless strict mode is on.
// Other errors pass through.
func (b *Bridge) degrade(method string, err error) error {
	if !errors.Is(err, reader.ErrFetchFailed) {
		return err
	}
	if b.strict {
		return err
	}
	b.log.Warn("fetch failed, returning null", "method", method, "error", err)
	return nil
}
