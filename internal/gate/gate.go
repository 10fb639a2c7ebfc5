// Package gate decides whether the native store may be queried: whether it is
// available on this device and whether the required read scopes are granted.
// Failures never escape; they resolve to a negative answer and are logged.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/claude/healthbridge/internal/healthstore"
)

var (
	// ErrStoreUnavailable means the native store is absent or unsupported.
	ErrStoreUnavailable = errors.New("health store unavailable")
	// ErrPermissionDenied means a required read scope is not granted.
	ErrPermissionDenied = errors.New("permission denied")
)

// Availability is the result of CheckAvailable.
type Availability int

const (
	Unavailable Availability = iota
	Available
)

func (a Availability) String() string {
	if a == Available {
		return "available"
	}
	return "unavailable"
}

// PermissionState is the known grant state of one scope.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionDenied
	PermissionGranted
)

func (s PermissionState) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ConsentRequester runs the host's consent flow for a set of scopes and reports
// whether anything was granted.
type ConsentRequester interface {
	RequestScopes(ctx context.Context, scopes []healthstore.Permission) (bool, error)
}

// Gate guards store access.
type Gate struct {
	store   healthstore.Client
	perms   healthstore.PermissionController
	consent ConsentRequester
	log     *slog.Logger
}

// New creates a Gate. consent may be nil when no consent flow is wired, in which
// case RequestPermissions always resolves false.
func New(store healthstore.Client, perms healthstore.PermissionController, consent ConsentRequester, log *slog.Logger) *Gate {
	return &Gate{store: store, perms: perms, consent: consent, log: log}
}

// CheckAvailable reports whether the native store can be used.
func (g *Gate) CheckAvailable(ctx context.Context) Availability {
	if g.store.Status(ctx) == healthstore.SDKAvailable {
		return Available
	}
	return Unavailable
}

// HasPermissions reports whether every scope is granted.
func (g *Gate) HasPermissions(ctx context.Context, scopes []healthstore.Permission) bool {
	return g.Require(ctx, scopes) == nil
}

// Require returns nil when the store is available and every scope is granted,
// ErrStoreUnavailable or ErrPermissionDenied otherwise.
func (g *Gate) Require(ctx context.Context, scopes []healthstore.Permission) error {
	if g.CheckAvailable(ctx) != Available {
		return ErrStoreUnavailable
	}
	for scope, state := range g.states(ctx, scopes) {
		if state != PermissionGranted {
			g.log.Debug("scope not granted", "scope", scope, "state", state)
			return ErrPermissionDenied
		}
	}
	return nil
}

// PermissionStates returns the state of each scope. Every scope is unknown
// while the store is unavailable or the grant query fails.
func (g *Gate) PermissionStates(ctx context.Context, scopes []healthstore.Permission) map[healthstore.Permission]PermissionState {
	if g.CheckAvailable(ctx) != Available {
		return unknown(scopes)
	}
	return g.states(ctx, scopes)
}

func (g *Gate) states(ctx context.Context, scopes []healthstore.Permission) map[healthstore.Permission]PermissionState {
	granted, err := g.perms.GrantedPermissions(ctx)
	if err != nil {
		g.log.Warn("querying granted permissions failed", "error", err)
		return unknown(scopes)
	}
	out := make(map[healthstore.Permission]PermissionState, len(scopes))
	for _, s := range scopes {
		if slices.Contains(granted, s) {
			out[s] = PermissionGranted
		} else {
			out[s] = PermissionDenied
		}
	}
	return out
}

// RequestPermissions runs the consent flow for scopes. It resolves false without
// invoking consent when the store is unavailable or no consent flow is wired.
func (g *Gate) RequestPermissions(ctx context.Context, scopes []healthstore.Permission) bool {
	if g.CheckAvailable(ctx) != Available {
		g.log.Info("permission request skipped, store unavailable")
		return false
	}
	if g.consent == nil {
		g.log.Info("permission request skipped, consent flow not ready")
		return false
	}
	ok, err := g.consent.RequestScopes(ctx, scopes)
	if err != nil {
		g.log.Warn("permission request failed", "error", err)
		return false
	}
	return ok
}

func unknown(scopes []healthstore.Permission) map[healthstore.Permission]PermissionState {
	out := make(map[healthstore.Permission]PermissionState, len(scopes))
	for _, s := range scopes {
		out[s] = PermissionUnknown
	}
	return out
}
