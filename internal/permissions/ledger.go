// Package permissions is a local ledger of granted read scopes. It stands in for
// the host's permission controller and consent flow when the bridge runs as a
// service: a consent request grants the requested scopes that the operator has
// marked grantable.
package permissions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	_ "modernc.org/sqlite"

	"github.com/claude/healthbridge/internal/healthstore"
)

// Ledger tracks granted scopes in a SQLite database.
type Ledger struct {
	db        *sql.DB
	grantable []healthstore.Permission
	log       *slog.Logger
}

// Open opens (or creates) the ledger at dir/permissions.db. Consent requests
// only ever grant scopes listed in grantable.
func Open(dir string, grantable []healthstore.Permission, log *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "permissions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS granted_permissions (
		scope      TEXT PRIMARY KEY,
		granted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger table: %w", err)
	}

	return &Ledger{db: db, grantable: grantable, log: log}, nil
}

// GrantedPermissions returns every granted scope, sorted.
func (l *Ledger) GrantedPermissions(ctx context.Context) ([]healthstore.Permission, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT scope FROM granted_permissions ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("querying granted permissions: %w", err)
	}
	defer rows.Close()

	var out []healthstore.Permission
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		out = append(out, healthstore.Permission(scope))
	}
	return out, rows.Err()
}

// RequestScopes grants the requested scopes that are grantable and reports
// whether any scope was granted.
func (l *Ledger) RequestScopes(ctx context.Context, scopes []healthstore.Permission) (bool, error) {
	var granted []healthstore.Permission
	for _, s := range scopes {
		if slices.Contains(l.grantable, s) {
			granted = append(granted, s)
		}
	}
	if len(granted) == 0 {
		l.log.Info("consent request denied", "requested", len(scopes))
		return false, nil
	}
	if err := l.Grant(ctx, granted...); err != nil {
		return false, err
	}
	l.log.Info("consent request granted", "requested", len(scopes), "granted", len(granted))
	return true, nil
}

// Grant records scopes as granted regardless of the grantable set.
func (l *Ledger) Grant(ctx context.Context, scopes ...healthstore.Permission) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning grant: %w", err)
	}
	defer tx.Rollback()

	for _, s := range scopes {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO granted_permissions (scope) VALUES (?)`, string(s),
		); err != nil {
			return fmt.Errorf("granting %s: %w", s, err)
		}
	}
	return tx.Commit()
}

// Revoke removes scopes from the ledger.
func (l *Ledger) Revoke(ctx context.Context, scopes ...healthstore.Permission) error {
	for _, s := range scopes {
		if _, err := l.db.ExecContext(ctx,
			`DELETE FROM granted_permissions WHERE scope = ?`, string(s),
		); err != nil {
			return fmt.Errorf("revoking %s: %w", s, err)
		}
	}
	return nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
