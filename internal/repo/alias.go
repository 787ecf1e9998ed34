// Package repo contains all database access logic for the mileage report
// service. The only persisted table is the operator-curated place alias
// table; trip records live for one upload session and are never stored.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly lets
// integration tests pass a transaction that is rolled back after each
// test, giving per-test isolation without manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AliasRepo defines persistence for the place alias table.
// The service layer depends on this interface, not the Postgres
// implementation, so it can be unit-tested with a mock.
type AliasRepo interface {
	// All returns every alias as a place-name → address mapping.
	All(ctx context.Context) (map[string]string, error)

	// Upsert inserts or replaces the alias for name. Aliases are
	// operator-curated; nothing in the resolution pipeline calls this.
	Upsert(ctx context.Context, name, address string) error

	// Delete removes the alias for name.
	// Returns domain.ErrPlaceNotFound if no such alias exists.
	Delete(ctx context.Context, name string) error
}

// pgAliasRepo is the Postgres implementation of AliasRepo.
type pgAliasRepo struct {
	db db
}

// NewAliasRepo constructs an AliasRepo backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx.
func NewAliasRepo(db db) AliasRepo {
	return &pgAliasRepo{db: db}
}

// All loads the whole alias table. The table is small (one row per
// well-known place in the organization), so loading it wholesale into the
// in-process resolver is cheaper than a round trip per lookup.
func (r *pgAliasRepo) All(ctx context.Context) (map[string]string, error) {
	const q = `SELECT name, address FROM place_aliases`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.AliasRepo.All: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var name, address string
		if err := rows.Scan(&name, &address); err != nil {
			return nil, fmt.Errorf("repo.AliasRepo.All: scan: %w", err)
		}
		aliases[name] = address
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AliasRepo.All: rows: %w", err)
	}

	return aliases, nil
}

// Upsert inserts or replaces one alias row.
func (r *pgAliasRepo) Upsert(ctx context.Context, name, address string) error {
	const q = `
		INSERT INTO place_aliases (name, address)
		VALUES (@name, @address)
		ON CONFLICT (name) DO UPDATE SET address = @address, updated_at = now()`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name, "address": address})
	if err != nil {
		return fmt.Errorf("repo.AliasRepo.Upsert: %w", err)
	}
	return nil
}

// Delete removes one alias row by name.
func (r *pgAliasRepo) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM place_aliases WHERE name = @name`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("repo.AliasRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.AliasRepo.Delete: %w", domain.ErrPlaceNotFound)
	}
	return nil
}

// staticAliasRepo serves a fixed alias map. Used when no DATABASE_URL is
// configured: the alias table is then empty (or seeded from code in
// tests) and every unknown place falls through to geocoding.
type staticAliasRepo struct {
	aliases map[string]string
}

// NewStaticAliasRepo returns an AliasRepo over a fixed in-memory map.
func NewStaticAliasRepo(aliases map[string]string) AliasRepo {
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &staticAliasRepo{aliases: aliases}
}

func (r *staticAliasRepo) All(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out, nil
}

func (r *staticAliasRepo) Upsert(_ context.Context, name, address string) error {
	r.aliases[name] = address
	return nil
}

func (r *staticAliasRepo) Delete(_ context.Context, name string) error {
	if _, ok := r.aliases[name]; !ok {
		return fmt.Errorf("repo.staticAliasRepo.Delete: %w", domain.ErrPlaceNotFound)
	}
	delete(r.aliases, name)
	return nil
}
