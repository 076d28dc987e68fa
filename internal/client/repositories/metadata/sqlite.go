// Package metadata stores the signed-in session (user id, tokens, assistant
// flags, offline unlock material) in the session_values table of the local
// cache.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aligned-app/aligned/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session_values WHERE name = ?`, name).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read session value %q: %w", name, err)
	}
	return value, nil
}

// Set stores value under name. A nil value is stored as empty; use Delete to
// forget a name.
func (r *SQLiteRepository) Set(ctx context.Context, name string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	const q = `INSERT INTO session_values (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, q, name, value); err != nil {
		return fmt.Errorf("write session value %q: %w", name, err)
	}
	return nil
}

// Delete forgets every given name in one statement. Unknown names are ignored.
func (r *SQLiteRepository) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	q := `DELETE FROM session_values WHERE name IN (?` + strings.Repeat(`, ?`, len(names)-1) + `)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete session values %v: %w", names, err)
	}
	return nil
}

// Clear drops the whole session, offline unlock material included.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_values`); err != nil {
		return fmt.Errorf("clear session values: %w", err)
	}
	return nil
}

// List returns every stored value keyed by name.
func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM session_values`)
	if err != nil {
		return nil, fmt.Errorf("list session values: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var name string
		var value []byte
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan session value: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}
