package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p models.CachedProfile) error {
	if p.User.UID == "" {
		return errors.New("cached profile without uid")
	}
	data, err := json.Marshal(p.User)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", p.User.UID, err)
	}
	fetched := p.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (uid, queue, data, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			queue = excluded.queue,
			data = excluded.data,
			fetched_at = excluded.fetched_at
	`, p.User.UID, string(p.Queue), data, fetched.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.User.UID, err)
	}
	return nil
}

// UpsertMany writes all profiles in one transaction.
func UpsertMany(ctx context.Context, db *sql.DB, list []models.CachedProfile) error {
	return dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, p := range list {
			if err := repo.Upsert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Get(ctx context.Context, uid string) (*models.CachedProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT queue, data, fetched_at FROM profiles WHERE uid = ?`, uid)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	return p, nil
}

func (r *SQLiteRepository) List(ctx context.Context, q models.Queue) ([]models.CachedProfile, error) {
	query := `SELECT queue, data, fetched_at FROM profiles ORDER BY fetched_at, uid`
	args := []any{}
	if q != "" {
		query = `SELECT queue, data, fetched_at FROM profiles WHERE queue = ? ORDER BY fetched_at, uid`
		args = append(args, string(q))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	result := []models.CachedProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) SetQueue(ctx context.Context, uid string, q models.Queue) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE profiles SET queue = ? WHERE uid = ?`, string(q), uid); err != nil {
		return fmt.Errorf("failed to move profile %s: %w", uid, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", uid, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*models.CachedProfile, error) {
	var (
		queue   string
		data    []byte
		fetched time.Time
	)
	if err := s.Scan(&queue, &data, &fetched); err != nil {
		return nil, err
	}

	p := &models.CachedProfile{Queue: models.Queue(queue), FetchedAt: fetched}
	if err := json.Unmarshal(data, &p.User); err != nil {
		return nil, err
	}
	if p.User.Hobbies == nil {
		p.User.Hobbies = []string{}
	}
	if p.User.Images == nil {
		p.User.Images = []string{}
	}
	return p, nil
}
