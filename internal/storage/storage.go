// Package storage implements the Postgres persistence gateway for users,
// posters and attendance marks.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"partybot/internal/models"
)

// ErrNotFound signals that a requested row does not exist. Callers use it to
// distinguish absence from infrastructure failure.
var ErrNotFound = errors.New("storage: not found")

// UserPatch carries the fields of a partial user update. Nil fields are left
// untouched in the database (COALESCE semantics), so registration steps can
// persist one answer at a time without clobbering earlier ones.
type UserPatch struct {
	Name     *string
	Gender   *string
	Age      *int
	Username *string
}

// Store is the sqlx-backed gateway used by the bot and the read API.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storage: ping: %w", err)
	}
	return nil
}

// UpsertUser creates the user row on first contact and merges the patch into
// an existing row. Omitted fields keep their stored values.
func (s *Store) UpsertUser(ctx context.Context, tgID int64, patch UserPatch) error {
	const q = `
		INSERT INTO users (tg_id, name, gender, age, username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tg_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			gender = COALESCE(EXCLUDED.gender, users.gender),
			age = COALESCE(EXCLUDED.age, users.age),
			username = COALESCE(EXCLUDED.username, users.username)`
	if _, err := s.db.ExecContext(ctx, q, tgID, patch.Name, patch.Gender, patch.Age, patch.Username); err != nil {
		return fmt.Errorf("storage: upsert user %d: %w", tgID, err)
	}
	return nil
}

// GetUser returns the user row or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, tgID int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE tg_id = $1`, tgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get user %d: %w", tgID, err)
	}
	return &u, nil
}

// GetUserByHandle resolves a @username (case-insensitive, @ optional).
func (s *Store) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE LOWER(username) = LOWER(TRIM(LEADING '@' FROM $1))`, handle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get user by handle %q: %w", handle, err)
	}
	return &u, nil
}

// ListAllUserIDs returns every known user id, used for broadcasts and for
// warming the session cache at startup.
func (s *Store) ListAllUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT tg_id FROM users ORDER BY tg_id`); err != nil {
		return nil, fmt.Errorf("storage: list user ids: %w", err)
	}
	return ids, nil
}

// UserStatistics aggregates registration counters. Only completed profiles
// are counted.
func (s *Store) UserStatistics(ctx context.Context) (models.UserStats, error) {
	var st models.UserStats
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE age IS NOT NULL) AS total,
			COUNT(*) FILTER (WHERE gender = 'male' AND age IS NOT NULL) AS male,
			COUNT(*) FILTER (WHERE gender = 'female' AND age IS NOT NULL) AS female,
			COUNT(*) FILTER (WHERE age IS NOT NULL AND registered_at >= date_trunc('day', now())) AS registered_today
		FROM users`
	if err := s.db.GetContext(ctx, &st, q); err != nil {
		return models.UserStats{}, fmt.Errorf("storage: user statistics: %w", err)
	}
	return st, nil
}

// CreatePoster inserts a poster row and returns it with generated fields.
func (s *Store) CreatePoster(ctx context.Context, fileID string, photoPath *string, caption string, ticketURL *string) (models.Poster, error) {
	var p models.Poster
	const q = `
		INSERT INTO posters (file_id, photo_path, caption, ticket_url)
		VALUES ($1, $2, $3, $4)
		RETURNING *`
	if err := s.db.GetContext(ctx, &p, q, fileID, photoPath, caption, ticketURL); err != nil {
		return models.Poster{}, fmt.Errorf("storage: create poster: %w", err)
	}
	return p, nil
}

// GetPoster returns a poster by id or ErrNotFound.
func (s *Store) GetPoster(ctx context.Context, id int64) (*models.Poster, error) {
	var p models.Poster
	err := s.db.GetContext(ctx, &p, `SELECT * FROM posters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get poster %d: %w", id, err)
	}
	return &p, nil
}

// ListActivePosters returns active posters newest first.
func (s *Store) ListActivePosters(ctx context.Context) ([]models.Poster, error) {
	var ps []models.Poster
	const q = `SELECT * FROM posters WHERE is_active ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &ps, q); err != nil {
		return nil, fmt.Errorf("storage: list active posters: %w", err)
	}
	return ps, nil
}

// LatestPoster returns the newest active poster or ErrNotFound.
func (s *Store) LatestPoster(ctx context.Context) (*models.Poster, error) {
	var p models.Poster
	const q = `SELECT * FROM posters WHERE is_active ORDER BY created_at DESC, id DESC LIMIT 1`
	err := s.db.GetContext(ctx, &p, q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: latest poster: %w", err)
	}
	return &p, nil
}

// DeletePoster removes the poster row. Attendance rows cascade.
func (s *Store) DeletePoster(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete poster %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivatePoster hides the poster from the carousel and the API without
// destroying attendance history.
func (s *Store) DeactivatePoster(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posters SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: deactivate poster %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePosterTicketURL replaces the ticket link on an existing poster.
func (s *Store) UpdatePosterTicketURL(ctx context.Context, id int64, url *string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posters SET ticket_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("storage: update poster %d ticket url: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PosterStatistics aggregates poster counters.
func (s *Store) PosterStatistics(ctx context.Context) (models.PosterStats, error) {
	var st models.PosterStats
	const q = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active FROM posters`
	if err := s.db.GetContext(ctx, &st, q); err != nil {
		return models.PosterStats{}, fmt.Errorf("storage: poster statistics: %w", err)
	}
	return st, nil
}

// RecordAttendance marks the user as going to the poster's event. Re-marking
// is a no-op; the boolean reports whether a new row was inserted.
func (s *Store) RecordAttendance(ctx context.Context, userID, posterID int64) (bool, error) {
	const q = `
		INSERT INTO attendances (user_id, poster_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, poster_id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, q, userID, posterID)
	if err != nil {
		return false, fmt.Errorf("storage: record attendance %d/%d: %w", userID, posterID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: record attendance %d/%d: %w", userID, posterID, err)
	}
	return n > 0, nil
}

// HasAttendanceSince reports whether the user marked any attendance inside
// the [since, until) window.
func (s *Store) HasAttendanceSince(ctx context.Context, userID int64, since, until time.Time) (bool, error) {
	var exists bool
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM attendances
			WHERE user_id = $1 AND attended_at >= $2 AND attended_at < $3
		)`
	if err := s.db.GetContext(ctx, &exists, q, userID, since, until); err != nil {
		return false, fmt.Errorf("storage: attendance window for %d: %w", userID, err)
	}
	return exists, nil
}
