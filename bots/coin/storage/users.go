// Package storage persists the coin ledger in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/coinbot/core/logger"
	"github.com/m3rciful/coinbot/core/metrics"
)

const component = "service.ledger"

// userColumns reads nullable columns as zero values.
const userColumns = `COALESCE(username, '') AS username, COALESCE(nickname, '') AS nickname, COALESCE(balance, 0) AS balance`

// ErrUserNotFound is returned by GetUser when no record exists.
var ErrUserNotFound = errors.New("storage: user not found")

// User is one ledger record.
type User struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Nickname string `db:"nickname"`
	Balance  int64  `db:"balance"`
}

// UsersRepo reads and writes the users table. Every call is a single
// statement on a pooled connection.
type UsersRepo struct {
	db *sqlx.DB
}

// NewUsersRepo wraps an open pool.
func NewUsersRepo(db *sqlx.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// EnsureUser inserts the user with nickname = username and zero balance.
// An existing record is left untouched.
func (r *UsersRepo) EnsureUser(ctx context.Context, userID int64, username string) (err error) {
	defer observe(ctx, "ensure", time.Now(), &err, slog.Int64("target_id", userID))

	const q = `
		INSERT INTO users (user_id, username, nickname, balance)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err = r.db.ExecContext(ctx, q, userID, username, username); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

// GetUser returns the record for userID or ErrUserNotFound.
func (r *UsersRepo) GetUser(ctx context.Context, userID int64) (u User, err error) {
	defer observe(ctx, "get", time.Now(), &err, slog.Int64("target_id", userID))

	const q = `SELECT user_id, ` + userColumns + ` FROM users WHERE user_id = $1`
	if err = r.db.GetContext(ctx, &u, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// AdjustBalance adds delta to the balance of userID and reports the number of
// rows touched. An absent user yields zero rows and no error.
func (r *UsersRepo) AdjustBalance(ctx context.Context, userID, delta int64) (rows int64, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, "adjust", start, &err,
			slog.Int64("target_id", userID),
			slog.Int64("delta", delta),
			slog.Int64("rows", rows),
		)
	}()

	const q = `UPDATE users SET balance = balance + $1 WHERE user_id = $2`
	res, err := r.db.ExecContext(ctx, q, delta, userID)
	if err != nil {
		return 0, fmt.Errorf("adjust balance %d: %w", userID, err)
	}
	if rows, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("adjust balance %d: rows affected: %w", userID, err)
	}
	return rows, nil
}

// SetNickname overwrites the display name of userID.
func (r *UsersRepo) SetNickname(ctx context.Context, userID int64, nickname string) (err error) {
	defer observe(ctx, "set_nickname", time.Now(), &err, slog.Int64("target_id", userID))

	const q = `UPDATE users SET nickname = $1 WHERE user_id = $2`
	if _, err = r.db.ExecContext(ctx, q, nickname, userID); err != nil {
		return fmt.Errorf("set nickname %d: %w", userID, err)
	}
	return nil
}

// ListUserIDs returns the id of every record.
func (r *UsersRepo) ListUserIDs(ctx context.Context) (ids []int64, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, "list_ids", start, &err, slog.Int("count", len(ids)))
	}()

	if err = r.db.SelectContext(ctx, &ids, `SELECT user_id FROM users`); err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

// ListUsers returns every record ordered by id.
func (r *UsersRepo) ListUsers(ctx context.Context) (users []User, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, "list", start, &err, slog.Int("count", len(users)))
	}()

	const q = `SELECT user_id, ` + userColumns + ` FROM users ORDER BY user_id`
	if err = r.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func observe(ctx context.Context, op string, start time.Time, errp *error, attrs ...slog.Attr) {
	took := time.Since(start)
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.ObserveLedger(op, err, took)

	attrs = append(attrs, slog.String("op", op), slog.Duration("duration", took))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Error(ctx, component, "ledger."+op, attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.Debug(ctx, component, "ledger."+op, attrs...)
}
