package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pixelwallet/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists users, categories and transactions in a
// single-file SQLite database. Every write is a single statement, so SQLite's
// native atomicity is the only coordination concurrent requests need.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Foreign keys are off by default in SQLite; ownership cascades and the
	// category RESTRICT depend on them.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapConstraintErr translates SQLite constraint violations into the tagged
// failures the service layer understands.
func mapConstraintErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", core.ErrConflict, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: unknown reference", core.ErrInvalidInput)
	default:
		return err
	}
}

// CreateUser inserts a new identity record. Duplicate username or email
// yields core.ErrConflict.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", mapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)
	return id, nil
}

// UserByEmail looks up an identity record. An unknown email yields
// core.ErrNotFound; the auth layer translates that to a generic credential
// failure so callers cannot enumerate users.
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user by email: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user by username or email. Their transactions go with
// them via the ownership cascade. Used by the admin tool only.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, usernameOrEmail string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE username = ? OR email = ?`,
		usernameOrEmail, usernameOrEmail,
	)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user rows: %w", err)
	}
	return n, nil
}

// CreateTransaction persists a validated transaction and returns the
// server-assigned id. A dangling category reference surfaces as
// core.ErrInvalidInput through the RESTRICT constraint.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount, description, transaction_date)
		 VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.Amount, t.Description, t.Date,
	)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", mapConstraintErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"user_id", t.UserID,
		"category_id", t.CategoryID,
		"amount", t.Amount,
		"date", t.Date)

	return id, nil
}

// ListTransactions returns the user's transactions joined to their category,
// newest transaction date first, ties stable by insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.amount, t.description, t.transaction_date, c.name, c.type, c.color
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		ORDER BY t.transaction_date DESC, t.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	records := []core.TransactionRecord{}
	for rows.Next() {
		var rec core.TransactionRecord
		var desc sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Amount, &desc, &rec.Date, &rec.Category, &rec.Kind, &rec.Color); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.Description = desc.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions rows: %w", err)
	}
	return records, nil
}

// DeleteTransaction deletes the row only if it belongs to the user. Ownership
// and existence are checked by the same statement; zero affected rows is
// core.ErrNotFound either way, so guessed ids reveal nothing.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, transactionID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`,
		transactionID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction: %w", core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", transactionID, "user_id", userID)
	return nil
}

// ListCategories returns all categories. Categories are global and seeded by
// migration, never written through the API.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, color FROM categories ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories rows: %w", err)
	}
	return categories, nil
}

// Summary sums the user's transactions split by category kind. Users with no
// transactions get zeros, never nulls.
func (r *SQLiteRepository) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN c.type = 'income' THEN t.amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN c.type = 'expense' THEN t.amount ELSE 0 END), 0)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?`,
		userID,
	)

	var s core.Summary
	if err := row.Scan(&s.Income, &s.Expense); err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	s.Balance = s.Income - s.Expense
	return s, nil
}

// ExpenseByCategory totals the user's expenses per category; categories with
// no transactions produce no entry.
func (r *SQLiteRepository) ExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount), c.color
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? AND c.type = 'expense'
		GROUP BY c.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total, &ct.Color); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense by category rows: %w", err)
	}
	return totals, nil
}

// MonthlyActivity buckets the user's transactions by calendar month and
// returns the six most recent active months, newest first. Months without
// activity are never synthesized.
func (r *SQLiteRepository) MonthlyActivity(ctx context.Context, userID int64, limit int) ([]core.MonthTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			strftime('%Y-%m', t.transaction_date) AS month,
			SUM(CASE WHEN c.type = 'income' THEN t.amount ELSE 0 END),
			SUM(CASE WHEN c.type = 'expense' THEN t.amount ELSE 0 END)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("monthly activity: %w", err)
	}
	defer rows.Close()

	months := []core.MonthTotals{}
	for rows.Next() {
		var m core.MonthTotals
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan month totals: %w", err)
		}
		months = append(months, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monthly activity rows: %w", err)
	}
	return months, nil
}

// AuditEvent is one recorded transaction lifecycle event.
type AuditEvent struct {
	ID            int64
	UserID        int64
	Action        string
	TransactionID int64
	OccurredAt    time.Time
	RecordedAt    time.Time
}

// RecordAuditEvent appends a transaction lifecycle event to the audit trail.
func (r *SQLiteRepository) RecordAuditEvent(ctx context.Context, userID int64, action string, transactionID int64, occurredAt time.Time) error {
	// Times are bound as formatted UTC strings so they match the
	// CURRENT_TIMESTAMP format SQLite writes into recorded_at.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (user_id, action, transaction_id, occurred_at) VALUES (?, ?, ?, ?)`,
		userID, action, transactionID, occurredAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// PruneAuditEvents deletes audit rows recorded before the cutoff and reports
// how many were removed.
func (r *SQLiteRepository) PruneAuditEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE recorded_at < ?`,
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune audit events rows: %w", err)
	}
	return n, nil
}

// CountAuditEvents returns the number of recorded audit events.
func (r *SQLiteRepository) CountAuditEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}
