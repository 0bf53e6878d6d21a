package services

import (
	"context"
	"fmt"
	"log/slog"

	"pixelwallet/internal/core"
)

// byMonthLimit caps analytics bucketing at the six most recent active months.
const byMonthLimit = 6

// LedgerStore is the transaction persistence the ledger service needs.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.TransactionRecord, error)
	DeleteTransaction(ctx context.Context, userID, transactionID int64) error
	ListCategories(ctx context.Context) ([]core.Category, error)
	Summary(ctx context.Context, userID int64) (core.Summary, error)
	ExpenseByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error)
	MonthlyActivity(ctx context.Context, userID int64, limit int) ([]core.MonthTotals, error)
}

// EventPublisher emits transaction lifecycle events for the audit worker.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, action string, userID, transactionID int64) error
}

// LedgerService orchestrates transaction operations and aggregate reads. The
// publisher is optional; without one, events are simply not emitted.
type LedgerService struct {
	store  LedgerStore
	events EventPublisher
}

func NewLedgerService(store LedgerStore, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// AddTransaction validates and persists a transaction for the user, returning
// the server-assigned id. Validation happens before persistence.
func (s *LedgerService) AddTransaction(ctx context.Context, userID int64, t core.Transaction) (int64, error) {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}

	// Fire-and-forget: the transaction is saved either way.
	s.publishEvent(ctx, "created", userID, id)

	return id, nil
}

// ListTransactions returns the user's transactions joined to their category,
// most recent date first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.TransactionRecord, error) {
	records, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

// DeleteTransaction removes the user's own transaction; anything else is
// reported as not found.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, transactionID int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, transactionID); err != nil {
		return err
	}

	s.publishEvent(ctx, "deleted", userID, transactionID)
	return nil
}

// Categories returns the global category list.
func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Summary computes the user's balance overview. Sums are always computed
// fresh from storage, never cached.
func (s *LedgerService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	summary, err := s.store.Summary(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}

// Analytics computes the chart aggregates. The month buckets are fetched
// newest-first and presented oldest-first.
func (s *LedgerService) Analytics(ctx context.Context, userID int64) (core.Analytics, error) {
	byCategory, err := s.store.ExpenseByCategory(ctx, userID)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("analytics: %w", err)
	}

	byMonth, err := s.store.MonthlyActivity(ctx, userID, byMonthLimit)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("analytics: %w", err)
	}

	// Reverse into chronological order for the caller.
	for i, j := 0, len(byMonth)-1; i < j; i, j = i+1, j-1 {
		byMonth[i], byMonth[j] = byMonth[j], byMonth[i]
	}

	return core.Analytics{ByCategory: byCategory, ByMonth: byMonth}, nil
}

func (s *LedgerService) publishEvent(ctx context.Context, action string, userID, transactionID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, action, userID, transactionID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"user_id", userID,
			"transaction_id", transactionID,
			"error", err)
	}
}
