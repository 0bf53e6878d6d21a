package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Income  CategoryKind = "income"
	Expense CategoryKind = "expense"
)

// DateLayout is the calendar-date format used for transaction dates, both on
// the wire and in storage. Transaction dates carry no time component.
const DateLayout = "2006-01-02"

type (
	// CategoryKind classifies a category as income-producing or
	// expense-incurring; it determines the sign in aggregates.
	CategoryKind string

	// User is a registered identity. The password hash never leaves the
	// storage and auth layers.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// PublicUser is the projection of a User that may be echoed to clients.
	PublicUser struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// Category is seeded at initialization and read-only thereafter.
	Category struct {
		ID    int64        `json:"id"`
		Name  string       `json:"name"`
		Kind  CategoryKind `json:"type"`
		Color string       `json:"color"`
	}

	// Transaction is a single income or expense entry, exclusively owned by
	// one user.
	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Amount      float64
		Description string
		Date        string // DateLayout
		CreatedAt   time.Time
	}

	// TransactionRecord is a transaction joined to its category for listing.
	TransactionRecord struct {
		ID          int64        `json:"id"`
		Amount      float64      `json:"amount"`
		Description string       `json:"description"`
		Date        string       `json:"transaction_date"`
		Category    string       `json:"category"`
		Kind        CategoryKind `json:"type"`
		Color       string       `json:"color"`
	}

	// Summary is the per-user balance overview. Sums are 0 when the user has
	// no transactions, never null.
	Summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}

	// CategoryTotal is a per-category expense aggregate for the pie chart.
	CategoryTotal struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
		Color string  `json:"color"`
	}

	// MonthTotals holds income and expense sums for one calendar month.
	MonthTotals struct {
		Month   string  `json:"month"` // YYYY-MM
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// Analytics bundles the chart aggregates. ByMonth covers the six most
	// recent months with activity, oldest first; months without activity are
	// never synthesized.
	Analytics struct {
		ByCategory []CategoryTotal `json:"pieChart"`
		ByMonth    []MonthTotals   `json:"barChart"`
	}
)

// Validate checks the fields a transaction must carry before it is persisted.
// Referential integrity against the category table is left to storage.
func (t Transaction) Validate() error {
	if t.CategoryID <= 0 {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// Public returns the client-safe projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}
