package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

// UserRepository persists accounts. The balance field is written only by
// AdjustBalance.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// AdjustBalance adds delta to the user's balance as a single atomic
	// compare-and-write. When the result would be negative nothing is written
	// and domain.ErrInsufficientFunds is returned.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) (*domain.User, error)
}

// TransactionFilter narrows a transaction listing. Empty fields are ignored.
type TransactionFilter struct {
	UserID string
	Type   domain.TransactionType
	Status domain.TransactionStatus
	Limit  int
}

// TransactionRepository persists the transaction audit trail. Records are
// never deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	// TransitionStatus moves the transaction from one status to another only if
	// it is currently in from. It returns domain.ErrInvalidTransition when the
	// stored status differs and domain.ErrTransactionNotFound when absent.
	TransitionStatus(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
}

// PlanRepository reads investment plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	FindByID(ctx context.Context, id string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]*domain.Plan, error)
}

// InvestmentRepository persists investment positions.
type InvestmentRepository interface {
	Create(ctx context.Context, inv *domain.Investment) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Investment, error)
}

// ChatFilter narrows a chat listing. Empty fields are ignored.
type ChatFilter struct {
	UserID string
	Status domain.ChatStatus
	Limit  int
}

// ChatRepository persists support messages.
type ChatRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, id string) (*domain.ChatMessage, error)
	// Reply attaches the admin response and flips the status to replied.
	Reply(ctx context.Context, id, adminID, response string, at time.Time) (*domain.ChatMessage, error)
	// MarkRead flips an unread message to read; other statuses are left as is.
	MarkRead(ctx context.Context, id string, at time.Time) (*domain.ChatMessage, error)
	List(ctx context.Context, filter ChatFilter) ([]*domain.ChatMessage, error)
}

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// passed to fn take part in the unit; any error returned by fn rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IdempotencyStore remembers request keys for a bounded time.
type IdempotencyStore interface {
	// Claim records key and reports whether it was unused.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
