package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a balance-affecting record.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeProfit     TransactionType = "profit"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxRejected  TransactionStatus = "rejected"
	TxFailed    TransactionStatus = "failed"
)

// validTransitions defines the allowed state machine transitions. Completed,
// rejected and failed are terminal. Nothing moves a transaction into failed:
// a pending withdrawal holds reserved funds and leaving pending without the
// refund that rejection performs would destroy them.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	TxPending: {TxCompleted, TxRejected},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrTransactionNotFound = errors.New("transaction not found")
var ErrNotWithdrawal = errors.New("transaction is not a withdrawal")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s TransactionStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// InitialStatus is the status a freshly created transaction of type t starts in.
// Deposits and profits are credited on creation; withdrawals wait for review.
func (t TransactionType) InitialStatus() TransactionStatus {
	if t == TypeWithdrawal {
		return TxPending
	}
	return TxCompleted
}

// Transaction is the audit record of a single balance movement.
type Transaction struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency,omitempty"`
	WalletAddress string            `json:"wallet_address,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
