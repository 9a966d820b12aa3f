package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanInactive PlanStatus = "inactive"
)

var ErrPlanNotFound = errors.New("plan not found")
var ErrPlanInactive = fmt.Errorf("%w: plan is inactive", ErrPlanNotFound)

// Plan bounds what may be invested in it.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MinAmount    decimal.Decimal `json:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
	DailyProfit  decimal.Decimal `json:"daily_profit"`
	DurationDays int             `json:"duration_days"`
	Status       PlanStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Accepts reports whether amount lies within [MinAmount, MaxAmount].
func (p *Plan) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

// Investment is a standing position in a plan. Amount never changes after creation.
type Investment struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	PlanID    string          `json:"plan_id"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate time.Time       `json:"start_date"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}
