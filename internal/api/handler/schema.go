package handler

import (
	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type depositRequest struct {
	Amount   decimal.Decimal `json:"amount"   validate:"required,gt=0" swaggertype:"string" example:"150.00"`
	Currency string          `json:"currency" validate:"omitempty,max=10"`
}

type withdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0" swaggertype:"string" example:"75.50"`
	Currency      string          `json:"currency"       validate:"omitempty,max=10"`
	WalletAddress string          `json:"wallet_address" validate:"required,max=128"`
	Reason        string          `json:"reason"         validate:"omitempty,max=500"`
}

type profitRequest struct {
	UserID string          `json:"user_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"  validate:"required,gt=0" swaggertype:"string" example:"12.34"`
	Reason string          `json:"reason"  validate:"omitempty,max=500"`
}

type investRequest struct {
	PlanID string          `json:"plan_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"  validate:"required,gt=0" swaggertype:"string" example:"500.00"`
}

type createPlanRequest struct {
	Name         string          `json:"name"          validate:"required,max=100"`
	MinAmount    decimal.Decimal `json:"min_amount"    validate:"required,gt=0" swaggertype:"string"`
	MaxAmount    decimal.Decimal `json:"max_amount"    validate:"required,gt=0" swaggertype:"string"`
	DailyProfit  decimal.Decimal `json:"daily_profit"  validate:"gte=0"         swaggertype:"string"`
	DurationDays int             `json:"duration_days" validate:"required,gt=0"`
	Status       string          `json:"status"        validate:"omitempty,oneof=active inactive"`
}

type chatMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type errorResponse struct {
	Error string `json:"error"`
}
