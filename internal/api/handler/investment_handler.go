package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

type InvestmentHandler struct {
	service ports.InvestmentService
}

func NewInvestmentHandler(service ports.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{service: service}
}

// ListPlans returns the plans currently open for investment.
//
// @Summary      List active plans
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Plan
// @Router       /v1/plans [get]
func (h *InvestmentHandler) ListPlans(c echo.Context) error {
	plans, err := h.service.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

// CreatePlan adds an investment plan.
//
// @Summary      Create a plan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPlanRequest  true  "Plan"
// @Success      201   {object}  domain.Plan
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/plans [post]
func (h *InvestmentHandler) CreatePlan(c echo.Context) error {
	var req createPlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	plan, err := h.service.CreatePlan(c.Request().Context(), ports.CreatePlanInput{
		Name:         req.Name,
		MinAmount:    req.MinAmount,
		MaxAmount:    req.MaxAmount,
		DailyProfit:  req.DailyProfit,
		DurationDays: req.DurationDays,
		Status:       domain.PlanStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

// Invest moves balance into a plan.
//
// @Summary      Invest in a plan
// @Tags         investments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string         false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      investRequest  true   "Investment"
// @Success      201              {object}  domain.Investment
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/investments [post]
func (h *InvestmentHandler) Invest(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req investRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	inv, err := h.service.Invest(c.Request().Context(), ports.InvestInput{
		UserID: userID,
		PlanID: req.PlanID,
		Amount: req.Amount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

// ListInvestments returns the caller's positions.
//
// @Summary      List own investments
// @Tags         investments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Investment
// @Router       /v1/investments [get]
func (h *InvestmentHandler) ListInvestments(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	invs, err := h.service.ListInvestments(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invs)
}
