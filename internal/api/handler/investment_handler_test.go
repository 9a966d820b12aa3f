package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

func TestInvestmentHandler_Invest(t *testing.T) {
	e := newTestEcho()
	svc := &stubInvestments{}
	h := NewInvestmentHandler(svc)

	c, rec := newJSONContext(e, http.MethodPost, "/v1/investments", `{"plan_id":"p1","amount":"500"}`, "u1", domain.RoleUser)
	if err := h.Invest(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.invests[0].UserID != "u1" || svc.invests[0].PlanID != "p1" {
		t.Fatalf("unexpected input %+v", svc.invests[0])
	}
}

func TestInvestmentHandler_InvestErrors(t *testing.T) {
	e := newTestEcho()
	h := NewInvestmentHandler(&stubInvestments{err: domain.ErrPlanInactive})

	c, _ := newJSONContext(e, http.MethodPost, "/v1/investments", `{"plan_id":"p1","amount":"500"}`, "u1", domain.RoleUser)
	if err := h.Invest(c); !errors.Is(err, domain.ErrPlanNotFound) {
		t.Fatalf("inactive plan should surface as plan not found, got %v", err)
	}

	c, _ = newJSONContext(e, http.MethodPost, "/v1/investments", `{"amount":"500"}`, "u1", domain.RoleUser)
	if err := h.Invest(c); httpCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("missing plan id should be 422, got %v", err)
	}
}

func TestInvestmentHandler_CreatePlan(t *testing.T) {
	e := newTestEcho()
	svc := &stubInvestments{}
	h := NewInvestmentHandler(svc)

	body := `{"name":"Gold","min_amount":"100","max_amount":"1000","daily_profit":"1.5","duration_days":30}`
	c, rec := newJSONContext(e, http.MethodPost, "/v1/admin/plans", body, "a1", domain.RoleAdmin)
	if err := h.CreatePlan(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated || svc.plans[0].DurationDays != 30 {
		t.Fatalf("unexpected result %d %+v", rec.Code, svc.plans)
	}

	c, _ = newJSONContext(e, http.MethodPost, "/v1/admin/plans",
		`{"name":"Gold","min_amount":"100","max_amount":"1000","duration_days":30,"status":"paused"}`, "a1", domain.RoleAdmin)
	if err := h.CreatePlan(c); httpCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("unknown status should be 422, got %v", err)
	}
}

func TestInvestmentHandler_Lists(t *testing.T) {
	e := newTestEcho()
	h := NewInvestmentHandler(&stubInvestments{})

	c, rec := newJSONContext(e, http.MethodGet, "/v1/plans", "", "u1", domain.RoleUser)
	if err := h.ListPlans(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("plans: %v %d", err, rec.Code)
	}
	c, rec = newJSONContext(e, http.MethodGet, "/v1/investments", "", "u1", domain.RoleUser)
	if err := h.ListInvestments(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("investments: %v %d", err, rec.Code)
	}
}
