package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{domain.ErrBelowMinimum, http.StatusUnprocessableEntity},
		{domain.ErrAmountOutOfRange, http.StatusUnprocessableEntity},
		{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{domain.ErrNotWithdrawal, http.StatusUnprocessableEntity},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrAlreadyReplied, http.StatusConflict},
		{domain.ErrDuplicateRequest, http.StatusConflict},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrTransactionNotFound, http.StatusNotFound},
		{domain.ErrPlanNotFound, http.StatusNotFound},
		{domain.ErrPlanInactive, http.StatusNotFound},
		{domain.ErrMessageNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("adjust balance: %w", domain.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}

	handle := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			handle(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Fatalf("expected error envelope, got %q", rec.Body.String())
			}
		})
	}
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("secret dsn leaked"), c)

	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "internal server error" {
		t.Fatalf("unexpected message %q", body.Error)
	}
}
