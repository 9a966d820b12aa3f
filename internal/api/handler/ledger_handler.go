package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

// LedgerHandler serves balances and the transaction lifecycle.
type LedgerHandler struct {
	balances     ports.BalanceService
	transactions ports.TransactionService
}

func NewLedgerHandler(balances ports.BalanceService, transactions ports.TransactionService) *LedgerHandler {
	return &LedgerHandler{balances: balances, transactions: transactions}
}

// Me returns the caller's profile and current balance.
//
// @Summary      Current user
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *LedgerHandler) Me(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.balances.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Deposit records a self-reported deposit and credits the balance.
//
// @Summary      Report a deposit
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      depositRequest  true   "Deposit"
// @Success      201              {object}  domain.Transaction
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/deposits [post]
func (h *LedgerHandler) Deposit(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tx, err := h.transactions.Deposit(c.Request().Context(), ports.DepositInput{
		UserID:   userID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tx)
}

// Withdraw requests a withdrawal; funds are reserved until an admin decides.
//
// @Summary      Request a withdrawal
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      withdrawalRequest  true   "Withdrawal"
// @Success      201              {object}  domain.Transaction
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/withdrawals [post]
func (h *LedgerHandler) Withdraw(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req withdrawalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tx, err := h.transactions.RequestWithdrawal(c.Request().Context(), ports.WithdrawalInput{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Reason:        req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tx)
}

// ListMine returns the caller's transactions, newest first.
//
// @Summary      List own transactions
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        type    query     string  false  "deposit, withdrawal or profit"
// @Param        status  query     string  false  "pending, completed, rejected or failed"
// @Success      200     {array}   domain.Transaction
// @Router       /v1/transactions [get]
func (h *LedgerHandler) ListMine(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	filter := transactionFilter(c)
	filter.UserID = userID
	return h.list(c, filter)
}

// ListAll returns every transaction, optionally filtered.
//
// @Summary      List all transactions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        type     query     string  false  "deposit, withdrawal or profit"
// @Param        status   query     string  false  "pending, completed, rejected or failed"
// @Param        user_id  query     string  false  "Owner filter"
// @Success      200      {array}   domain.Transaction
// @Failure      403      {object}  errorResponse
// @Router       /v1/admin/transactions [get]
func (h *LedgerHandler) ListAll(c echo.Context) error {
	filter := transactionFilter(c)
	filter.UserID = c.QueryParam("user_id")
	return h.list(c, filter)
}

func (h *LedgerHandler) list(c echo.Context, filter ports.TransactionFilter) error {
	txs, err := h.transactions.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txs)
}

// Approve completes a pending withdrawal.
//
// @Summary      Approve a withdrawal
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction id"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/admin/withdrawals/{id}/approve [post]
func (h *LedgerHandler) Approve(c echo.Context) error {
	tx, err := h.transactions.ApproveWithdrawal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tx)
}

// Reject rejects a pending withdrawal and returns the reserved funds.
//
// @Summary      Reject a withdrawal
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction id"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/admin/withdrawals/{id}/reject [post]
func (h *LedgerHandler) Reject(c echo.Context) error {
	tx, err := h.transactions.RejectWithdrawal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tx)
}

// CreditProfit credits accrued profit to a user.
//
// @Summary      Credit profit
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string         false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      profitRequest  true   "Profit credit"
// @Success      201              {object}  domain.Transaction
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/admin/profits [post]
func (h *LedgerHandler) CreditProfit(c echo.Context) error {
	var req profitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tx, err := h.transactions.CreditProfit(c.Request().Context(), ports.ProfitInput{
		UserID: req.UserID,
		Amount: req.Amount,
		Reason: req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tx)
}

func transactionFilter(c echo.Context) ports.TransactionFilter {
	return ports.TransactionFilter{
		Type:   domain.TransactionType(c.QueryParam("type")),
		Status: domain.TransactionStatus(c.QueryParam("status")),
	}
}
