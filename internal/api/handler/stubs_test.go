package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds a request context with claims already set, as the
// Auth middleware would.
func newJSONContext(e *echo.Echo, method, target, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubBalances struct {
	user *domain.User
	err  error
}

func (s *stubBalances) AdjustBalance(context.Context, string, decimal.Decimal) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubBalances) GetUser(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u := *s.user
	u.ID = id
	return &u, nil
}

type stubTransactions struct {
	deposits    []ports.DepositInput
	withdrawals []ports.WithdrawalInput
	profits     []ports.ProfitInput
	filters     []ports.TransactionFilter
	approved    []string
	rejected    []string
	err         error
}

func (s *stubTransactions) Deposit(_ context.Context, in ports.DepositInput) (*domain.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.deposits = append(s.deposits, in)
	return &domain.Transaction{ID: "tx1", UserID: in.UserID, Type: domain.TypeDeposit, Amount: in.Amount, Status: domain.TxCompleted}, nil
}

func (s *stubTransactions) RequestWithdrawal(_ context.Context, in ports.WithdrawalInput) (*domain.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.withdrawals = append(s.withdrawals, in)
	return &domain.Transaction{ID: "tx2", UserID: in.UserID, Type: domain.TypeWithdrawal, Amount: in.Amount, Status: domain.TxPending}, nil
}

func (s *stubTransactions) ApproveWithdrawal(_ context.Context, id string) (*domain.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.approved = append(s.approved, id)
	return &domain.Transaction{ID: id, Status: domain.TxCompleted}, nil
}

func (s *stubTransactions) RejectWithdrawal(_ context.Context, id string) (*domain.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.rejected = append(s.rejected, id)
	return &domain.Transaction{ID: id, Status: domain.TxRejected}, nil
}

func (s *stubTransactions) CreditProfit(_ context.Context, in ports.ProfitInput) (*domain.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.profits = append(s.profits, in)
	return &domain.Transaction{ID: "tx3", UserID: in.UserID, Type: domain.TypeProfit, Status: domain.TxCompleted}, nil
}

func (s *stubTransactions) List(_ context.Context, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	s.filters = append(s.filters, f)
	return []*domain.Transaction{}, s.err
}

type stubInvestments struct {
	invests []ports.InvestInput
	plans   []ports.CreatePlanInput
	err     error
}

func (s *stubInvestments) Invest(_ context.Context, in ports.InvestInput) (*domain.Investment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.invests = append(s.invests, in)
	return &domain.Investment{ID: "inv1", UserID: in.UserID, PlanID: in.PlanID, Amount: in.Amount, IsActive: true}, nil
}

func (s *stubInvestments) ListInvestments(context.Context, string) ([]*domain.Investment, error) {
	return []*domain.Investment{}, s.err
}

func (s *stubInvestments) ListPlans(context.Context) ([]*domain.Plan, error) {
	return []*domain.Plan{{ID: "p1", Name: "Starter", Status: domain.PlanActive}}, s.err
}

func (s *stubInvestments) CreatePlan(_ context.Context, in ports.CreatePlanInput) (*domain.Plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.plans = append(s.plans, in)
	return &domain.Plan{ID: "p2", Name: in.Name, MinAmount: in.MinAmount, MaxAmount: in.MaxAmount, Status: domain.PlanActive}, nil
}

type stubChat struct {
	sent    []string
	replies []string
	filters []ports.ChatFilter
	err     error
}

func (s *stubChat) SendUserMessage(_ context.Context, userID, content string) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, content)
	return &domain.ChatMessage{ID: "m1", UserID: userID, Content: content, Status: domain.ChatUnread}, nil
}

func (s *stubChat) SendAdminReply(_ context.Context, messageID, adminID, content string) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.replies = append(s.replies, messageID+":"+adminID+":"+content)
	return &domain.ChatMessage{ID: messageID, AdminID: adminID, AdminResponse: &content, Status: domain.ChatReplied}, nil
}

func (s *stubChat) MarkRead(_ context.Context, id string) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChatMessage{ID: id, Status: domain.ChatRead}, nil
}

func (s *stubChat) List(_ context.Context, f ports.ChatFilter) ([]*domain.ChatMessage, error) {
	s.filters = append(s.filters, f)
	return []*domain.ChatMessage{}, s.err
}
