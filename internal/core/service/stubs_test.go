package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory ledger store shared by the stub repositories. AdjustBalance and
// TransitionStatus are compare-and-write under one mutex, which mirrors the
// conditional updates of the Mongo repositories.
// ---------------------------------------------------------------------------

type memState struct {
	mu          sync.Mutex
	seq         int
	users       map[string]domain.User
	txs         map[string]domain.Transaction
	plans       map[string]domain.Plan
	investments map[string]domain.Investment
	chats       map[string]domain.ChatMessage
}

func newMemState() *memState {
	return &memState{
		users:       make(map[string]domain.User),
		txs:         make(map[string]domain.Transaction),
		plans:       make(map[string]domain.Plan),
		investments: make(map[string]domain.Investment),
		chats:       make(map[string]domain.ChatMessage),
	}
}

func (s *memState) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%d", prefix, s.seq)
}

func (s *memState) seedUser(id string, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = domain.User{ID: id, Email: id + "@example.com", Role: domain.RoleUser, Balance: decimal.RequireFromString(balance)}
}

func (s *memState) seedPlan(id, minAmount, maxAmount string, status domain.PlanStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[id] = domain.Plan{
		ID:        id,
		Name:      id,
		MinAmount: decimal.RequireFromString(minAmount),
		MaxAmount: decimal.RequireFromString(maxAmount),
		Status:    status,
	}
}

func (s *memState) balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

type snapshot struct {
	users       map[string]domain.User
	txs         map[string]domain.Transaction
	investments map[string]domain.Investment
	chats       map[string]domain.ChatMessage
}

func (s *memState) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		users:       cloneMap(s.users),
		txs:         cloneMap(s.txs),
		investments: cloneMap(s.investments),
		chats:       cloneMap(s.chats),
	}
}

func (s *memState) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.txs = snap.txs
	s.investments = snap.investments
	s.chats = snap.chats
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// stubTransactor serialises units and restores the snapshot when fn fails.
type stubTransactor struct {
	mu    sync.Mutex
	state *memState
	runs  int
}

func (t *stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++
	snap := t.state.snapshot()
	if err := fn(ctx); err != nil {
		t.state.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type stubUserRepo struct{ state *memState }

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, u := range r.state.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *user
	clone.ID = r.state.nextID("user")
	r.state.users[clone.ID] = clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	u, ok := r.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, u := range r.state.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) AdjustBalance(_ context.Context, id string, delta decimal.Decimal) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	u, ok := r.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}
	u.Balance = next
	u.UpdatedAt = time.Now().UTC()
	r.state.users[id] = u
	return &u, nil
}

// --- transactions ---

type stubTxRepo struct {
	state     *memState
	createErr error
}

func (r *stubTxRepo) Create(_ context.Context, tx *domain.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	tx.ID = r.state.nextID("tx")
	r.state.txs[tx.ID] = *tx
	return nil
}

func (r *stubTxRepo) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	t, ok := r.state.txs[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *stubTxRepo) TransitionStatus(_ context.Context, id string, from, to domain.TransactionStatus, at time.Time) (*domain.Transaction, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	t, ok := r.state.txs[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	if t.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	t.Status = to
	t.UpdatedAt = at
	r.state.txs[id] = t
	return &t, nil
}

func (r *stubTxRepo) List(_ context.Context, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range r.state.txs {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		clone := t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- plans and investments ---

type stubPlanRepo struct{ state *memState }

func (r *stubPlanRepo) Create(_ context.Context, p *domain.Plan) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	p.ID = r.state.nextID("plan")
	r.state.plans[p.ID] = *p
	return nil
}

func (r *stubPlanRepo) FindByID(_ context.Context, id string) (*domain.Plan, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	p, ok := r.state.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return &p, nil
}

func (r *stubPlanRepo) ListActive(_ context.Context) ([]*domain.Plan, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.Plan
	for _, p := range r.state.plans {
		if p.Status == domain.PlanActive {
			clone := p
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubInvestmentRepo struct {
	state     *memState
	createErr error
}

func (r *stubInvestmentRepo) Create(_ context.Context, inv *domain.Investment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	inv.ID = r.state.nextID("inv")
	r.state.investments[inv.ID] = *inv
	return nil
}

func (r *stubInvestmentRepo) ListByUser(_ context.Context, userID string) ([]*domain.Investment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.Investment
	for _, inv := range r.state.investments {
		if inv.UserID == userID {
			clone := inv
			out = append(out, &clone)
		}
	}
	return out, nil
}

// --- chat ---

type stubChatRepo struct {
	state     *memState
	createErr error
}

func (r *stubChatRepo) Create(_ context.Context, msg *domain.ChatMessage) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	msg.ID = r.state.nextID("msg")
	r.state.chats[msg.ID] = *msg
	return nil
}

func (r *stubChatRepo) FindByID(_ context.Context, id string) (*domain.ChatMessage, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	m, ok := r.state.chats[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return &m, nil
}

func (r *stubChatRepo) Reply(_ context.Context, id, adminID, response string, at time.Time) (*domain.ChatMessage, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	m, ok := r.state.chats[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	if m.Status == domain.ChatReplied {
		return nil, domain.ErrAlreadyReplied
	}
	m.AdminID = adminID
	m.AdminResponse = &response
	m.Status = domain.ChatReplied
	m.UpdatedAt = at
	r.state.chats[id] = m
	return &m, nil
}

func (r *stubChatRepo) MarkRead(_ context.Context, id string, at time.Time) (*domain.ChatMessage, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	m, ok := r.state.chats[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	if m.Status == domain.ChatUnread {
		m.Status = domain.ChatRead
		m.UpdatedAt = at
		r.state.chats[id] = m
	}
	return &m, nil
}

func (r *stubChatRepo) List(_ context.Context, f ports.ChatFilter) ([]*domain.ChatMessage, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.ChatMessage
	for _, m := range r.state.chats {
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		clone := m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- notifier / publisher ---

type recordingNotifier struct {
	mu      sync.Mutex
	newMsgs []*domain.ChatMessage
	replies []*domain.ChatMessage
}

func (n *recordingNotifier) NewMessage(msg *domain.ChatMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newMsgs = append(n.newMsgs, msg)
}

func (n *recordingNotifier) AdminReply(msg *domain.ChatMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, msg)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Transaction
}

func (p *recordingPublisher) Publish(tx *domain.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *tx)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	state       *memState
	transactor  *stubTransactor
	users       *stubUserRepo
	txRepo      *stubTxRepo
	plans       *stubPlanRepo
	investments *stubInvestmentRepo
	publisher   *recordingPublisher
	balances    *BalanceService
	txSvc       *TransactionService
	investSvc   *InvestmentService
}

func newFixture() *fixture {
	state := newMemState()
	f := &fixture{
		state:       state,
		transactor:  &stubTransactor{state: state},
		users:       &stubUserRepo{state: state},
		txRepo:      &stubTxRepo{state: state},
		plans:       &stubPlanRepo{state: state},
		investments: &stubInvestmentRepo{state: state},
		publisher:   &recordingPublisher{},
	}
	f.balances = NewBalanceService(f.users, discardLogger)
	f.txSvc = NewTransactionService(f.transactor, f.balances, f.txRepo, f.publisher, Limits{
		MinDeposit:    decimal.NewFromInt(50),
		MinWithdrawal: decimal.NewFromInt(50),
	}, discardLogger)
	f.investSvc = NewInvestmentService(f.transactor, f.balances, f.plans, f.investments, discardLogger)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
