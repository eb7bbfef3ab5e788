package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/seatsurge/ticketing/internal/catalog"
	domainErrors "github.com/seatsurge/ticketing/internal/domain/errors"
	"github.com/seatsurge/ticketing/internal/domain/payment"
	"github.com/seatsurge/ticketing/internal/domain/ticket"
	"github.com/seatsurge/ticketing/internal/gateway"
	"github.com/seatsurge/ticketing/internal/notifier"
	"github.com/seatsurge/ticketing/internal/repository/postgres"
)

// --- Transaction state ---
//
// The mock transaction manager mirrors the semantics services rely on in
// production: writes inside a transaction become visible only at commit,
// they are discarded on rollback, and event locks are held until the
// transaction ends. That keeps concurrency tests honest.

type txStateKeyType struct{}

var txStateKey txStateKeyType

type txState struct {
	mu       sync.Mutex
	onCommit []func()
	locks    []*sync.Mutex
}

func txStateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txStateKey).(*txState)
	return st
}

func (st *txState) addCommit(fn func()) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onCommit = append(st.onCommit, fn)
}

func (st *txState) addLock(l *sync.Mutex) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.locks = append(st.locks, l)
}

// MockTransactionManager implements service.TransactionManager with
// commit/rollback semantics over the in-memory repositories.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}

	st := &txState{}
	err := fn(context.WithValue(ctx, txStateKey, st))
	if err == nil {
		for _, commit := range st.onCommit {
			commit()
		}
	}
	// Locks release after commit, the same ordering the database gives
	// transaction-scoped advisory locks.
	for i := len(st.locks) - 1; i >= 0; i-- {
		st.locks[i].Unlock()
	}
	return err
}

// --- Ticket Repository Mock ---

// MockTicketRepository is an in-memory implementation of ticket.Repository.
type MockTicketRepository struct {
	mu         sync.Mutex
	tickets    map[uuid.UUID]*ticket.Ticket
	eventLocks map[int64]*sync.Mutex

	CreateFunc             func(ctx context.Context, t *ticket.Ticket) error
	UpdateFunc             func(ctx context.Context, t *ticket.Ticket) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	GetByNumberFunc        func(ctx context.Context, number string) (*ticket.Ticket, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error)
	ListByUserFunc         func(ctx context.Context, userID int64) ([]*ticket.Ticket, error)
	CountActiveByEventFunc func(ctx context.Context, eventID int64) (int, error)
	LockEventFunc          func(ctx context.Context, eventID int64) error
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{
		tickets:    make(map[uuid.UUID]*ticket.Ticket),
		eventLocks: make(map[int64]*sync.Mutex),
	}
}

// AddTicket pre-populates the repository with a committed ticket.
func (m *MockTicketRepository) AddTicket(t *ticket.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := *t
	m.tickets[t.ID] = &snap
}

func (m *MockTicketRepository) store(t *ticket.Ticket) {
	snap := *t
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.ID] = &snap
}

func (m *MockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	if st := txStateFrom(ctx); st != nil {
		snap := *t
		st.addCommit(func() { m.store(&snap) })
		return nil
	}
	m.store(t)
	return nil
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	if st := txStateFrom(ctx); st != nil {
		snap := *t
		st.addCommit(func() { m.store(&snap) })
		return nil
	}
	m.mu.Lock()
	_, ok := m.tickets[t.ID]
	m.mu.Unlock()
	if !ok {
		return domainErrors.ErrTicketNotFound
	}
	m.store(t)
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, domainErrors.ErrTicketNotFound
	}
	snap := *t
	return &snap, nil
}

func (m *MockTicketRepository) GetByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.TicketNumber == number {
			snap := *t
			return &snap, nil
		}
	}
	return nil, domainErrors.ErrTicketNotFound
}

func (m *MockTicketRepository) List(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	all := m.snapshot()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockTicketRepository) ListByUser(ctx context.Context, userID int64) ([]*ticket.Ticket, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	var result []*ticket.Ticket
	for _, t := range m.snapshot() {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTicketRepository) CountActiveByEvent(ctx context.Context, eventID int64) (int, error) {
	if m.CountActiveByEventFunc != nil {
		return m.CountActiveByEventFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tickets {
		if t.EventID == eventID && t.Active() {
			count++
		}
	}
	return count, nil
}

func (m *MockTicketRepository) LockEvent(ctx context.Context, eventID int64) error {
	if m.LockEventFunc != nil {
		return m.LockEventFunc(ctx, eventID)
	}
	st := txStateFrom(ctx)
	if st == nil {
		return domainErrors.NewDomainError("internal_error", "LockEvent requires a transaction", nil)
	}
	m.mu.Lock()
	l, ok := m.eventLocks[eventID]
	if !ok {
		l = &sync.Mutex{}
		m.eventLocks[eventID] = l
	}
	m.mu.Unlock()

	l.Lock()
	st.addLock(l)
	return nil
}

// TicketCount returns the number of committed tickets (test helper).
func (m *MockTicketRepository) TicketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

func (m *MockTicketRepository) snapshot() []*ticket.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*ticket.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		snap := *t
		all = append(all, &snap)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all
}

// --- Payment Repository Mock ---

// MockPaymentRepository is an in-memory implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment // keyed by ticket id

	CreateFunc         func(ctx context.Context, p *payment.Payment) error
	GetByTicketIDFunc  func(ctx context.Context, ticketID uuid.UUID) (*payment.Payment, error)
	GetByTicketIDsFunc func(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID]*payment.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[uuid.UUID]*payment.Payment)}
}

// AddPayment pre-populates the repository with a committed payment.
func (m *MockPaymentRepository) AddPayment(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := *p
	m.payments[p.TicketID] = &snap
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	if st := txStateFrom(ctx); st != nil {
		snap := *p
		st.addCommit(func() { m.AddPayment(&snap) })
		return nil
	}
	m.AddPayment(p)
	return nil
}

func (m *MockPaymentRepository) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*payment.Payment, error) {
	if m.GetByTicketIDFunc != nil {
		return m.GetByTicketIDFunc(ctx, ticketID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[ticketID]
	if !ok {
		return nil, nil
	}
	snap := *p
	return &snap, nil
}

func (m *MockPaymentRepository) GetByTicketIDs(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID]*payment.Payment, error) {
	if m.GetByTicketIDsFunc != nil {
		return m.GetByTicketIDsFunc(ctx, ticketIDs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[uuid.UUID]*payment.Payment, len(ticketIDs))
	for _, id := range ticketIDs {
		if p, ok := m.payments[id]; ok {
			snap := *p
			result[id] = &snap
		}
	}
	return result, nil
}

// PaymentCount returns the number of committed payments (test helper).
func (m *MockPaymentRepository) PaymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// --- Catalog Client Mock ---

// MockCatalogClient is a mock implementation of service.CatalogClient.
type MockCatalogClient struct {
	mu     sync.Mutex
	events map[int64]*catalog.Event

	GetEventFunc func(ctx context.Context, eventID int64) (*catalog.Event, error)
}

func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{events: make(map[int64]*catalog.Event)}
}

// AddEvent pre-populates the mock with an event.
func (m *MockCatalogClient) AddEvent(e *catalog.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *MockCatalogClient) GetEvent(ctx context.Context, eventID int64) (*catalog.Event, error) {
	if m.GetEventFunc != nil {
		return m.GetEventFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, domainErrors.NewDomainError("event_unavailable", "event not found", domainErrors.ErrEventUnavailable)
	}
	return e, nil
}

// --- Gateway Provider Mock ---

// MockGatewayProvider is a scriptable implementation of gateway.Provider.
type MockGatewayProvider struct {
	mu      sync.Mutex
	charges []gateway.ChargeRequest

	ChargeFunc func(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error)
}

func NewMockGatewayProvider() *MockGatewayProvider {
	return &MockGatewayProvider{}
}

func (m *MockGatewayProvider) Name() string { return "testpay" }

func (m *MockGatewayProvider) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	m.mu.Lock()
	m.charges = append(m.charges, req)
	m.mu.Unlock()
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, req)
	}
	return &gateway.ChargeResult{Reference: "testpay_ch_" + uuid.New().String()[:8]}, nil
}

// Charges returns the recorded charge requests.
func (m *MockGatewayProvider) Charges() []gateway.ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gateway.ChargeRequest(nil), m.charges...)
}

// --- Notifier Mock ---

// MockNotifier records dispatched notifications.
type MockNotifier struct {
	mu         sync.Mutex
	dispatched []notifier.PurchaseConfirmed
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) DispatchPurchaseConfirmed(ctx context.Context, n notifier.PurchaseConfirmed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, n)
}

// Dispatched returns the recorded notifications.
func (m *MockNotifier) Dispatched() []notifier.PurchaseConfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notifier.PurchaseConfirmed(nil), m.dispatched...)
}

// --- Idempotency Store Mock ---

// MockIdempotencyStore is an in-memory implementation of
// middleware.IdempotencyStore.
type MockIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*postgres.IdempotencyEntry

	GetFunc func(ctx context.Context, key string) (*postgres.IdempotencyEntry, error)
	SetFunc func(ctx context.Context, entry *postgres.IdempotencyEntry) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{entries: make(map[string]*postgres.IdempotencyEntry)}
}

func (m *MockIdempotencyStore) Get(ctx context.Context, key string) (*postgres.IdempotencyEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (m *MockIdempotencyStore) Set(ctx context.Context, entry *postgres.IdempotencyEntry) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}
