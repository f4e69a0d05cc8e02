package walletservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockWalletRepo, *MockTransactionRepo, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	wallets := NewMockWalletRepo(ctrl)
	transactions := NewMockTransactionRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	return New(wallets, transactions, txManager), wallets, transactions, txManager
}

func passThrough(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error { return fn(ctx) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

// ledger is an in-memory store behind both repositories.
type ledger struct {
	wallets map[int]*domain.Wallet
	entries []domain.Transaction
	writes  int

	unlockedReads int
}

func newLedger(walletIDs ...int) *ledger {
	l := &ledger{wallets: map[int]*domain.Wallet{}}
	for _, id := range walletIDs {
		l.wallets[id] = &domain.Wallet{ID: id}
	}
	return l
}

func (l *ledger) Create(_ context.Context, owner domain.ActorRef) (*domain.Wallet, error) {
	w := &domain.Wallet{ID: len(l.wallets) + 1, Owner: owner}
	l.wallets[w.ID] = w
	return w, nil
}

func (l *ledger) FindByID(_ context.Context, id int) (*domain.Wallet, error) {
	w, ok := l.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (l *ledger) FindByIDForUpdate(ctx context.Context, id int) (*domain.Wallet, error) {
	if ctx.Value(inTx{}) == nil {
		l.unlockedReads++
	}
	return l.FindByID(ctx, id)
}

func (l *ledger) FindByOwner(context.Context, domain.ActorRef) (*domain.Wallet, error) {
	return nil, nil
}

func (l *ledger) UpdateBalance(_ context.Context, w *domain.Wallet) error {
	cp := *w
	l.wallets[w.ID] = &cp
	l.writes++
	return nil
}

func (l *ledger) ListIDs(context.Context) ([]int, error) {
	var ids []int
	for id := range l.wallets {
		ids = append(ids, id)
	}
	return ids, nil
}

type ledgerTransactions struct{ *ledger }

func (l ledgerTransactions) Create(_ context.Context, t *domain.Transaction) error {
	t.ID = len(l.entries) + 1
	l.entries = append(l.entries, *t)
	return nil
}

func (l ledgerTransactions) AddHistory(_ context.Context, h *domain.HistoryEntry) error {
	t := &l.entries[h.TransactionID-1]
	h.ID = len(t.History) + 1
	t.History = append(t.History, *h)
	return nil
}

func (l ledgerTransactions) FindByID(_ context.Context, id int) (*domain.Transaction, error) {
	if id < 1 || id > len(l.entries) {
		return nil, nil
	}
	cp := l.entries[id-1]
	cp.History = append([]domain.HistoryEntry(nil), cp.History...)
	return &cp, nil
}

func (l ledgerTransactions) ListByWallet(_ context.Context, walletID int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range l.entries {
		if t.WalletID == walletID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (l ledgerTransactions) SetPaid(_ context.Context, id int, paid bool) error {
	l.entries[id-1].Paid = paid
	return nil
}

func (l ledgerTransactions) SetHistoryPaid(_ context.Context, id int, paid bool) error {
	for i := range l.entries {
		for j := range l.entries[i].History {
			if l.entries[i].History[j].ID == id {
				l.entries[i].History[j].Paid = paid
				return nil
			}
		}
	}
	return nil
}

type inTx struct{}

type inlineTx struct{}

func (inlineTx) Begin(ctx context.Context, fn pg.TransactionalFn) error {
	return fn(context.WithValue(ctx, inTx{}, true))
}

func newLedgerService(l *ledger) *Service {
	return New(l, ledgerTransactions{l}, inlineTx{})
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name       string
		entries    []domain.Transaction
		wantCredit string
		wantDebit  string
	}{
		{
			name:       "No entries",
			wantCredit: "0",
			wantDebit:  "0",
		},
		{
			name: "Unpaid credit and debit",
			entries: []domain.Transaction{
				{Type: domain.Credit, Amount: dec("100")},
				{Type: domain.Debit, Amount: dec("30")},
			},
			wantCredit: "100",
			wantDebit:  "30",
		},
		{
			name: "Paid entries do not count",
			entries: []domain.Transaction{
				{Type: domain.Credit, Amount: dec("100"), Paid: true},
				{Type: domain.Debit, Amount: dec("30")},
			},
			wantCredit: "0",
			wantDebit:  "30",
		},
		{
			name: "Unpaid history counts under its parent's type",
			entries: []domain.Transaction{
				{Type: domain.Credit, Amount: dec("10"), Paid: true, History: []domain.HistoryEntry{
					{Amount: dec("4")}, {Amount: dec("6"), Paid: true},
				}},
				{Type: domain.Debit, Amount: dec("2.5"), History: []domain.HistoryEntry{
					{Amount: dec("0.5")},
				}},
			},
			wantCredit: "4",
			wantDebit:  "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credit, debit := Totals(tt.entries)
			assert.Equal(t, tt.wantCredit, credit.String())
			assert.Equal(t, tt.wantDebit, debit.String())
		})
	}
}

func TestReconcile_CreditMinusDebit(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)
	ctx := context.Background()

	_, err := service.AddTransaction(ctx, 1, domain.Credit, dec("100"), "delivery fees")
	require.NoError(t, err)
	_, err = service.AddTransaction(ctx, 1, domain.Debit, dec("30"), "fuel")
	require.NoError(t, err)

	wallet, err := service.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "70", wallet.Balance.String())
	assert.Equal(t, "100", wallet.Revenues.String())
	assert.Equal(t, "30", wallet.Dues.String())
	assert.NotNil(t, wallet.ReconciledAt)
	assert.Equal(t, "70", l.wallets[1].Balance.String())
}

func TestReconcile_Idempotent(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)
	ctx := context.Background()

	tx, err := service.AddTransaction(ctx, 1, domain.Credit, dec("12.40"), "")
	require.NoError(t, err)
	_, err = service.AddHistory(ctx, tx.ID, dec("3.10"))
	require.NoError(t, err)
	_, err = service.AddTransaction(ctx, 1, domain.Debit, dec("5"), "")
	require.NoError(t, err)

	first, err := service.Reconcile(ctx, 1)
	require.NoError(t, err)
	second, err := service.Reconcile(ctx, 1)
	require.NoError(t, err)

	assert.True(t, first.Balance.Equal(second.Balance))
	assert.Equal(t, "10.5", second.Balance.String())
}

func TestAddTransaction_DoesNotReconcile(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)

	_, err := service.AddTransaction(context.Background(), 1, domain.Credit, dec("50"), "")
	require.NoError(t, err)

	assert.Zero(t, l.writes)
	assert.True(t, l.wallets[1].Balance.IsZero())
}

func TestTogglePaid_RemovesAmountFromBalance(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)
	ctx := context.Background()

	credit, err := service.AddTransaction(ctx, 1, domain.Credit, dec("100"), "")
	require.NoError(t, err)
	_, err = service.AddTransaction(ctx, 1, domain.Debit, dec("30"), "")
	require.NoError(t, err)

	wallet, err := service.TogglePaid(ctx, credit.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "-30", wallet.Balance.String())

	wallet, err = service.TogglePaid(ctx, credit.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "70", wallet.Balance.String())
}

func TestTogglePaid_HistoryEntry(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)
	ctx := context.Background()

	debit, err := service.AddTransaction(ctx, 1, domain.Debit, dec("10"), "")
	require.NoError(t, err)
	entry, err := service.AddHistory(ctx, debit.ID, dec("4"))
	require.NoError(t, err)

	wallet, err := service.TogglePaid(ctx, debit.ID, &entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "-10", wallet.Balance.String())

	_, err = service.TogglePaid(ctx, debit.ID, intPtr(42))
	assert.ErrorIs(t, err, ErrHistoryEntryNotFound)

	_, err = service.TogglePaid(ctx, 99, nil)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestReconcile_MissingWallet(t *testing.T) {
	service, wallets, _, txManager := NewMock(t)
	ctx := context.Background()

	passThrough(txManager)
	wallets.EXPECT().FindByIDForUpdate(ctx, 5).Return(nil, nil)

	wallet, err := service.Reconcile(ctx, 5)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
	assert.Nil(t, wallet.ReconciledAt)
}

func TestReconcile_Errors(t *testing.T) {
	service, wallets, transactions, txManager := NewMock(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	tests := []struct {
		name        string
		prepareMock func()
	}{
		{
			name: "Wallet lookup fails",
			prepareMock: func() {
				wallets.EXPECT().FindByIDForUpdate(ctx, 1).Return(nil, errors.New("database error"))
			},
		},
		{
			name: "Listing entries fails",
			prepareMock: func() {
				wallets.EXPECT().FindByIDForUpdate(ctx, 1).Return(&domain.Wallet{ID: 1}, nil)
				transactions.EXPECT().ListByWallet(ctx, 1).Return(nil, errors.New("database error"))
			},
		},
		{
			name: "Storing balance fails",
			prepareMock: func() {
				wallets.EXPECT().FindByIDForUpdate(ctx, 1).Return(&domain.Wallet{ID: 1}, nil)
				transactions.EXPECT().ListByWallet(ctx, 1).Return(nil, nil)
				wallets.EXPECT().UpdateBalance(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
					assert.Equal(t, fixed, *w.ReconciledAt)
					return errors.New("database error")
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passThrough(txManager)
			tt.prepareMock()
			_, err := service.Reconcile(ctx, 1)
			assert.EqualError(t, err, "database error")
		})
	}
}

func TestTogglePaid_RollsBackOnError(t *testing.T) {
	service, _, transactions, txManager := NewMock(t)
	ctx := context.Background()
	dbErr := errors.New("database error")

	txManager.EXPECT().Begin(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
	transactions.EXPECT().FindByID(ctx, 1).Return(&domain.Transaction{ID: 1, WalletID: 2}, nil)
	transactions.EXPECT().SetPaid(ctx, 1, true).Return(dbErr)

	_, err := service.TogglePaid(ctx, 1, nil)
	assert.ErrorIs(t, err, dbErr)
}

func TestAddTransaction_Validation(t *testing.T) {
	service, wallets, _, _ := NewMock(t)
	ctx := context.Background()

	_, err := service.AddTransaction(ctx, 1, "refund", dec("1"), "")
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = service.AddTransaction(ctx, 1, domain.Credit, dec("-1"), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	wallets.EXPECT().FindByID(ctx, 9).Return(nil, nil)
	_, err = service.AddTransaction(ctx, 9, domain.Credit, dec("1"), "")
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = service.AddHistory(ctx, 1, dec("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWalletLookups(t *testing.T) {
	service, wallets, transactions, _ := NewMock(t)
	ctx := context.Background()
	owner := domain.ActorRef{Kind: domain.KindCaptain, ID: 3}

	wallets.EXPECT().FindByOwner(ctx, owner).Return(nil, nil)
	_, err := service.GetWalletByOwner(ctx, owner)
	assert.ErrorIs(t, err, ErrWalletNotFound)

	wallets.EXPECT().Create(ctx, owner).Return(&domain.Wallet{ID: 4, Owner: owner}, nil)
	wallet, err := service.CreateWallet(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, owner, wallet.Owner)

	wallets.EXPECT().FindByID(ctx, 4).Return(wallet, nil)
	transactions.EXPECT().ListByWallet(ctx, 4).Return([]domain.Transaction{{ID: 1}}, nil)
	list, err := service.GetTransactions(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	wallets.EXPECT().ListIDs(ctx).Return([]int{4}, nil)
	ids, err := service.WalletIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids)
}

func TestReconcile_LocksWalletInsideTransaction(t *testing.T) {
	l := newLedger(1)
	service := newLedgerService(l)
	ctx := context.Background()

	credit, err := service.AddTransaction(ctx, 1, domain.Credit, dec("20"), "")
	require.NoError(t, err)

	_, err = service.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, service.Sweep(ctx, 1))
	_, err = service.TogglePaid(ctx, credit.ID, nil)
	require.NoError(t, err)

	assert.Zero(t, l.unlockedReads)
	assert.Equal(t, 3, l.writes)
}

func TestTogglePaid_LocksWalletAfterFlip(t *testing.T) {
	service, wallets, transactions, txManager := NewMock(t)
	ctx := context.Background()

	// reconcile joins the toggle transaction
	outer := txManager.EXPECT().Begin(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
	txManager.EXPECT().Begin(ctx, gomock.Any()).After(outer).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
	gomock.InOrder(
		transactions.EXPECT().FindByID(ctx, 1).Return(&domain.Transaction{ID: 1, WalletID: 2, Type: domain.Credit, Amount: dec("5")}, nil),
		transactions.EXPECT().SetPaid(ctx, 1, true).Return(nil),
		wallets.EXPECT().FindByIDForUpdate(ctx, 2).Return(&domain.Wallet{ID: 2}, nil),
		transactions.EXPECT().ListByWallet(ctx, 2).Return([]domain.Transaction{{ID: 1, WalletID: 2, Type: domain.Credit, Amount: dec("5"), Paid: true}}, nil),
		wallets.EXPECT().UpdateBalance(ctx, gomock.Any()).Return(nil),
	)

	wallet, err := service.TogglePaid(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}
