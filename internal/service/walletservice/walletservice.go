package walletservice

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=walletservice.go -destination=mock_walletservice.go -package=walletservice

type WalletRepo interface {
	Create(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error)
	FindByID(ctx context.Context, id int) (*domain.Wallet, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.Wallet, error)
	FindByOwner(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, wallet *domain.Wallet) error
	ListIDs(ctx context.Context) ([]int, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	AddHistory(ctx context.Context, entry *domain.HistoryEntry) error
	FindByID(ctx context.Context, id int) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID int) ([]domain.Transaction, error)
	SetPaid(ctx context.Context, id int, paid bool) error
	SetHistoryPaid(ctx context.Context, id int, paid bool) error
}

type Service struct {
	wallets      WalletRepo
	transactions TransactionRepo
	txManager    pg.TXManager
	now          func() time.Time
}

func New(wallets WalletRepo, transactions TransactionRepo, txManager pg.TXManager) *Service {
	return &Service{
		wallets:      wallets,
		transactions: transactions,
		txManager:    txManager,
		now:          time.Now,
	}
}

const (
	triggerRequest = "request"
	triggerToggle  = "toggle"
	triggerSweep   = "sweep"
)

var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrHistoryEntryNotFound = errors.New("history entry not found")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidType          = errors.New("transaction type must be credit or debit")
)

// Totals sums the unpaid credit and debit amounts of the entries. Every
// unpaid history entry counts under its parent's type, whether or not the
// parent itself is paid.
func Totals(entries []domain.Transaction) (credit, debit decimal.Decimal) {
	credit, debit = decimal.Zero, decimal.Zero
	for _, t := range entries {
		sum := decimal.Zero
		if !t.Paid {
			sum = sum.Add(t.Amount)
		}
		for _, h := range t.History {
			if !h.Paid {
				sum = sum.Add(h.Amount)
			}
		}
		switch t.Type {
		case domain.Credit:
			credit = credit.Add(sum)
		case domain.Debit:
			debit = debit.Add(sum)
		}
	}
	return credit, debit
}

// Reconcile recomputes the wallet balance from all of its entries and
// stores it. A missing wallet reconciles to a zero balance that is not stored.
func (s *Service) Reconcile(ctx context.Context, walletID int) (*domain.Wallet, error) {
	return s.reconcile(ctx, walletID, triggerRequest)
}

// Sweep is Reconcile for the periodic background pass.
func (s *Service) Sweep(ctx context.Context, walletID int) error {
	_, err := s.reconcile(ctx, walletID, triggerSweep)
	return err
}

// reconcile holds the wallet row lock while it reads the entries, so
// concurrent toggles on one wallet store their balances in commit order.
func (s *Service) reconcile(ctx context.Context, walletID int, trigger string) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		wallet, err = s.wallets.FindByIDForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet == nil {
			zap.L().Info("reconcile of missing wallet", zap.Int("wallet_id", walletID))
			wallet = &domain.Wallet{ID: walletID, Balance: decimal.Zero, Dues: decimal.Zero, Revenues: decimal.Zero}
			return nil
		}

		entries, err := s.transactions.ListByWallet(ctx, walletID)
		if err != nil {
			return err
		}

		credit, debit := Totals(entries)
		now := s.now()
		wallet.Revenues = credit
		wallet.Dues = debit
		wallet.Balance = credit.Sub(debit)
		wallet.ReconciledAt = &now

		if err := s.wallets.UpdateBalance(ctx, wallet); err != nil {
			zap.L().Error("failed to store wallet balance", zap.Int("wallet_id", walletID), zap.Error(err))
			return err
		}
		metrics.Reconciliations.WithLabelValues(trigger).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// TogglePaid flips the paid flag of a transaction, or of one of its history
// entries when historyID is set, then reconciles the owning wallet.
func (s *Service) TogglePaid(ctx context.Context, transactionID int, historyID *int) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		t, err := s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrTransactionNotFound
		}

		if historyID == nil {
			if err := s.transactions.SetPaid(ctx, t.ID, !t.Paid); err != nil {
				return err
			}
		} else {
			entry := findHistory(t, *historyID)
			if entry == nil {
				return ErrHistoryEntryNotFound
			}
			if err := s.transactions.SetHistoryPaid(ctx, entry.ID, !entry.Paid); err != nil {
				return err
			}
		}

		wallet, err = s.reconcile(ctx, t.WalletID, triggerToggle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func findHistory(t *domain.Transaction, id int) *domain.HistoryEntry {
	for i := range t.History {
		if t.History[i].ID == id {
			return &t.History[i]
		}
	}
	return nil
}

// AddTransaction appends a ledger entry. The wallet balance is left as is
// until the next reconciliation.
func (s *Service) AddTransaction(ctx context.Context, walletID int, typ domain.TransactionType, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if !typ.Valid() {
		return nil, ErrInvalidType
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		WalletID:    walletID,
		Type:        typ,
		Amount:      amount,
		Description: description,
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) AddHistory(ctx context.Context, transactionID int, amount decimal.Decimal) (*domain.HistoryEntry, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	t, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}

	entry := &domain.HistoryEntry{TransactionID: t.ID, Amount: amount}
	if err := s.transactions.AddHistory(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) GetWallet(ctx context.Context, id int) (*domain.Wallet, error) {
	wallet, err := s.wallets.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

func (s *Service) GetWalletByOwner(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error) {
	wallet, err := s.wallets.FindByOwner(ctx, owner)
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

func (s *Service) CreateWallet(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error) {
	wallet, err := s.wallets.Create(ctx, owner)
	if err != nil {
		zap.L().Error("failed to create wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (s *Service) GetTransactions(ctx context.Context, walletID int) ([]domain.Transaction, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return s.transactions.ListByWallet(ctx, walletID)
}

func (s *Service) WalletIDs(ctx context.Context) ([]int, error) {
	return s.wallets.ListIDs(ctx)
}
