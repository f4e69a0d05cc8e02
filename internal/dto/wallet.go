package dto

import (
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/shopspring/decimal"
)

type WalletResponseDTO struct {
	ID           int             `json:"id" example:"1"`
	OwnerKind    string          `json:"owner_kind" example:"captain"`
	OwnerID      int             `json:"owner_id" example:"3"`
	Balance      decimal.Decimal `json:"balance" swaggertype:"string" example:"70"`
	Dues         decimal.Decimal `json:"dues" swaggertype:"string" example:"30"`
	Revenues     decimal.Decimal `json:"revenues" swaggertype:"string" example:"100"`
	ReconciledAt *time.Time      `json:"reconciled_at,omitempty"`
}

type TransactionRequestDTO struct {
	Type        string          `json:"type" validate:"required,oneof=credit debit" example:"credit"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"100"`
	Description string          `json:"description" validate:"max=500" example:"delivery fee"`
}

type HistoryRequestDTO struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"15"`
}

type HistoryEntryDTO struct {
	ID        int             `json:"id" example:"1"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"15"`
	Paid      bool            `json:"paid" example:"false"`
	CreatedAt time.Time       `json:"created_at"`
}

type TransactionResponseDTO struct {
	ID          int               `json:"id" example:"1"`
	WalletID    int               `json:"wallet_id" example:"1"`
	Type        string            `json:"type" example:"credit"`
	Amount      decimal.Decimal   `json:"amount" swaggertype:"string" example:"100"`
	Paid        bool              `json:"paid" example:"false"`
	Description string            `json:"description" example:"delivery fee"`
	History     []HistoryEntryDTO `json:"history"`
	CreatedAt   time.Time         `json:"created_at"`
}

func FromWallet(wallet *domain.Wallet) WalletResponseDTO {
	return WalletResponseDTO{
		ID:           wallet.ID,
		OwnerKind:    string(wallet.Owner.Kind),
		OwnerID:      wallet.Owner.ID,
		Balance:      wallet.Balance,
		Dues:         wallet.Dues,
		Revenues:     wallet.Revenues,
		ReconciledAt: wallet.ReconciledAt,
	}
}

func FromHistoryEntry(entry *domain.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:        entry.ID,
		Amount:    entry.Amount,
		Paid:      entry.Paid,
		CreatedAt: entry.CreatedAt,
	}
}

func FromTransaction(t *domain.Transaction) TransactionResponseDTO {
	history := make([]HistoryEntryDTO, 0, len(t.History))
	for i := range t.History {
		history = append(history, FromHistoryEntry(&t.History[i]))
	}
	return TransactionResponseDTO{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Paid:        t.Paid,
		Description: t.Description,
		History:     history,
		CreatedAt:   t.CreatedAt,
	}
}

func FromTransactions(entries []domain.Transaction) []TransactionResponseDTO {
	resp := make([]TransactionResponseDTO, 0, len(entries))
	for i := range entries {
		resp = append(resp, FromTransaction(&entries[i]))
	}
	return resp
}
