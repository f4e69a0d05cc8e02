package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID           int       `db:"id"`
	Kind         ActorKind `db:"-"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Partner      bool      `db:"partner"`
	CreatedAt    time.Time `db:"created_at"`
}

func (a *Account) Ref() ActorRef {
	return ActorRef{Kind: a.Kind, ID: a.ID}
}

type Source string

const (
	// SourceInventory is the shared company catalog.
	SourceInventory Source = "inventory"
	// SourceStock is a user's personal stock.
	SourceStock Source = "stock"
)

func (s Source) Valid() bool {
	return s == SourceInventory || s == SourceStock
}

type Item struct {
	ID        int             `db:"id"`
	Source    Source          `db:"source"`
	OwnerID   *int            `db:"owner_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
}

// LineItem is one requested (item, source, quantity) tuple of an order.
type LineItem struct {
	ItemID   int    `db:"item_id"`
	Source   Source `db:"source"`
	Quantity int    `db:"quantity"`
}

// OrderLine is a line item with the unit price read when the order was priced.
type OrderLine struct {
	ID        int             `db:"id"`
	OrderID   int             `db:"order_id"`
	ItemID    int             `db:"item_id"`
	Source    Source          `db:"source"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

type Address struct {
	City     string `db:"city"`
	Street   string `db:"street"`
	Building string `db:"building"`
	Phone    string `db:"phone"`
	Notes    string `db:"notes"`
}

type Order struct {
	ID         int             `db:"id"`
	Number     string          `db:"number"`
	UserID     int             `db:"user_id"`
	CaptainID  *int            `db:"captain_id"`
	Status     OrderStatus     `db:"status"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Address    Address
	Lines      []OrderLine
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type Wallet struct {
	ID           int             `db:"id"`
	Owner        ActorRef        `db:"-"`
	Balance      decimal.Decimal `db:"balance"`
	Dues         decimal.Decimal `db:"dues"`
	Revenues     decimal.Decimal `db:"revenues"`
	ReconciledAt *time.Time      `db:"reconciled_at"`
}

type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

func (t TransactionType) Valid() bool {
	return t == Credit || t == Debit
}

type Transaction struct {
	ID          int             `db:"id"`
	WalletID    int             `db:"wallet_id"`
	Type        TransactionType `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Paid        bool            `db:"paid"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	History     []HistoryEntry
}

type HistoryEntry struct {
	ID            int             `db:"id"`
	TransactionID int             `db:"transaction_id"`
	Amount        decimal.Decimal `db:"amount"`
	Paid          bool            `db:"paid"`
	CreatedAt     time.Time       `db:"created_at"`
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type Ticket struct {
	ID        int          `db:"id"`
	Author    ActorRef     `db:"-"`
	Subject   string       `db:"subject"`
	Status    TicketStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
}

type Message struct {
	ID        int       `db:"id"`
	TicketID  int       `db:"ticket_id"`
	Sender    ActorRef  `db:"-"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}
