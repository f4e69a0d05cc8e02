package repo

import (
	"github.com/GlebRadaev/delivery/internal/pg"
	accountrepo "github.com/GlebRadaev/delivery/internal/repo/account-repo"
	inventoryrepo "github.com/GlebRadaev/delivery/internal/repo/inventory-repo"
	messagerepo "github.com/GlebRadaev/delivery/internal/repo/message-repo"
	orderrepo "github.com/GlebRadaev/delivery/internal/repo/order-repo"
	ticketrepo "github.com/GlebRadaev/delivery/internal/repo/ticket-repo"
	transactionrepo "github.com/GlebRadaev/delivery/internal/repo/transaction-repo"
	walletrepo "github.com/GlebRadaev/delivery/internal/repo/wallet-repo"
	"github.com/GlebRadaev/delivery/internal/service/authservice"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/internal/service/messageservice"
	"github.com/GlebRadaev/delivery/internal/service/orderservice"
	"github.com/GlebRadaev/delivery/internal/service/ticketservice"
	"github.com/GlebRadaev/delivery/internal/service/walletservice"
)

// AccountRepo serves both registration and order ownership lookups.
type AccountRepo interface {
	authservice.Repo
	orderservice.AccountRepo
}

type Repositories struct {
	AccountRepo     AccountRepo
	InventoryRepo   inventoryservice.Repo
	OrderRepo       orderservice.Repo
	WalletRepo      walletservice.WalletRepo
	TransactionRepo walletservice.TransactionRepo
	TicketRepo      ticketservice.Repo
	MessageRepo     messageservice.Repo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		AccountRepo:     accountrepo.New(conn),
		InventoryRepo:   inventoryrepo.New(conn),
		OrderRepo:       orderrepo.New(conn, txManager),
		WalletRepo:      walletrepo.New(conn, txManager),
		TransactionRepo: transactionrepo.New(conn, txManager),
		TicketRepo:      ticketrepo.New(conn),
		MessageRepo:     messagerepo.New(conn),
	}
}
