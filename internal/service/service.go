package service

import (
	"context"
	"time"

	"github.com/GlebRadaev/delivery/internal/handlers/auth"
	"github.com/GlebRadaev/delivery/internal/handlers/inventory"
	"github.com/GlebRadaev/delivery/internal/handlers/orders"
	"github.com/GlebRadaev/delivery/internal/handlers/tickets"
	"github.com/GlebRadaev/delivery/internal/handlers/wallets"
	"github.com/GlebRadaev/delivery/internal/notify"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/internal/reconcile"
	"github.com/GlebRadaev/delivery/internal/repo"
	"github.com/GlebRadaev/delivery/internal/service/authservice"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/internal/service/messageservice"
	"github.com/GlebRadaev/delivery/internal/service/orderservice"
	"github.com/GlebRadaev/delivery/internal/service/ticketservice"
	"github.com/GlebRadaev/delivery/internal/service/walletservice"
	pkgauth "github.com/GlebRadaev/delivery/pkg/auth"
)

type AuthService interface {
	auth.Service
	EnsureAdmin(ctx context.Context, login, password string) error
}

type WalletService interface {
	wallets.Service
	reconcile.Wallets
}

type Services struct {
	AuthService      AuthService
	InventoryService inventory.Service
	OrderService     orders.Service
	WalletService    WalletService
	TicketService    tickets.TicketService
	MessageService   tickets.MessageService
}

func New(repo *repo.Repositories, txManager pg.TXManager, notifier notify.Notifier, jwtService pkgauth.JWTServiceInterface, tokenTTL time.Duration) *Services {
	walletService := walletservice.New(repo.WalletRepo, repo.TransactionRepo, txManager)
	inventoryService := inventoryservice.New(repo.InventoryRepo)
	orderService := orderservice.New(repo.OrderRepo, repo.AccountRepo, inventoryService, txManager, notifier)
	authService := authservice.New(repo.AccountRepo, walletService, pkgauth.NewHashService(0), jwtService, txManager, tokenTTL)
	ticketService := ticketservice.New(repo.TicketRepo, notifier)
	messageService := messageservice.New(repo.MessageRepo, ticketService, notifier)

	return &Services{
		AuthService:      authService,
		InventoryService: inventoryService,
		OrderService:     orderService,
		WalletService:    walletService,
		TicketService:    ticketService,
		MessageService:   messageService,
	}
}
