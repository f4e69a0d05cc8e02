package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/delivery/docs"
	"github.com/GlebRadaev/delivery/internal/domain"
	authhandlers "github.com/GlebRadaev/delivery/internal/handlers/auth"
	inventoryhandlers "github.com/GlebRadaev/delivery/internal/handlers/inventory"
	ordershandlers "github.com/GlebRadaev/delivery/internal/handlers/orders"
	ticketshandlers "github.com/GlebRadaev/delivery/internal/handlers/tickets"
	walletshandlers "github.com/GlebRadaev/delivery/internal/handlers/wallets"
	"github.com/GlebRadaev/delivery/internal/service"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	SetPartner(w http.ResponseWriter, r *http.Request)
}

type InventoryHandler interface {
	ListInventory(w http.ResponseWriter, r *http.Request)
	CreateInventoryItem(w http.ResponseWriter, r *http.Request)
	ListStock(w http.ResponseWriter, r *http.Request)
	CreateStockItem(w http.ResponseWriter, r *http.Request)
	GetItem(w http.ResponseWriter, r *http.Request)
	Restock(w http.ResponseWriter, r *http.Request)
}

type OrderHandler interface {
	AddOrder(w http.ResponseWriter, r *http.Request)
	EditOrder(w http.ResponseWriter, r *http.Request)
	ChangeStatus(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	GetOrders(w http.ResponseWriter, r *http.Request)
	TrackOrder(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetOwnWallet(w http.ResponseWriter, r *http.Request)
	GetWallet(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	AddTransaction(w http.ResponseWriter, r *http.Request)
	AddHistory(w http.ResponseWriter, r *http.Request)
	TogglePaid(w http.ResponseWriter, r *http.Request)
	ToggleHistoryPaid(w http.ResponseWriter, r *http.Request)
}

type TicketHandler interface {
	OpenTicket(w http.ResponseWriter, r *http.Request)
	GetTickets(w http.ResponseWriter, r *http.Request)
	CloseTicket(w http.ResponseWriter, r *http.Request)
	SendMessage(w http.ResponseWriter, r *http.Request)
	GetMessages(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler      AuthHandler
	InventoryHandler InventoryHandler
	OrderHandler     OrderHandler
	WalletHandler    WalletHandler
	TicketHandler    TicketHandler

	jwtService  auth.JWTServiceInterface
	corsOrigins []string
}

func New(s *service.Services, jwtService auth.JWTServiceInterface, corsOrigins []string) *Handlers {
	return &Handlers{
		AuthHandler:      authhandlers.New(s.AuthService),
		InventoryHandler: inventoryhandlers.New(s.InventoryService),
		OrderHandler:     ordershandlers.New(s.OrderService),
		WalletHandler:    walletshandlers.New(s.WalletService),
		TicketHandler:    ticketshandlers.New(s.TicketService, s.MessageService),
		jwtService:       jwtService,
		corsOrigins:      corsOrigins,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins: h.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Authorization"},
			MaxAge:         300,
		}),
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", metrics.Handler())

	adminOnly := auth.RequireKind(domain.KindAdmin)
	userOnly := auth.RequireKind(domain.KindUser)

	r.Route("/api", func(r chi.Router) {
		r.Post("/{kind}/register", h.AuthHandler.Register)
		r.Post("/{kind}/login", h.AuthHandler.Login)
		r.Get("/orders/track/{number}", h.OrderHandler.TrackOrder)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.jwtService))

			r.With(adminOnly).Patch("/users/{id}/partner", h.AuthHandler.SetPartner)
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.InventoryHandler.ListInventory)
				r.Get("/{id}", h.InventoryHandler.GetItem)
				r.With(adminOnly).Post("/", h.InventoryHandler.CreateInventoryItem)
				r.With(adminOnly).Post("/{id}/restock", h.InventoryHandler.Restock)
			})
			r.Route("/stock", func(r chi.Router) {
				r.Use(userOnly)
				r.Get("/", h.InventoryHandler.ListStock)
				r.Post("/", h.InventoryHandler.CreateStockItem)
			})
			r.Route("/orders", func(r chi.Router) {
				r.With(userOnly).Post("/", h.OrderHandler.AddOrder)
				r.Get("/", h.OrderHandler.GetOrders)
				r.Get("/{id}", h.OrderHandler.GetOrder)
				r.With(userOnly).Put("/{id}", h.OrderHandler.EditOrder)
				r.Patch("/{id}/status", h.OrderHandler.ChangeStatus)
			})
			r.Get("/wallet", h.WalletHandler.GetOwnWallet)
			r.Route("/wallets/{id}", func(r chi.Router) {
				r.Get("/", h.WalletHandler.GetWallet)
				r.Post("/reconcile", h.WalletHandler.Reconcile)
				r.Get("/transactions", h.WalletHandler.GetTransactions)
				r.With(adminOnly).Post("/transactions", h.WalletHandler.AddTransaction)
			})
			r.Route("/transactions/{id}", func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/history", h.WalletHandler.AddHistory)
				r.Patch("/paid", h.WalletHandler.TogglePaid)
				r.Patch("/history/{historyID}/paid", h.WalletHandler.ToggleHistoryPaid)
			})
			r.Route("/tickets", func(r chi.Router) {
				r.Post("/", h.TicketHandler.OpenTicket)
				r.Get("/", h.TicketHandler.GetTickets)
				r.Patch("/{id}/close", h.TicketHandler.CloseTicket)
				r.Post("/{id}/messages", h.TicketHandler.SendMessage)
				r.Get("/{id}/messages", h.TicketHandler.GetMessages)
			})
		})
	})

	return r
}
