package wallets

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/walletservice"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/GlebRadaev/delivery/pkg/utils"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=wallets.go -destination=mock_service.go -package=wallets

type Service interface {
	GetWallet(ctx context.Context, id int) (*domain.Wallet, error)
	GetWalletByOwner(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error)
	Reconcile(ctx context.Context, walletID int) (*domain.Wallet, error)
	GetTransactions(ctx context.Context, walletID int) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, walletID int, typ domain.TransactionType, amount decimal.Decimal, description string) (*domain.Transaction, error)
	AddHistory(ctx context.Context, transactionID int, amount decimal.Decimal) (*domain.HistoryEntry, error)
	TogglePaid(ctx context.Context, transactionID int, historyID *int) (*domain.Wallet, error)
}

type WalletHandler struct {
	walletService Service
}

func New(walletService Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetOwnWallet godoc
//
//	@Summary	Get the caller's wallet
//	@Tags		Wallets
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	dto.WalletResponseDTO
//	@Failure	404	{object}	utils.Response	"Wallet not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/wallet [get]
func (h *WalletHandler) GetOwnWallet(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	wallet, err := h.walletService.GetWalletByOwner(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromWallet(wallet))
}

// GetWallet godoc
//
//	@Summary	Get a wallet
//	@Tags		Wallets
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Wallet ID"
//	@Success	200	{object}	dto.WalletResponseDTO
//	@Failure	404	{object}	utils.Response	"Wallet not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/wallets/{id} [get]
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromWallet(wallet))
}

// Reconcile godoc
//
//	@Summary		Recompute a wallet balance
//	@Description	Sums every unpaid transaction and history entry into revenues, dues and balance
//	@Tags			Wallets
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Wallet ID"
//	@Success		200	{object}	dto.WalletResponseDTO
//	@Failure		404	{object}	utils.Response	"Wallet not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/wallets/{id}/reconcile [post]
func (h *WalletHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}
	wallet, err := h.walletService.Reconcile(r.Context(), wallet.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromWallet(wallet))
}

// GetTransactions godoc
//
//	@Summary	List wallet transactions with their history
//	@Tags		Wallets
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Wallet ID"
//	@Success	200	{array}		dto.TransactionResponseDTO
//	@Failure	404	{object}	utils.Response	"Wallet not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/wallets/{id}/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.ownedWallet(w, r)
	if !ok {
		return
	}
	entries, err := h.walletService.GetTransactions(r.Context(), wallet.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromTransactions(entries))
}

// AddTransaction godoc
//
//	@Summary		Add a ledger entry to a wallet
//	@Description	The wallet balance is not changed until the next reconciliation
//	@Tags			Ledger
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int							true	"Wallet ID"
//	@Param			request	body		dto.TransactionRequestDTO	true	"Entry"
//	@Success		201		{object}	dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"Wallet not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/wallets/{id}/transactions [post]
func (h *WalletHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid wallet id")
		return
	}
	var req dto.TransactionRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	t, err := h.walletService.AddTransaction(r.Context(), id, domain.TransactionType(req.Type), req.Amount, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromTransaction(t))
}

// AddHistory godoc
//
//	@Summary	Add a history entry to a transaction
//	@Tags		Ledger
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"Transaction ID"
//	@Param		request	body		dto.HistoryRequestDTO	true	"Entry"
//	@Success	201		{object}	dto.HistoryEntryDTO
//	@Failure	400		{object}	utils.Response	"Invalid request body"
//	@Failure	404		{object}	utils.Response	"Transaction not found"
//	@Failure	500		{object}	utils.Response	"Internal server error"
//	@Router		/api/transactions/{id}/history [post]
func (h *WalletHandler) AddHistory(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var req dto.HistoryRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	entry, err := h.walletService.AddHistory(r.Context(), id, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.FromHistoryEntry(entry))
}

// TogglePaid godoc
//
//	@Summary	Flip the paid flag of a transaction
//	@Tags		Ledger
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Transaction ID"
//	@Success	200	{object}	dto.WalletResponseDTO	"Reconciled wallet"
//	@Failure	404	{object}	utils.Response			"Transaction not found"
//	@Failure	500	{object}	utils.Response			"Internal server error"
//	@Router		/api/transactions/{id}/paid [patch]
func (h *WalletHandler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

// ToggleHistoryPaid godoc
//
//	@Summary	Flip the paid flag of a history entry
//	@Tags		Ledger
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id			path		int	true	"Transaction ID"
//	@Param		historyID	path		int	true	"History entry ID"
//	@Success	200			{object}	dto.WalletResponseDTO	"Reconciled wallet"
//	@Failure	404			{object}	utils.Response			"History entry not found"
//	@Failure	500			{object}	utils.Response			"Internal server error"
//	@Router		/api/transactions/{id}/history/{historyID}/paid [patch]
func (h *WalletHandler) ToggleHistoryPaid(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

func (h *WalletHandler) toggle(w http.ResponseWriter, r *http.Request, history bool) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var historyID *int
	if history {
		hid, err := utils.IntParam(r, "historyID")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid history entry id")
			return
		}
		historyID = &hid
	}

	wallet, err := h.walletService.TogglePaid(r.Context(), id, historyID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FromWallet(wallet))
}

// ownedWallet loads the wallet in the path when the caller owns it or is an
// admin. Anyone else gets the same 404 as for a missing wallet.
func (h *WalletHandler) ownedWallet(w http.ResponseWriter, r *http.Request) (*domain.Wallet, bool) {
	id, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid wallet id")
		return nil, false
	}
	actor, _ := auth.ActorFromContext(r.Context())

	wallet, err := h.walletService.GetWallet(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	if actor.Kind != domain.KindAdmin && wallet.Owner != actor {
		respondError(w, walletservice.ErrWalletNotFound)
		return nil, false
	}
	return wallet, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walletservice.ErrWalletNotFound),
		errors.Is(err, walletservice.ErrTransactionNotFound),
		errors.Is(err, walletservice.ErrHistoryEntryNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, walletservice.ErrInvalidAmount),
		errors.Is(err, walletservice.ErrInvalidType):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
