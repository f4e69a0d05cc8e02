package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/authservice"
	"github.com/GlebRadaev/delivery/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=auth.go -destination=mock_service.go -package=auth

type Service interface {
	Register(ctx context.Context, account *domain.Account, password string) (*domain.Account, error)
	Authenticate(ctx context.Context, kind domain.ActorKind, login, password string) (*domain.Account, error)
	GenerateToken(actor domain.ActorRef) (string, error)
	SetPartner(ctx context.Context, userID int, partner bool) (*domain.Account, error)
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
//
//	@Summary		Register a new account
//	@Description	Create a user or captain account together with its wallet
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string					true	"Account kind"	Enums(user, captain)
//	@Param			request	body		dto.RegisterRequestDTO	true	"Register request body"
//	@Success		200		{object}	dto.RegisterResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Registration closed for this kind"
//	@Failure		404		{object}	utils.Response	"Unknown account kind"
//	@Failure		409		{object}	utils.Response	"Login already taken"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/{kind}/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseActorKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Unknown account kind")
		return
	}

	var req dto.RegisterRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.authService.Register(r.Context(), &domain.Account{
		Kind:    kind,
		Login:   req.Login,
		Name:  req.Name,
		Phone: req.Phone,
	}, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrRegistrationClosed):
			utils.RespondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, authservice.ErrLoginTaken):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	token, err := h.authService.GenerateToken(account.Ref())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.RegisterResponseDTO{
		Message: "Account successfully registered",
		ID:      account.ID,
		Kind:    string(account.Kind),
	})
}

// Login godoc
//
//	@Summary		Authenticate an account
//	@Description	Log in as a user, captain or admin and get a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string				true	"Account kind"	Enums(user, captain, admin)
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.LoginResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Failure		404		{object}	utils.Response	"Unknown account kind"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/{kind}/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseActorKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Unknown account kind")
		return
	}

	var req dto.LoginRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.authService.Authenticate(r.Context(), kind, req.Login, req.Password)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.authService.GenerateToken(account.Ref())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.LoginResponseDTO{
		Message: "Successfully authenticated",
	})
}

// SetPartner godoc
//
//	@Summary		Grant or revoke partner status
//	@Description	Partners may order from the shared inventory catalog
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"User ID"
//	@Param			request	body		dto.PartnerRequestDTO	true	"Partner flag"
//	@Success		200		{object}	dto.PartnerResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Unauthorized"
//	@Failure		403		{object}	utils.Response	"Forbidden"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/users/{id}/partner [patch]
func (h *AuthHandler) SetPartner(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.IntParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req dto.PartnerRequestDTO
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.authService.SetPartner(r.Context(), userID, *req.Partner)
	if err != nil {
		if errors.Is(err, authservice.ErrAccountNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PartnerResponseDTO{
		ID:      account.ID,
		Login:   account.Login,
		Partner: account.Partner,
	})
}
