package authservice

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"go.uber.org/zap"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

type Repo interface {
	FindByLogin(ctx context.Context, kind domain.ActorKind, login string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	SetPartner(ctx context.Context, userID int, partner bool) (*domain.Account, error)
}

type WalletService interface {
	CreateWallet(ctx context.Context, owner domain.ActorRef) (*domain.Wallet, error)
}

type Service struct {
	accountRepo   Repo
	walletService WalletService
	hashService   auth.HashServiceInterface
	jwtService    auth.JWTServiceInterface
	txManager     pg.TXManager
	tokenTTL      time.Duration
}

func New(repo Repo, walletService WalletService, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface, txManager pg.TXManager, tokenTTL time.Duration) *Service {
	return &Service{
		accountRepo:   repo,
		walletService: walletService,
		hashService:   hashService,
		jwtService:    jwtService,
		txManager:     txManager,
		tokenTTL:      tokenTTL,
	}
}

var (
	ErrLoginTaken         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationClosed = errors.New("registration is not open for this account kind")
	ErrAccountNotFound    = errors.New("account not found")
)

// Register creates a user or captain account together with its wallet.
// New accounts are never partners; only an admin can grant that.
func (s *Service) Register(ctx context.Context, account *domain.Account, password string) (*domain.Account, error) {
	if account.Kind != domain.KindUser && account.Kind != domain.KindCaptain {
		return nil, ErrRegistrationClosed
	}
	account.Partner = false
	return s.create(ctx, account, password)
}

// SetPartner grants or revokes access of a user to the shared catalog.
func (s *Service) SetPartner(ctx context.Context, userID int, partner bool) (*domain.Account, error) {
	account, err := s.accountRepo.SetPartner(ctx, userID, partner)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	zap.L().Info("partner status changed", zap.Int("user_id", userID), zap.Bool("partner", partner))
	return account, nil
}

// EnsureAdmin creates the admin account unless one with the login exists.
func (s *Service) EnsureAdmin(ctx context.Context, login, password string) error {
	existing, err := s.accountRepo.FindByLogin(ctx, domain.KindAdmin, login)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.create(ctx, &domain.Account{Kind: domain.KindAdmin, Login: login, Name: login}, password)
	return err
}

func (s *Service) create(ctx context.Context, account *domain.Account, password string) (*domain.Account, error) {
	existing, err := s.accountRepo.FindByLogin(ctx, account.Kind, account.Login)
	if err != nil {
		zap.L().Error("can't find account", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		zap.L().Info("account already exists", zap.String("login", account.Login), zap.String("kind", string(account.Kind)))
		return nil, ErrLoginTaken
	}

	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		zap.L().Error("can't hash password", zap.Error(err))
		return nil, err
	}
	account.PasswordHash = hashedPassword

	var created *domain.Account
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		acc, err := s.accountRepo.Create(ctx, account)
		if err != nil {
			return err
		}
		created = acc
		if _, err := s.walletService.CreateWallet(ctx, acc.Ref()); err != nil {
			zap.L().Error("can't create wallet", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("account successfully registered", zap.String("login", account.Login), zap.String("kind", string(account.Kind)))
	return created, nil
}

func (s *Service) Authenticate(ctx context.Context, kind domain.ActorKind, login, password string) (*domain.Account, error) {
	account, err := s.accountRepo.FindByLogin(ctx, kind, login)
	if err != nil || account == nil {
		zap.L().Info("invalid credentials", zap.String("login", login), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if ok := s.hashService.ComparePassword(account.PasswordHash, password); !ok {
		zap.L().Info("invalid credentials", zap.String("login", login))
		return nil, ErrInvalidCredentials
	}
	zap.L().Info("account successfully authenticated", zap.String("login", login), zap.String("kind", string(kind)))
	return account, nil
}

func (s *Service) GenerateToken(actor domain.ActorRef) (string, error) {
	expirationTime := time.Now().Add(s.tokenTTL)

	token, err := s.jwtService.GenerateJWT(actor, expirationTime)
	if err != nil {
		zap.L().Error("can't generate token", zap.Error(err))
		return "", err
	}
	return token, nil
}
