package accountrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var ErrUnknownKind = errors.New("unknown actor kind")

// tables resolves an actor kind to the table holding its accounts.
var tables = map[domain.ActorKind]string{
	domain.KindUser:    "users",
	domain.KindCaptain: "captains",
	domain.KindAdmin:   "admins",
}

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func table(kind domain.ActorKind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return t, nil
}

func (repo *Repository) FindByLogin(ctx context.Context, kind domain.ActorKind, login string) (*domain.Account, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, login, password_hash, name, phone, partner, created_at FROM %s WHERE login = $1`, t)

	account := domain.Account{Kind: kind}
	err = repo.db.QueryRow(ctx, query, login).
		Scan(&account.ID, &account.Login, &account.PasswordHash, &account.Name, &account.Phone, &account.Partner, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find account", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	return &account, nil
}

func (repo *Repository) FindByID(ctx context.Context, ref domain.ActorRef) (*domain.Account, error) {
	t, err := table(ref.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, login, password_hash, name, phone, partner, created_at FROM %s WHERE id = $1`, t)

	account := domain.Account{Kind: ref.Kind}
	err = repo.db.QueryRow(ctx, query, ref.ID).
		Scan(&account.ID, &account.Login, &account.PasswordHash, &account.Name, &account.Phone, &account.Partner, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find account", zap.Stringer("actor", ref), zap.Error(err))
		return nil, err
	}
	return &account, nil
}

func (repo *Repository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	t, err := table(account.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (login, password_hash, name, phone, partner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t)
	err = repo.db.QueryRow(ctx, query, account.Login, account.PasswordHash, account.Name, account.Phone, account.Partner).
		Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		zap.L().Error("can't save account", zap.String("kind", string(account.Kind)), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// SetPartner updates the partner flag of a user. A missing user gives nil.
func (repo *Repository) SetPartner(ctx context.Context, userID int, partner bool) (*domain.Account, error) {
	query := `
		UPDATE users SET partner = $1
		WHERE id = $2
		RETURNING id, login, password_hash, name, phone, partner, created_at
	`
	account := domain.Account{Kind: domain.KindUser}
	err := repo.db.QueryRow(ctx, query, partner, userID).
		Scan(&account.ID, &account.Login, &account.PasswordHash, &account.Name, &account.Phone, &account.Partner, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't update partner flag", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &account, nil
}
