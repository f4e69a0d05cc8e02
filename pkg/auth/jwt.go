package auth

import (
	"errors"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/golang-jwt/jwt"
)

const issuer = "delivery"

//go:generate mockgen -source=jwt.go -destination=mock_jwt.go -package=auth

type JWTServiceInterface interface {
	GenerateJWT(actor domain.ActorRef, expirationTime time.Time) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type Claims struct {
	ActorID   int              `json:"actor_id"`
	ActorKind domain.ActorKind `json:"actor_kind"`
	jwt.StandardClaims
}

func (c *Claims) Actor() domain.ActorRef {
	return domain.ActorRef{Kind: c.ActorKind, ID: c.ActorID}
}

type JWTService struct {
	secretKey []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secretKey: []byte(secret)}
}

func (s *JWTService) GenerateJWT(actor domain.ActorRef, expirationTime time.Time) (string, error) {
	claims := Claims{
		ActorID:   actor.ID,
		ActorKind: actor.Kind,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			Issuer:    issuer,
			Subject:   actor.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ActorID == 0 || claims.Issuer != issuer {
		return nil, errors.New("invalid token claims")
	}
	if _, err := domain.ParseActorKind(string(claims.ActorKind)); err != nil {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
