package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	jwtService := NewJWTService("test-secret")
	valid, _ := jwtService.GenerateJWT(domain.ActorRef{Kind: domain.KindUser, ID: 9}, time.Now().Add(time.Hour))

	var got domain.ActorRef
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(jwtService)(next)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"No header", "", http.StatusUnauthorized},
		{"Not bearer", "Basic abc", http.StatusUnauthorized},
		{"Bad token", "Bearer abc", http.StatusUnauthorized},
		{"Valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.code, w.Code)
		})
	}
	assert.Equal(t, domain.ActorRef{Kind: domain.KindUser, ID: 9}, got)
}

func TestRequireKind(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireKind(domain.KindAdmin, domain.KindCaptain)(next)

	tests := []struct {
		name  string
		actor *domain.ActorRef
		code  int
	}{
		{"No actor", nil, http.StatusUnauthorized},
		{"User is forbidden", &domain.ActorRef{Kind: domain.KindUser, ID: 1}, http.StatusForbidden},
		{"Captain allowed", &domain.ActorRef{Kind: domain.KindCaptain, ID: 1}, http.StatusOK},
		{"Admin allowed", &domain.ActorRef{Kind: domain.KindAdmin, ID: 1}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.actor != nil {
				r = r.WithContext(WithActor(r.Context(), *tt.actor))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
