package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/service/authservice"
	"github.com/GlebRadaev/delivery/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*AuthHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	defer ctrl.Finish()
	return handler, service
}

func withKind(r *http.Request, kind string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", kind)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestRegisterHandler(t *testing.T) {
	handler, service := NewMock(t)
	captain := &domain.Account{ID: 1, Kind: domain.KindCaptain, Login: "newcaptain"}

	tests := []struct {
		name          string
		kind          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful registration",
			kind: "captain",
			body: `{"login":"newcaptain","password":"password123","name":"Omar","phone":"+201001234567"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").
					DoAndReturn(func(_ context.Context, acc *domain.Account, _ string) (*domain.Account, error) {
						assert.Equal(t, domain.KindCaptain, acc.Kind)
						assert.Equal(t, "Omar", acc.Name)
						return captain, nil
					})
				service.EXPECT().GenerateToken(captain.Ref()).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Partner flag in the body is ignored",
			kind: "user",
			body: `{"login":"newuser","password":"password123","partner":true}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").
					DoAndReturn(func(_ context.Context, acc *domain.Account, _ string) (*domain.Account, error) {
						assert.False(t, acc.Partner)
						acc.ID = 2
						return acc, nil
					})
				service.EXPECT().GenerateToken(domain.ActorRef{Kind: domain.KindUser, ID: 2}).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Unknown kind",
			kind:          "driver",
			body:          `{"login":"newcaptain","password":"password123"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusNotFound,
			expectedError: "Unknown account kind",
		},
		{
			name: "Admin registration closed",
			kind: "admin",
			body: `{"login":"root","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").Return(nil, authservice.ErrRegistrationClosed)
			},
			expectedCode:  http.StatusForbidden,
			expectedError: authservice.ErrRegistrationClosed.Error(),
		},
		{
			name: "Login already taken",
			kind: "user",
			body: `{"login":"existinguser","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").Return(nil, authservice.ErrLoginTaken)
			},
			expectedCode:  http.StatusConflict,
			expectedError: "username already taken",
		},
		{
			name:          "Invalid request body",
			kind:          "user",
			body:          `{invalid json`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name:          "Password too short",
			kind:          "user",
			body:          `{"login":"newuser","password":"short"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Validation failed",
		},
		{
			name: "Internal error",
			kind: "user",
			body: `{"login":"newuser","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").Return(nil, errors.New("database error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
		{
			name: "Error generating token",
			kind: "captain",
			body: `{"login":"newcaptain","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Register(gomock.Any(), gomock.Any(), "password123").Return(captain, nil)
				service.EXPECT().GenerateToken(captain.Ref()).Return("", errors.New("token generation error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error generating token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("POST", "/api/"+tt.kind+"/register", bytes.NewReader([]byte(tt.body)))
			req = withKind(req, tt.kind)
			rr := httptest.NewRecorder()

			handler.Register(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedCode == http.StatusOK {
				assert.Equal(t, "Bearer some-jwt-token", rr.Header().Get("Authorization"))
			}
			if tt.expectedError != "" {
				var resp utils.Response
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedError, resp.Message)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	handler, service := NewMock(t)
	admin := &domain.Account{ID: 1, Kind: domain.KindAdmin, Login: "root"}

	tests := []struct {
		name          string
		kind          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful admin login",
			kind: "admin",
			body: `{"login":"root","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Authenticate(gomock.Any(), domain.KindAdmin, "root", "password123").Return(admin, nil)
				service.EXPECT().GenerateToken(admin.Ref()).Return("some-jwt-token", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Invalid credentials",
			kind: "user",
			body: `{"login":"testuser","password":"wrongpassword"}`,
			prepareMock: func() {
				service.EXPECT().Authenticate(gomock.Any(), domain.KindUser, "testuser", "wrongpassword").
					Return(nil, authservice.ErrInvalidCredentials)
			},
			expectedCode:  http.StatusUnauthorized,
			expectedError: "Invalid credentials",
		},
		{
			name:          "Invalid request body",
			kind:          "user",
			body:          `{invalid json`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Error generating token",
			kind: "admin",
			body: `{"login":"root","password":"password123"}`,
			prepareMock: func() {
				service.EXPECT().Authenticate(gomock.Any(), domain.KindAdmin, "root", "password123").Return(admin, nil)
				service.EXPECT().GenerateToken(admin.Ref()).Return("", errors.New("token generation error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Error generating token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("POST", "/api/"+tt.kind+"/login", bytes.NewReader([]byte(tt.body)))
			req = withKind(req, tt.kind)
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedError != "" {
				var resp utils.Response
				err := json.NewDecoder(rr.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedError, resp.Message)
			}
		})
	}
}

func TestSetPartnerHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name          string
		id            string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Partner granted",
			id:   "3",
			body: `{"partner":true}`,
			prepareMock: func() {
				service.EXPECT().SetPartner(gomock.Any(), 3, true).
					Return(&domain.Account{ID: 3, Kind: domain.KindUser, Login: "alice", Partner: true}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Partner revoked",
			id:   "3",
			body: `{"partner":false}`,
			prepareMock: func() {
				service.EXPECT().SetPartner(gomock.Any(), 3, false).
					Return(&domain.Account{ID: 3, Kind: domain.KindUser, Login: "alice"}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Flag missing",
			id:            "3",
			body:          `{}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Validation failed",
		},
		{
			name:          "Invalid id",
			id:            "abc",
			body:          `{"partner":true}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid user ID",
		},
		{
			name: "Unknown user",
			id:   "9",
			body: `{"partner":true}`,
			prepareMock: func() {
				service.EXPECT().SetPartner(gomock.Any(), 9, true).Return(nil, authservice.ErrAccountNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "User not found",
		},
		{
			name: "Internal error",
			id:   "3",
			body: `{"partner":true}`,
			prepareMock: func() {
				service.EXPECT().SetPartner(gomock.Any(), 3, true).Return(nil, errors.New("database error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			req := httptest.NewRequest("PATCH", "/api/users/"+tt.id+"/partner", bytes.NewReader([]byte(tt.body)))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rr := httptest.NewRecorder()

			handler.SetPartner(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			var resp map[string]any
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, resp["message"])
				return
			}
			assert.Equal(t, float64(3), resp["id"])
		})
	}
}
