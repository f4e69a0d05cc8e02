package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/delivery/internal/domain"
	"github.com/GlebRadaev/delivery/internal/dto"
	"github.com/GlebRadaev/delivery/internal/service/inventoryservice"
	"github.com/GlebRadaev/delivery/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*InventoryHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	defer ctrl.Finish()
	return handler, service
}

func request(method, body string, actor domain.ActorRef, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(auth.WithActor(r.Context(), actor), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

var (
	admin = domain.ActorRef{Kind: domain.KindAdmin, ID: 1}
	user  = domain.ActorRef{Kind: domain.KindUser, ID: 7}
)

func intPtr(v int) *int { return &v }

func TestListStock(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().ListItems(gomock.Any(), domain.SourceStock, intPtr(7)).
		Return([]domain.Item{{ID: 3, Source: domain.SourceStock, OwnerID: intPtr(7), Name: "Honey", Quantity: 4, Price: decimal.RequireFromString("9.99")}}, nil)

	w := httptest.NewRecorder()
	handler.ListStock(w, request(http.MethodGet, "", user, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var items []dto.ItemResponseDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "9.99", items[0].Price.String())
}

func TestListInventory(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().ListItems(gomock.Any(), domain.SourceInventory, nil).Return(nil, errors.New("database error"))

	w := httptest.NewRecorder()
	handler.ListInventory(w, request(http.MethodGet, "", user, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateItem(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		stock        bool
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Catalog item created",
			body: `{"name":"Rice 1kg","quantity":40,"price":"12.50"}`,
			prepareMock: func() {
				service.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) (*domain.Item, error) {
						assert.Equal(t, domain.SourceInventory, item.Source)
						assert.Nil(t, item.OwnerID)
						assert.Equal(t, "12.5", item.Price.String())
						item.ID = 1
						return item, nil
					})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:  "Stock item owned by caller",
			stock: true,
			body:  `{"name":"Honey","quantity":4,"price":"9.99"}`,
			prepareMock: func() {
				service.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) (*domain.Item, error) {
						assert.Equal(t, domain.SourceStock, item.Source)
						assert.Equal(t, intPtr(7), item.OwnerID)
						return item, nil
					})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Missing name",
			body:         `{"quantity":4,"price":"9.99"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Negative price",
			body: `{"name":"Rice","quantity":4,"price":"-1"}`,
			prepareMock: func() {
				service.EXPECT().CreateItem(gomock.Any(), gomock.Any()).Return(nil, inventoryservice.ErrInvalidItem)
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			r := request(http.MethodPost, tt.body, user, nil)
			if tt.stock {
				handler.CreateStockItem(w, r)
			} else {
				handler.CreateInventoryItem(w, r)
			}
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestGetItem(t *testing.T) {
	handler, service := NewMock(t)
	stockItem := &domain.Item{ID: 3, Source: domain.SourceStock, OwnerID: intPtr(7), Price: decimal.Zero}

	tests := []struct {
		name         string
		actor        domain.ActorRef
		id           string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Owner sees stock item",
			actor: user,
			id:    "3",
			prepareMock: func() {
				service.EXPECT().GetItem(gomock.Any(), 3).Return(stockItem, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Admin sees stock item",
			actor: admin,
			id:    "3",
			prepareMock: func() {
				service.EXPECT().GetItem(gomock.Any(), 3).Return(stockItem, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Other user does not",
			actor: domain.ActorRef{Kind: domain.KindUser, ID: 8},
			id:    "3",
			prepareMock: func() {
				service.EXPECT().GetItem(gomock.Any(), 3).Return(stockItem, nil)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:  "Missing item",
			actor: user,
			id:    "9",
			prepareMock: func() {
				service.EXPECT().GetItem(gomock.Any(), 9).Return(nil, inventoryservice.ErrItemNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Bad id",
			actor:        user,
			id:           "x",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.GetItem(w, request(http.MethodGet, "", tt.actor, map[string]string{"id": tt.id}))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestRestock(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().Restock(gomock.Any(), 1, 10).Return(&domain.Item{ID: 1, Quantity: 50, Price: decimal.Zero}, nil)
	w := httptest.NewRecorder()
	handler.Restock(w, request(http.MethodPost, `{"quantity":10}`, admin, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.Restock(w, request(http.MethodPost, `{"quantity":0}`, admin, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	service.EXPECT().Restock(gomock.Any(), 2, 1).Return(nil, inventoryservice.ErrItemNotFound)
	w = httptest.NewRecorder()
	handler.Restock(w, request(http.MethodPost, `{"quantity":1}`, admin, map[string]string{"id": "2"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
