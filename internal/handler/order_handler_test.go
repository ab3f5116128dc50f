package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cardmarket/internal/middleware"
	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/internal/service/order"
	"cardmarket/internal/service/pricing"
	"cardmarket/pkg/utils"
)

// MockOrderService is a mock implementation of order.OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uint64, input order.CheckoutInput) (*order.PlacedOrder, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PlacedOrder), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, userID uint64, isAdmin bool, orderID uint64) (*model.Order, pricing.Breakdown, error) {
	args := m.Called(ctx, userID, isAdmin, orderID)
	if args.Get(0) == nil {
		return nil, pricing.Breakdown{}, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).(pricing.Breakdown), args.Error(2)
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderService) Audit(ctx context.Context, page, pageSize int, search string) ([]*repository.OrderAudit, int64, error) {
	args := m.Called(ctx, page, pageSize, search)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*repository.OrderAudit), args.Get(1).(int64), args.Error(2)
}

// MockCartService is a mock implementation of cart.CartService
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, userID uint64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, userID uint64, productID uint64, quantity int) (model.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID uint64, productID uint64) (model.Cart, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// asUser injects an authenticated identity the way the auth middleware does
func asUser(userID uint64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserRoleKey, role)
		c.Next()
	}
}

func TestOrderHandler_Checkout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("explicit items", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		mockCart := new(MockCartService)
		handler := NewOrderHandler(mockOrders, mockCart, nil)

		placed := &order.PlacedOrder{
			Order:     &model.Order{ID: 42, UserID: 1, Total: 31.63},
			Breakdown: pricing.Breakdown{Subtotal: 25.50, Tax: 2.30, DeliveryFee: 3.83, Total: 31.63},
		}
		mockOrders.On("Checkout", mock.Anything, uint64(1), order.CheckoutInput{
			Items: []order.CheckoutItem{{ProductID: 7, Quantity: 2}},
		}).Return(placed, nil)

		router := gin.New()
		router.POST("/orders", asUser(1, model.RoleUser), handler.Checkout)

		body, _ := json.Marshal(map[string]interface{}{
			"items": []map[string]interface{}{{"product_id": 7, "quantity": 2}},
		})
		req, _ := http.NewRequest("POST", "/orders", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "success", response["message"])

		mockOrders.AssertExpectations(t)
		mockCart.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		mockCart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})

	t.Run("falls back to cart and clears it", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		mockCart := new(MockCartService)
		handler := NewOrderHandler(mockOrders, mockCart, nil)

		mockCart.On("Get", mock.Anything, uint64(1)).Return(model.Cart{
			7: {ProductID: 7, Quantity: 3, Price: 10},
		}, nil)
		mockCart.On("Clear", mock.Anything, uint64(1)).Return(nil)

		placed := &order.PlacedOrder{
			Order:     &model.Order{ID: 43, UserID: 1},
			Breakdown: pricing.Breakdown{Subtotal: 30, Total: 37.20},
		}
		mockOrders.On("Checkout", mock.Anything, uint64(1), order.CheckoutInput{
			Items: []order.CheckoutItem{{ProductID: 7, Quantity: 3}},
		}).Return(placed, nil)

		router := gin.New()
		router.POST("/orders", asUser(1, model.RoleUser), handler.Checkout)

		req, _ := http.NewRequest("POST", "/orders", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockOrders.AssertExpectations(t)
		mockCart.AssertExpectations(t)
	})

	t.Run("service rejection is surfaced", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		mockCart := new(MockCartService)
		handler := NewOrderHandler(mockOrders, mockCart, nil)

		mockOrders.On("Checkout", mock.Anything, uint64(1), mock.Anything).
			Return(nil, utils.Validationf("no items to place"))

		router := gin.New()
		router.POST("/orders", asUser(1, model.RoleUser), handler.Checkout)

		body := []byte(`{"items":[{"product_id":7,"quantity":1}]}`)
		req, _ := http.NewRequest("POST", "/orders", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Contains(t, response["message"], "no items")
		mockCart.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("own order with breakdown", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		handler := NewOrderHandler(mockOrders, new(MockCartService), nil)

		mockOrders.On("Get", mock.Anything, uint64(1), false, uint64(42)).
			Return(&model.Order{ID: 42, UserID: 1, Total: 31.63},
				pricing.Breakdown{Subtotal: 25.50, Tax: 2.30, DeliveryFee: 3.83, Total: 31.63}, nil)

		router := gin.New()
		router.GET("/orders/:id", asUser(1, model.RoleUser), handler.Get)

		req, _ := http.NewRequest("GET", "/orders/42", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		data := response["data"].(map[string]interface{})
		breakdown := data["breakdown"].(map[string]interface{})
		assert.InDelta(t, 31.63, breakdown["total"], 0.001)

		mockOrders.AssertExpectations(t)
	})

	t.Run("someone else's order", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		handler := NewOrderHandler(mockOrders, new(MockCartService), nil)

		mockOrders.On("Get", mock.Anything, uint64(2), false, uint64(42)).
			Return(nil, pricing.Breakdown{}, utils.Forbiddenf("not your order"))

		router := gin.New()
		router.GET("/orders/:id", asUser(2, model.RoleUser), handler.Get)

		req, _ := http.NewRequest("GET", "/orders/42", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockOrders.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		mockOrders := new(MockOrderService)
		handler := NewOrderHandler(mockOrders, new(MockCartService), nil)

		router := gin.New()
		router.GET("/orders/:id", asUser(1, model.RoleUser), handler.Get)

		req, _ := http.NewRequest("GET", "/orders/abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockOrders.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_Audit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockOrders := new(MockOrderService)
	handler := NewOrderHandler(mockOrders, new(MockCartService), nil)

	mockOrders.On("Audit", mock.Anything, 2, 10, "ash").
		Return([]*repository.OrderAudit{}, int64(0), nil)

	router := gin.New()
	router.GET("/admin/orders", asUser(9, model.RoleAdmin), handler.Audit)

	req, _ := http.NewRequest("GET", "/admin/orders?page=2&page_size=10&search=ash", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["page"])

	mockOrders.AssertExpectations(t)
}
