package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bakery-storefront/internal/domain"
	addresssvc "bakery-storefront/internal/service/address"
	authsvc "bakery-storefront/internal/service/auth"
	cartsvc "bakery-storefront/internal/service/cart"
	ordersvc "bakery-storefront/internal/service/order"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
	customerID    = "7f4e3c1a-1111-4a4a-9c9c-000000000001"
)

type stubAuthService struct {
	session   *authsvc.Session
	loginErr  error
	authErr   error
	loggedOut []string
}

func (s *stubAuthService) Register(_ context.Context, in authsvc.RegisterInput) (*authsvc.Session, error) {
	if in.Email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	return &authsvc.Session{User: &domain.User{ID: customerID, Email: in.Email, Role: domain.RoleCustomer}, Token: customerToken}, nil
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*authsvc.Session, error) {
	return s.session, s.loginErr
}

func (s *stubAuthService) Authenticate(_ context.Context, raw string) (authsvc.Claims, error) {
	if s.authErr != nil {
		return authsvc.Claims{}, s.authErr
	}
	switch raw {
	case customerToken:
		return authsvc.Claims{UserID: customerID, Role: domain.RoleCustomer, JTI: "jti-customer"}, nil
	case adminToken:
		return authsvc.Claims{UserID: "admin-id", Role: domain.RoleAdmin, JTI: "jti-admin"}, nil
	}
	return authsvc.Claims{}, domain.ErrAuthInvalid
}

func (s *stubAuthService) Logout(_ context.Context, c authsvc.Claims) error {
	s.loggedOut = append(s.loggedOut, c.JTI)
	return nil
}

func (s *stubAuthService) Me(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Email: "me@example.com", Role: domain.RoleCustomer}, nil
}

type stubProductService struct {
	products []domain.Product
}

func (s *stubProductService) List(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCartService struct {
	items   []domain.CartItem
	cleared int
	ended   []string
}

func (s *stubCartService) view() cartsvc.View {
	total := decimal.Zero
	count := 0
	for _, it := range s.items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	return cartsvc.View{Items: append([]domain.CartItem{}, s.items...), Total: total, ItemCount: count}
}

func (s *stubCartService) Get(_ context.Context, _ string) (cartsvc.View, error) {
	return s.view(), nil
}

func (s *stubCartService) AddProduct(_ context.Context, _ string, productID string, qty int) (cartsvc.View, error) {
	s.items = append(s.items, domain.CartItem{ProductID: productID, Name: "Item", UnitPrice: decimal.NewFromInt(100), Quantity: qty})
	return s.view(), nil
}

func (s *stubCartService) SetQuantity(_ context.Context, _ string, _ string, _ int) (cartsvc.View, error) {
	return s.view(), nil
}

func (s *stubCartService) Remove(_ context.Context, _ string, _ string) (cartsvc.View, error) {
	return s.view(), nil
}

func (s *stubCartService) Clear(_ context.Context, _ string) error {
	s.items = nil
	s.cleared++
	return nil
}

func (s *stubCartService) EndSession(_ context.Context, userID string) error {
	s.items = nil
	s.ended = append(s.ended, userID)
	return nil
}

type stubAddressService struct {
	list     []domain.Address
	addErr   error
	resolved *domain.Address
}

func (s *stubAddressService) List(_ context.Context, _ string) ([]domain.Address, error) {
	return s.list, nil
}

func (s *stubAddressService) Add(_ context.Context, _ string, _ addresssvc.Fields) ([]domain.Address, error) {
	return s.list, s.addErr
}

func (s *stubAddressService) Update(_ context.Context, _, _ string, _ addresssvc.Patch) ([]domain.Address, error) {
	return s.list, nil
}

func (s *stubAddressService) Remove(_ context.Context, _, _ string) ([]domain.Address, error) {
	return nil, domain.ErrNotFound
}

func (s *stubAddressService) SetDefault(_ context.Context, _, _ string) ([]domain.Address, error) {
	return s.list, nil
}

func (s *stubAddressService) Resolve(_ context.Context, _, _ string) (*domain.Address, error) {
	return s.resolved, nil
}

type createCall struct {
	actor string
	in    domain.OrderSubmission
	key   string
}

type stubOrderService struct {
	created   []createCall
	byKey     map[string]*domain.Order
	replayed  bool
	createErr error
	findErr   error
	listed    []ordersvc.ListParams
	statusErr error
	deleteErr error
	getErr    error
}

func (s *stubOrderService) CreateOrder(_ context.Context, actor string, in domain.OrderSubmission, key string) (*domain.Order, bool, error) {
	s.created = append(s.created, createCall{actor: actor, in: in, key: key})
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	order := &domain.Order{
		ID:              "order-1",
		OrderNumber:     "ORD-20261019120000-ABCDEF",
		UserID:          actor,
		Items:           in.OrderItems,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          domain.StatusPending,
		TotalPrice:      in.TotalPrice.Decimal,
		CreatedAt:       time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	if key != "" {
		if s.byKey == nil {
			s.byKey = map[string]*domain.Order{}
		}
		s.byKey[actor+"/"+key] = order
	}
	return order, s.replayed, nil
}

func (s *stubOrderService) FindByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if o, ok := s.byKey[userID+"/"+key]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrderService) ListOrders(_ context.Context, p ordersvc.ListParams) (domain.OrderList, error) {
	s.listed = append(s.listed, p)
	return domain.OrderList{Orders: []domain.Order{}, Page: 1, Limit: 20}, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Order{ID: id, Status: domain.StatusPending}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, id, raw string, _ *string) (*domain.Order, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &domain.Order{ID: id, Status: domain.OrderStatus(raw)}, nil
}

func (s *stubOrderService) DeleteOrder(_ context.Context, _ string) error {
	return s.deleteErr
}

func (s *stubOrderService) Summary(_ context.Context) (domain.OrderSummary, error) {
	return domain.OrderSummary{Counts: map[domain.OrderStatus]int{domain.StatusPending: 2}, TotalOrders: 2}, nil
}

type stubPricing struct {
	pricing domain.Pricing
}

func (s stubPricing) Pricing() domain.Pricing {
	return s.pricing
}

type fixture struct {
	auth      *stubAuthService
	products  *stubProductService
	cart      *stubCartService
	addresses *stubAddressService
	orders    *stubOrderService
	router    *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		auth:      &stubAuthService{},
		products:  &stubProductService{},
		cart:      &stubCartService{},
		addresses: &stubAddressService{},
		orders:    &stubOrderService{},
	}
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		AuthSvc:    f.auth,
		ProductSvc: f.products,
		CartSvc:    f.cart,
		AddressSvc: f.addresses,
		OrderSvc:   f.orders,
		Pricing: stubPricing{pricing: domain.Pricing{
			DeliveryFee:   decimal.NewFromInt(50),
			FlatDiscount:  decimal.NewFromInt(100),
			PaymentMethod: "cod",
		}},
	})
	require.NoError(t, err)
	f.router = router
	return f
}

func (f *fixture) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}
