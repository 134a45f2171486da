package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	cartrepo "bakery-storefront/internal/repository/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service exposes a user's cart to the HTTP layer, resolving product data
// from the catalog. Concurrent requests for the same user are last-write-wins.
type Service struct {
	storage  cartrepo.Repository
	products productRepo
	logger   *zap.Logger
}

// View is the cart as returned to clients.
type View struct {
	Items     []domain.CartItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func New(storage cartrepo.Repository, products productRepo, logger *zap.Logger) *Service {
	return &Service{storage: storage, products: products, logger: logging.OrNop(logger)}
}

// Open returns the store for userID.
func (s *Service) Open(ctx context.Context, userID string) (*Store, error) {
	return Open(ctx, s.storage, userID)
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	store, err := s.Open(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return viewOf(store), nil
}

func (s *Service) AddProduct(ctx context.Context, userID, productID string, qty int) (View, error) {
	if userID == "" {
		return View{}, domain.ErrAuthRequired
	}
	productID = strings.TrimSpace(productID)
	if _, err := uuid.Parse(productID); err != nil {
		return View{}, domain.NewValidationError("productId", "must reference a product")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return View{}, domain.NewValidationError("productId", "product not found")
		}
		return View{}, fmt.Errorf("resolve product: %w", err)
	}
	store, err := s.Open(ctx, userID)
	if err != nil {
		return View{}, err
	}
	item := domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		ImageRef:  product.ImageRef,
	}
	if err := store.Add(ctx, item, qty); err != nil {
		return View{}, err
	}
	s.logger.Debug("cart: add", zap.String("user_id", userID), zap.String("product_id", productID), zap.Int("qty", qty))
	return viewOf(store), nil
}

func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty int) (View, error) {
	store, err := s.owned(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if err := store.SetQuantity(ctx, productID, qty); err != nil {
		return View{}, err
	}
	return viewOf(store), nil
}

func (s *Service) Remove(ctx context.Context, userID, productID string) (View, error) {
	store, err := s.owned(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if err := store.Remove(ctx, productID); err != nil {
		return View{}, err
	}
	return viewOf(store), nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	store, err := s.owned(ctx, userID)
	if err != nil {
		return err
	}
	return store.Clear(ctx)
}

// EndSession empties the user's cart on logout.
func (s *Service) EndSession(ctx context.Context, userID string) error {
	store, err := s.owned(ctx, userID)
	if err != nil {
		return err
	}
	return store.EndSession(ctx)
}

func (s *Service) owned(ctx context.Context, userID string) (*Store, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.Open(ctx, userID)
}

func viewOf(store *Store) View {
	return View{Items: store.Items(), Total: store.Total(), ItemCount: store.ItemCount()}
}
