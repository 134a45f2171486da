package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/metrics"
	orderrepo "bakery-storefront/internal/repository/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxNumberAttempts = 5
	defaultPageLimit  = 20
	maxPageLimit      = 100
	defaultSort       = "-createdAt"
)

var sortFields = map[string]bool{
	"createdAt":   true,
	"totalPrice":  true,
	"status":      true,
	"orderNumber": true,
}

// PricingSource yields the current storefront pricing.
type PricingSource interface {
	Pricing() domain.Pricing
}

// Service validates order submissions and drives the status workflow.
type Service struct {
	repo          orderrepo.Repository
	mode          domain.StatusMode
	pricing       PricingSource
	paymentMethod string
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
	random        io.Reader
}

type Option func(*Service)

func WithStatusMode(mode domain.StatusMode) Option {
	return func(s *Service) { s.mode = mode }
}

// WithPricing makes the pricing source's payment method the only one accepted.
func WithPricing(src PricingSource) Option {
	return func(s *Service) { s.pricing = src }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

func withClock(now func() time.Time, random io.Reader) Option {
	return func(s *Service) {
		s.now = now
		s.random = random
	}
}

func New(repo orderrepo.Repository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		mode:          domain.StatusModeStrict,
		paymentMethod: "cod",
		logger:        zap.NewNop(),
		now:           time.Now,
		random:        defaultRandom(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder persists a submission for actorUserID. When idempotencyKey
// matches an earlier order of the same user, that order is returned with
// replayed set and nothing new is written.
func (s *Service) CreateOrder(ctx context.Context, actorUserID string, in domain.OrderSubmission, idempotencyKey string) (order *domain.Order, replayed bool, err error) {
	if strings.TrimSpace(actorUserID) == "" {
		return nil, false, fmt.Errorf("%w: missing user", domain.ErrInvalidOrder)
	}
	if _, err := uuid.Parse(actorUserID); err != nil {
		return nil, false, fmt.Errorf("%w: unknown user %s", domain.ErrInvalidOrder, actorUserID)
	}
	if len(in.OrderItems) == 0 {
		return nil, false, fmt.Errorf("%w: order has no items", domain.ErrInvalidOrder)
	}
	items := make([]domain.OrderItem, 0, len(in.OrderItems))
	for i, item := range in.OrderItems {
		item.ProductID = strings.TrimSpace(item.ProductID)
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, false, fmt.Errorf("%w: item %d (%s) has no valid product reference", domain.ErrInvalidOrder, i, item.Name)
		}
		if item.Quantity < 1 {
			return nil, false, fmt.Errorf("%w: item %d (%s) quantity must be at least 1", domain.ErrInvalidOrder, i, item.Name)
		}
		if item.UnitPrice.IsNegative() {
			return nil, false, fmt.Errorf("%w: item %d (%s) has a negative price", domain.ErrInvalidOrder, i, item.Name)
		}
		items = append(items, item)
	}

	method, err := s.checkPaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, actorUserID, idempotencyKey)
		if err == nil {
			s.logger.Info("order: idempotent replay", zap.String("order_id", existing.ID), zap.String("user_id", actorUserID))
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	draft := domain.Order{
		UserID:          actorUserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		Status:          domain.StatusPending,
		Notes:           strings.TrimSpace(in.Notes),
		IdempotencyKey:  idempotencyKey,
	}
	s.applyAmounts(&draft, in)

	supplied := strings.TrimSpace(in.OrderNumber)
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		draft.OrderNumber = supplied
		if draft.OrderNumber == "" {
			number, err := newOrderNumber(s.now(), s.random)
			if err != nil {
				return nil, false, fmt.Errorf("generate order number: %w", err)
			}
			draft.OrderNumber = number
		}

		created, err := s.repo.Create(ctx, draft)
		switch {
		case err == nil:
			total, _ := created.TotalPrice.Float64()
			s.metrics.OrderCreated(total)
			s.logger.Info("order: created",
				zap.String("order_id", created.ID),
				zap.String("order_number", created.OrderNumber),
				zap.String("user_id", actorUserID),
				zap.String("total", created.TotalPrice.String()),
			)
			return created, false, nil
		case errors.Is(err, orderrepo.ErrOrderNumberTaken):
			if supplied != "" {
				return nil, false, fmt.Errorf("order number %s: %w", supplied, domain.ErrAlreadyExists)
			}
			s.metrics.OrderNumberRetry()
			s.logger.Warn("order: number collision, retrying", zap.String("order_number", draft.OrderNumber), zap.Int("attempt", attempt))
		case errors.Is(err, orderrepo.ErrDuplicateSubmission):
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, actorUserID, idempotencyKey)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, true, nil
		default:
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("order number collision after %d attempts", maxNumberAttempts)
}

// checkPaymentMethod resolves the method to record. Only the configured
// method is accepted; an empty value means that method.
func (s *Service) checkPaymentMethod(raw string) (string, error) {
	supported := s.paymentMethod
	if s.pricing != nil {
		if pm := s.pricing.Pricing().PaymentMethod; pm != "" {
			supported = pm
		}
	}
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.EqualFold(raw, supported) {
		return "", domain.NewValidationError("paymentMethod", fmt.Sprintf("only %s is supported", supported))
	}
	return supported, nil
}

// FindByIdempotencyKey returns the order userID already placed under key.
func (s *Service) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	key = strings.TrimSpace(key)
	if key == "" || !validID(userID) {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByIdempotencyKey(ctx, userID, key)
}

// applyAmounts derives the discount from the submitted totals so that
// total = items + tax + shipping - discount holds. Unparseable amounts were
// already coerced to zero; a negative discount is dropped and the total recomputed.
func (s *Service) applyAmounts(o *domain.Order, in domain.OrderSubmission) {
	for name, amount := range map[string]domain.LenientAmount{
		"itemsPrice":    in.ItemsPrice,
		"taxPrice":      in.TaxPrice,
		"shippingPrice": in.ShippingPrice,
		"totalPrice":    in.TotalPrice,
	} {
		if amount.Coerced {
			s.logger.Warn("order: amount coerced to zero", zap.String("field", name))
		}
	}

	o.ItemsTotal = domain.NonNegative(in.ItemsPrice.Decimal)
	o.TaxTotal = domain.NonNegative(in.TaxPrice.Decimal)
	o.DeliveryFee = domain.NonNegative(in.ShippingPrice.Decimal)
	gross := o.ItemsTotal.Add(o.TaxTotal).Add(o.DeliveryFee)

	total := domain.NonNegative(in.TotalPrice.Decimal)
	discount := gross.Sub(total)
	if discount.IsNegative() {
		discount = decimal.Zero
		total = gross
	}
	o.Discount = discount
	o.TotalPrice = total
}

// ListParams are the raw list query values.
type ListParams struct {
	Status string
	Search string
	UserID string
	Page   int
	Limit  int
	Sort   string
}

func (s *Service) ListOrders(ctx context.Context, p ListParams) (domain.OrderList, error) {
	filter := domain.OrderFilter{Search: strings.TrimSpace(p.Search), UserID: strings.TrimSpace(p.UserID)}
	if filter.UserID != "" && !validID(filter.UserID) {
		return domain.OrderList{}, domain.NewValidationError("userId", "must be a valid id")
	}
	if raw := strings.TrimSpace(p.Status); raw != "" && raw != "all" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return domain.OrderList{}, err
		}
		filter.Status = status
	}
	sort, err := parseSort(p.Sort)
	if err != nil {
		return domain.OrderList{}, err
	}
	page := domain.Page{Page: p.Page, Limit: p.Limit}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = defaultPageLimit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}

	orders, total, err := s.repo.List(ctx, filter, sort, page)
	if err != nil {
		return domain.OrderList{}, err
	}
	return domain.OrderList{
		Orders: orders,
		Total:  total,
		Page:   page.Page,
		Pages:  (total + page.Limit - 1) / page.Limit,
		Limit:  page.Limit,
	}, nil
}

func parseSort(raw string) (domain.OrderSort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultSort
	}
	sort := domain.OrderSort{Field: strings.TrimPrefix(raw, "-"), Desc: strings.HasPrefix(raw, "-")}
	if !sortFields[sort.Field] {
		return domain.OrderSort{}, domain.NewValidationError("sort", fmt.Sprintf("unsupported sort field %q", sort.Field))
	}
	return sort, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves an order to rawStatus. Notes replace the stored notes
// when non-nil.
func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string, notes *string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	next, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		notes = &trimmed
	}
	updated, err := s.repo.UpdateStatus(ctx, id, next, notes, func(current domain.OrderStatus) error {
		return s.mode.CheckTransition(current, next)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderStatusChanged(string(next))
	s.logger.Info("order: status updated", zap.String("order_id", id), zap.String("status", string(next)))
	return updated, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.OrderDeleted()
	s.logger.Info("order: deleted", zap.String("order_id", id))
	return nil
}

func (s *Service) Summary(ctx context.Context) (domain.OrderSummary, error) {
	return s.repo.Summary(ctx)
}

func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}
