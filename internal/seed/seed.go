package seed

import (
	"context"
	"errors"
	"fmt"

	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	authsvc "bakery-storefront/internal/service/auth"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type AdminCreator interface {
	CreateAdmin(ctx context.Context, in authsvc.RegisterInput) (*domain.User, error)
}

type productSeed struct {
	Key         string
	Name        string
	Description string
	Category    string
	Price       string
	Stock       int
}

var catalog = []productSeed{
	{Key: "sourdough-loaf", Name: "Sourdough Loaf", Description: "Naturally leavened, 24 hour ferment", Category: "bread", Price: "450", Stock: 20},
	{Key: "multigrain-bread", Name: "Multigrain Bread", Description: "Seven grain sandwich loaf", Category: "bread", Price: "180", Stock: 30},
	{Key: "butter-croissant", Name: "Butter Croissant", Description: "Laminated with cultured butter", Category: "pastry", Price: "120", Stock: 40},
	{Key: "chocolate-eclair", Name: "Chocolate Eclair", Description: "Choux with dark chocolate glaze", Category: "pastry", Price: "95", Stock: 25},
	{Key: "red-velvet-slice", Name: "Red Velvet Slice", Description: "Cream cheese frosting", Category: "cake", Price: "160", Stock: 15},
	{Key: "black-forest-cake", Name: "Black Forest Cake", Description: "1 kg, cherries and kirsch cream", Category: "cake", Price: "950", Stock: 5},
	{Key: "oatmeal-cookies", Name: "Oatmeal Cookies", Description: "Box of six", Category: "cookies", Price: "220", Stock: 35},
}

// Admin is the back-office account created by Apply when Email is set.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// Apply inserts the demo catalog and, optionally, an admin account. It is
// idempotent: products upsert by key and an existing admin email is kept.
func Apply(ctx context.Context, products ProductWriter, admins AdminCreator, admin Admin, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	for _, p := range catalog {
		if _, err := products.Upsert(ctx, domain.Product{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       decimal.RequireFromString(p.Price),
			Stock:       p.Stock,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	logger.Info("seed: catalog applied", zap.Int("products", len(catalog)))

	if admin.Email == "" || admins == nil {
		return nil
	}
	_, err := admins.CreateAdmin(ctx, authsvc.RegisterInput{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: admin.Password,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Info("seed: admin already exists", zap.String("email", admin.Email))
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	default:
		logger.Info("seed: admin created", zap.String("email", admin.Email))
	}
	return nil
}
