package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bakery-storefront/internal/db"
	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/repository/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const orderColumns = `
o.id::text, o.order_number, o.user_id::text, COALESCE(u.name, ''), COALESCE(u.email, ''),
o.shipping_address, o.payment_method, o.status, o.items_total, o.tax_total, o.delivery_fee,
o.discount, o.total_price, o.notes, COALESCE(o.idempotency_key, ''), o.created_at, o.updated_at`

const orderFrom = `FROM orders o LEFT JOIN users u ON u.id = o.user_id`

var sortColumns = map[string]string{
	"createdAt":   "o.created_at",
	"totalPrice":  "o.total_price",
	"status":      "o.status",
	"orderNumber": "o.order_number",
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	var created *domain.Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var name, email string
		err := tx.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1 FOR UPDATE`, o.UserID).Scan(&name, &email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: unknown user %s", domain.ErrInvalidOrder, o.UserID)
			}
			return fmt.Errorf("lock user: %w", err)
		}

		for _, item := range o.Items {
			if err := reserveStock(ctx, tx, item); err != nil {
				return err
			}
		}

		address, err := json.Marshal(o.ShippingAddress)
		if err != nil {
			return fmt.Errorf("encode shipping address: %w", err)
		}
		var idemKey *string
		if o.IdempotencyKey != "" {
			idemKey = &o.IdempotencyKey
		}
		const insertOrder = `
INSERT INTO orders (order_number, user_id, shipping_address, payment_method, status,
    items_total, tax_total, delivery_fee, discount, total_price, notes, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text, created_at, updated_at
`
		err = tx.QueryRow(ctx, insertOrder,
			o.OrderNumber, o.UserID, string(address), o.PaymentMethod, o.Status,
			o.ItemsTotal, o.TaxTotal, o.DeliveryFee, o.Discount, o.TotalPrice, o.Notes, idemKey,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			switch {
			case db.IsUniqueViolation(err, "orders_order_number_key"):
				return ErrOrderNumberTaken
			case db.IsUniqueViolation(err, "orders_idempotency_key"):
				return ErrDuplicateSubmission
			}
			return fmt.Errorf("insert order: %w", err)
		}

		const insertItem = `
INSERT INTO order_items (order_id, position, product_id, name, unit_price, quantity, image_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
		for i, item := range o.Items {
			if _, err := tx.Exec(ctx, insertItem, o.ID, i, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.ImageRef); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		const updateStats = `
UPDATE users
SET total_orders = total_orders + 1,
    total_spent = total_spent + $2,
    order_ids = array_append(order_ids, $3::uuid)
WHERE id = $1
`
		if _, err := tx.Exec(ctx, updateStats, o.UserID, o.TotalPrice, o.ID); err != nil {
			return fmt.Errorf("update user stats: %w", err)
		}

		o.CustomerName, o.CustomerEmail = name, email
		if err := outbox.Append(ctx, tx, domain.EventOrderCreated, o.ID, o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidOrder) && !errors.Is(err, ErrOrderNumberTaken) && !errors.Is(err, ErrDuplicateSubmission) {
			r.logger.Error("order repo: create", zap.String("user_id", o.UserID), zap.Error(err))
		}
		return nil, err
	}
	r.logger.Info("order repo: created", zap.String("id", created.ID), zap.String("order_number", created.OrderNumber))
	return created, nil
}

func reserveStock(ctx context.Context, tx pgx.Tx, item domain.OrderItem) error {
	tag, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var stock int
	if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: unknown product %s", domain.ErrInvalidOrder, item.ProductID)
		}
		return fmt.Errorf("read stock: %w", err)
	}
	return fmt.Errorf("%w: insufficient stock for %s (requested %d, available %d)", domain.ErrInvalidOrder, item.Name, item.Quantity, stock)
}

// reserveOrderStock takes stock again for an order leaving cancelled, since
// cancelling returned it.
func reserveOrderStock(ctx context.Context, tx pgx.Tx, orderID string) error {
	const q = `
SELECT product_id::text, min(name), sum(quantity)::int
FROM order_items
WHERE order_id = $1 AND product_id IS NOT NULL
GROUP BY product_id
ORDER BY product_id
`
	rows, err := tx.Query(ctx, q, orderID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ProductID, &it.Name, &it.Quantity)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	for _, item := range items {
		if err := reserveStock(ctx, tx, item); err != nil {
			if errors.Is(err, domain.ErrInvalidOrder) {
				return fmt.Errorf("%w: cannot reopen cancelled order: %v", domain.ErrIllegalTransition, err)
			}
			return err
		}
	}
	return nil
}

func (r *postgresRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` ` + orderFrom + ` WHERE o.user_id = $1 AND o.idempotency_key = $2`
	return r.fetchOne(ctx, q, userID, key)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` ` + orderFrom + ` WHERE o.id = $1`
	return r.fetchOne(ctx, q, id)
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("order repo: get", zap.Error(err))
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) List(ctx context.Context, filter domain.OrderFilter, sort domain.OrderSort, page domain.Page) ([]domain.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(o.order_number ILIKE $%d OR u.name ILIKE $%d OR u.email ILIKE $%d)", n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) `+orderFrom+clause, args...).Scan(&total); err != nil {
		r.logger.Error("order repo: count", zap.Error(err))
		return nil, 0, err
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns["createdAt"]
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	args = append(args, page.Limit, page.Offset())
	q := fmt.Sprintf(`SELECT %s %s%s ORDER BY %s %s, o.id %s LIMIT $%d OFFSET $%d`,
		orderColumns, orderFrom, clause, column, dir, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("order repo: list", zap.Error(err))
		return nil, 0, err
	}
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []domain.OrderItem{}
	}
	const q = `
SELECT order_id::text, COALESCE(product_id::text, ''), name, unit_price, quantity, image_ref
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Error("order repo: items", zap.Error(err))
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.ImageRef); err != nil {
			return err
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, notes *string, check StatusCheck) (*domain.Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current domain.OrderStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}

		const q = `UPDATE orders SET status = $2, notes = COALESCE($3, notes), updated_at = now() WHERE id = $1`
		if _, err := tx.Exec(ctx, q, id, next, notes); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		if next == domain.StatusCancelled && current != domain.StatusCancelled {
			const restock = `
UPDATE products p
SET stock = p.stock + oi.qty
FROM (
    SELECT product_id, sum(quantity) AS qty
    FROM order_items
    WHERE order_id = $1 AND product_id IS NOT NULL
    GROUP BY product_id
) oi
WHERE p.id = oi.product_id
`
			if _, err := tx.Exec(ctx, restock, id); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}
		if current == domain.StatusCancelled && next != domain.StatusCancelled {
			if err := reserveOrderStock(ctx, tx, id); err != nil {
				return err
			}
		}

		return outbox.Append(ctx, tx, domain.EventOrderStatusChanged, id, map[string]any{
			"orderId": id,
			"from":    current,
			"to":      next,
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrIllegalTransition) {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				r.logger.Error("order repo: update status", zap.String("id", id), zap.Error(err))
			}
		}
		return nil, err
	}
	r.logger.Info("order repo: status updated", zap.String("id", id), zap.String("status", string(next)))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			userID string
			total  decimal.Decimal
			number string
		)
		err := tx.QueryRow(ctx, `SELECT user_id::text, total_price, order_number FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&userID, &total, &number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		const updateStats = `
UPDATE users
SET total_orders = GREATEST(total_orders - 1, 0),
    total_spent = GREATEST(total_spent - $2, 0),
    order_ids = array_remove(order_ids, $3::uuid)
WHERE id = $1
`
		if _, err := tx.Exec(ctx, updateStats, userID, total, id); err != nil {
			return fmt.Errorf("update user stats: %w", err)
		}
		return outbox.Append(ctx, tx, domain.EventOrderDeleted, id, map[string]any{
			"orderId":     id,
			"orderNumber": number,
			"userId":      userID,
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Error("order repo: delete", zap.String("id", id), zap.Error(err))
		}
		return err
	}
	r.logger.Info("order repo: deleted", zap.String("id", id))
	return nil
}

func (r *postgresRepo) Summary(ctx context.Context) (domain.OrderSummary, error) {
	summary := domain.OrderSummary{
		Counts:  make(map[domain.OrderStatus]int, len(domain.Statuses)),
		Revenue: decimal.Zero,
	}
	for _, s := range domain.Statuses {
		summary.Counts[s] = 0
	}
	const q = `
SELECT status, count(*), COALESCE(sum(total_price) FILTER (WHERE status = 'delivered'), 0)
FROM orders
GROUP BY status
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("order repo: summary", zap.Error(err))
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status  domain.OrderStatus
			count   int
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return summary, err
		}
		summary.Counts[status] += count
		summary.TotalOrders += count
		summary.Revenue = summary.Revenue.Add(revenue)
	}
	return summary, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o       domain.Order
		address []byte
	)
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerEmail,
		&address,
		&o.PaymentMethod,
		&o.Status,
		&o.ItemsTotal,
		&o.TaxTotal,
		&o.DeliveryFee,
		&o.Discount,
		&o.TotalPrice,
		&o.Notes,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &o, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
