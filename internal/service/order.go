package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"laundry/internal/database"
	"laundry/internal/metrics"
	"laundry/internal/model"
)

type AdminChecker interface {
	CheckSession(ctx context.Context, token string) bool
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type CreateOrderInput struct {
	ClientID   string       `validate:"required"`
	Items      []model.Item `validate:"required,min=1"`
	TotalItems int          `validate:"gte=0"`
}

type OrderService struct {
	db     *sql.DB
	admin  AdminChecker
	events EventPublisher
}

// NewOrderService wires the order store. events may be nil, in which case
// no order events are published.
func NewOrderService(db *sql.DB, admin AdminChecker, events EventPublisher) *OrderService {
	return &OrderService{db: db, admin: admin, events: events}
}

func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) error {
	if in.ClientID == "" || len(in.Items) == 0 {
		return validationError("client ID and items are required")
	}
	if err := validate.Struct(in); err != nil {
		return validationError("total items must not be negative")
	}

	items, err := model.EncodeItems(in.Items)
	if err != nil {
		return validationError("items must be JSON objects")
	}

	var id int64
	err = database.WithTx(ctx, s.db, true, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`INSERT INTO orders (client_id, items, total_items, status) VALUES ($1, $2, $3, $4) RETURNING id`,
			in.ClientID, string(items), in.TotalItems, model.StatusReceived,
		).Scan(&id)
	})
	if err != nil {
		if hasPgCode(err, pgForeignKeyViolation) {
			return validationError("unknown client")
		}
		return storageError("insert order", err)
	}

	metrics.OrdersCreated.Inc()
	slog.InfoContext(ctx, "order created", "order_id", id, "client_id", in.ClientID)

	s.publish(ctx, model.OrderEvent{
		Type:      model.EventOrderCreated,
		OrderID:   id,
		ClientID:  in.ClientID,
		Status:    model.StatusReceived,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

func (s *OrderService) ListAll(ctx context.Context, sessionToken string) ([]model.Order, error) {
	if !s.admin.CheckSession(ctx, sessionToken) {
		return nil, unauthorizedError("unauthorized access")
	}

	return s.list(ctx, `
		SELECT id, client_id, items, total_items, status, created_at
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
}

func (s *OrderService) ListByClient(ctx context.Context, clientID string) ([]model.Order, error) {
	return s.list(ctx, `
		SELECT id, client_id, items, total_items, status, created_at
		FROM orders
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
	`, clientID)
}

// CanManage reports whether sessionToken may change orders.
func (s *OrderService) CanManage(ctx context.Context, sessionToken string) bool {
	return s.admin.CheckSession(ctx, sessionToken)
}

// UpdateStatus sets the status of an order. Updating an id that does not
// exist is not an error.
func (s *OrderService) UpdateStatus(ctx context.Context, sessionToken string, orderID int64, status string) error {
	if !s.CanManage(ctx, sessionToken) {
		return unauthorizedError("unauthorized access")
	}
	if strings.TrimSpace(status) == "" {
		return validationError("new status is required")
	}

	var affected int64
	err := database.WithTx(ctx, s.db, true, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return storageError("update order status", err)
	}

	if affected == 0 {
		slog.WarnContext(ctx, "status update matched no order", "order_id", orderID)
		return nil
	}

	metrics.OrderStatusUpdates.Inc()
	slog.InfoContext(ctx, "order status updated", "order_id", orderID, "status", status)

	s.publish(ctx, model.OrderEvent{
		Type:      model.EventOrderStatusUpdated,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

func (s *OrderService) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	orders := []model.Order{}

	err := database.WithTx(ctx, s.db, false, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				row       model.OrderRow
				items     []byte
				createdAt time.Time
			)
			if err := rows.Scan(&row.ID, &row.ClientID, &items, &row.TotalItems, &row.Status, &createdAt); err != nil {
				return err
			}
			row.Items = items
			row.CreatedAt = createdAt
			orders = append(orders, model.DecodeOrder(row))
		}

		return rows.Err()
	})
	if err != nil {
		return nil, storageError("list orders", err)
	}

	return orders, nil
}

func (s *OrderService) publish(ctx context.Context, event model.OrderEvent) {
	if s.events == nil {
		return
	}
	key := strconv.FormatInt(event.OrderID, 10)
	if err := s.events.Publish(ctx, key, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event", "error", err, "type", event.Type, "order_id", event.OrderID)
	}
}
