package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
)

type Repository struct {
	db *sql.DB
}

var _ ports.OrderRepository = (*Repository)(nil)

// New migrates db and returns a repository over it. The caller owns db.
func New(ctx context.Context, db *sql.DB) (*Repository, error) {
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// itemRow is the JSON shape of one element of items_json.
type itemRow struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image_url"`
}

const selectColumns = `order_id, user_id, restaurant_id, restaurant_name, items_json, total, status, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	items, err := encodeItems(o.Items)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO orders
			(order_id, user_id, restaurant_id, restaurant_name, items_json, items_with_images_json, total, status, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		o.ID,
		o.UserID,
		o.RestaurantID,
		o.RestaurantName,
		items,
		items,
		o.Total,
		string(o.Status),
		formatTime(o.CreatedAt),
		nullableTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert order %q: %w", o.ID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM orders WHERE order_id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM orders WHERE restaurant_id = ? ORDER BY created_at DESC`, restaurantID)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), formatTime(at), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: update status of %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repository) RestoreStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), nullableTime(updatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: restore status of %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate orders: %w", err)
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON sql.NullString
		status    string
		createdAt string
		updatedAt sql.NullString
	)
	if err := s.Scan(
		&o.ID,
		&o.UserID,
		&o.RestaurantID,
		&o.RestaurantName,
		&itemsJSON,
		&o.Total,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)

	var err error
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid && updatedAt.String != "" {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, err
		}
		o.UpdatedAt = &t
	}
	if o.Items, err = decodeItems(itemsJSON.String); err != nil {
		return nil, err
	}
	return &o, nil
}

func encodeItems(items []domain.OrderItem) (string, error) {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow(it)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode items: %w", err)
	}
	return string(b), nil
}

func decodeItems(s string) ([]domain.OrderItem, error) {
	if s == "" {
		return []domain.OrderItem{}, nil
	}
	var rows []itemRow
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, fmt.Errorf("sqlite: decode items: %w", err)
	}
	items := make([]domain.OrderItem, len(rows))
	for i, r := range rows {
		items[i] = domain.OrderItem(r)
	}
	return items, nil
}
