package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// PostgresPartition holds the repositories of one tenant schema. Its pool
// has search_path pinned to that schema, so queries use unqualified names.
type PostgresPartition struct {
	pool *pgxpool.Pool
}

// NewPostgresPartition wraps a tenant pool
func NewPostgresPartition(pool *pgxpool.Pool) *PostgresPartition {
	return &PostgresPartition{pool: pool}
}

func (p *PostgresPartition) Chefs() ChefRepository          { return &postgresChefs{pool: p.pool} }
func (p *PostgresPartition) Categories() CategoryRepository { return &postgresCategories{pool: p.pool} }
func (p *PostgresPartition) MenuItems() MenuItemRepository  { return &postgresMenuItems{pool: p.pool} }
func (p *PostgresPartition) Orders() OrderRepository        { return &postgresOrders{pool: p.pool} }

type postgresChefs struct {
	pool *pgxpool.Pool
}

func (r *postgresChefs) Create(ctx context.Context, chef *domain.Chef) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chefs (id, chef_id, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		chef.ID, chef.ChefID, chef.PasswordHash, chef.Role, chef.CreatedAt,
	)
	return mapWriteError(err)
}

func (r *postgresChefs) GetByID(ctx context.Context, id string) (*domain.Chef, error) {
	return r.getOne(ctx, `SELECT id, chef_id, password_hash, role, created_at FROM chefs WHERE id = $1`, id)
}

func (r *postgresChefs) GetByChefID(ctx context.Context, chefID string) (*domain.Chef, error) {
	return r.getOne(ctx, `SELECT id, chef_id, password_hash, role, created_at FROM chefs WHERE chef_id = $1`, chefID)
}

func (r *postgresChefs) getOne(ctx context.Context, query, arg string) (*domain.Chef, error) {
	chef := &domain.Chef{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(&chef.ID, &chef.ChefID, &chef.PasswordHash, &chef.Role, &chef.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return chef, nil
}

func (r *postgresChefs) List(ctx context.Context) ([]*domain.Chef, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, chef_id, password_hash, role, created_at FROM chefs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chefs := make([]*domain.Chef, 0)
	for rows.Next() {
		chef := &domain.Chef{}
		if err := rows.Scan(&chef.ID, &chef.ChefID, &chef.PasswordHash, &chef.Role, &chef.CreatedAt); err != nil {
			return nil, err
		}
		chefs = append(chefs, chef)
	}
	return chefs, rows.Err()
}

func (r *postgresChefs) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.pool, `DELETE FROM chefs WHERE id = $1`, id)
}

type postgresCategories struct {
	pool *pgxpool.Pool
}

func (r *postgresCategories) Create(ctx context.Context, category *domain.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`,
		category.ID, category.Name, category.CreatedAt,
	)
	return mapWriteError(err)
}

func (r *postgresCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func (r *postgresCategories) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresCategories) Rename(ctx context.Context, id, name string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name, created_at`, id, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, mapWriteError(mapNoRows(err))
	}
	return c, nil
}

// Delete relies on the RESTRICT foreign key from menu_items
func (r *postgresCategories) Delete(ctx context.Context, id string) error {
	err := execAffectingOne(ctx, r.pool, `DELETE FROM categories WHERE id = $1`, id)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return domain.ErrCategoryInUse
	}
	return err
}

type postgresMenuItems struct {
	pool *pgxpool.Pool
}

const menuItemColumns = `id, name, price, description, category_id, image, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	it := &domain.MenuItem{}
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Description, &it.CategoryID, &it.Image, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *postgresMenuItems) Create(ctx context.Context, item *domain.MenuItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO menu_items (`+menuItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Name, item.Price, item.Description, item.CategoryID, item.Image, item.CreatedAt, item.UpdatedAt,
	)
	return mapWriteError(err)
}

func (r *postgresMenuItems) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	it, err := scanMenuItem(r.pool.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return it, nil
}

func (r *postgresMenuItems) List(ctx context.Context) ([]*domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuItemColumns+` FROM menu_items ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.MenuItem, 0)
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresMenuItems) Update(ctx context.Context, item *domain.MenuItem) error {
	err := execAffectingOne(ctx, r.pool, `
		UPDATE menu_items
		SET name = $2, price = $3, description = $4, category_id = $5, image = $6, updated_at = $7
		WHERE id = $1`,
		item.ID, item.Name, item.Price, item.Description, item.CategoryID, item.Image, item.UpdatedAt,
	)
	return mapWriteError(err)
}

func (r *postgresMenuItems) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.pool, `DELETE FROM menu_items WHERE id = $1`, id)
}

type postgresOrders struct {
	pool *pgxpool.Pool
}

const orderColumns = `id, items, total_amount, table_number, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		items []byte
	)
	if err := row.Scan(&o.ID, &items, &o.TotalAmount, &o.TableNumber, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *postgresOrders) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, items, order.TotalAmount, order.TableNumber, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	return mapWriteError(err)
}

func (r *postgresOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return o, nil
}

// Transition locks the row so the check and the update see the same status
func (r *postgresOrders) Transition(ctx context.Context, id string, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	if err := o.TransitionTo(to, at); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, o.Status, o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresOrders) ListByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = ANY($1) ORDER BY created_at DESC, id DESC`, names)
}

func (r *postgresOrders) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (r *postgresOrders) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// execAffectingOne returns ErrNotFound when the statement touched no row
func execAffectingOne(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) error {
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
