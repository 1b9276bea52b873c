package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// PostgresAdminRepository implements AdminRepository on the global pool
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAdminRepository creates a new PostgresAdminRepository
func NewPostgresAdminRepository(pool *pgxpool.Pool) *PostgresAdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

const adminColumns = `id, hotel_name, tenant_id, admin_name, username, email, password_hash, role, created_at`

// Create inserts a new admin
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		admin.HotelName,
		admin.TenantID,
		admin.AdminName,
		admin.Username,
		admin.Email,
		admin.PasswordHash,
		admin.Role,
		admin.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves an admin by ID
func (r *PostgresAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

// GetByUsername retrieves an admin by login handle
func (r *PostgresAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = $1`, username)
}

func (r *PostgresAdminRepository) getOne(ctx context.Context, query string, arg string) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.HotelName,
		&admin.TenantID,
		&admin.AdminName,
		&admin.Username,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Role,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return admin, nil
}

// TenantExists reports whether tenantID has an admin
func (r *PostgresAdminRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admins WHERE tenant_id = $1)`, tenantID).Scan(&exists)
	return exists, err
}

// ListTenantIDs returns every registered tenant
func (r *PostgresAdminRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT tenant_id FROM admins ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
