package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/ports"
)

const selectUser = `SELECT id, wallet_address, role, is_verified, status, last_active_at FROM users`

// PostgresUserRepository implements ports.UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

var _ ports.UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository builds a Postgres-backed user repository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// FindUserByID fetches a user by primary key.
func (r *PostgresUserRepository) FindUserByID(ctx context.Context, id string) (*core.Identity, error) {
	return scanIdentity(r.db.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// FindUserByWallet fetches a user by lowercase wallet address.
func (r *PostgresUserRepository) FindUserByWallet(ctx context.Context, address string) (*core.Identity, error) {
	return scanIdentity(r.db.QueryRow(ctx, selectUser+` WHERE wallet_address = $1`, core.NormalizeAddress(address)))
}

// UpdateLastActive stores the users last activity timestamp.
func (r *PostgresUserRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanIdentity(row pgx.Row) (*core.Identity, error) {
	var (
		user       core.Identity
		role       string
		status     string
		lastActive *time.Time
	)
	if err := row.Scan(&user.ID, &user.WalletAddress, &role, &user.Verified, &status, &lastActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.WalletAddress = core.NormalizeAddress(user.WalletAddress)
	user.Role = core.Role(role)
	user.Status = core.Status(status)
	if lastActive != nil {
		user.LastActiveAt = lastActive.UTC()
	}
	return &user, nil
}
