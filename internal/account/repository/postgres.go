package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"risk-adaptive-auth/internal/account/domain"
	"risk-adaptive-auth/internal/db"
)

const (
	getAccountByID = `SELECT id, email, name, phone, password_hash, status, created_at, updated_at
FROM accounts WHERE id = $1`

	getAccountByEmail = `SELECT id, email, name, phone, password_hash, status, created_at, updated_at
FROM accounts WHERE email = $1`

	listAccountRoles = `SELECT role FROM account_roles WHERE account_id = $1 ORDER BY role`

	createAccount = `INSERT INTO accounts (id, email, name, phone, password_hash, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	addAccountRole = `INSERT INTO account_roles (account_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

// PostgresRepository reads accounts and their roles from Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the account for id with roles loaded, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.get(ctx, getAccountByID, id)
}

// GetByEmail returns the account with the given canonical email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.get(ctx, getAccountByEmail, domain.CanonicalEmail(email))
}

// Create inserts the account and its roles in one transaction. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createAccount,
		a.ID, a.Email, a.Name, db.NullString(a.Phone), a.PasswordHash, string(a.Status), a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	for _, role := range a.Roles {
		if _, err := tx.ExecContext(ctx, addAccountRole, a.ID, role); err != nil {
			return fmt.Errorf("insert role %q: %w", role, err)
		}
	}
	return tx.Commit()
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (*domain.Account, error) {
	var (
		a      domain.Account
		phone  sql.NullString
		status string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.Name, &phone, &a.PasswordHash, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Phone = phone.String
	a.Status = domain.Status(status)

	rows, err := r.db.QueryContext(ctx, listAccountRoles, a.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		a.Roles = append(a.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}
