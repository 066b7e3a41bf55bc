package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `SELECT id, email, password_hash, role, created_at FROM users`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewUserError("GetByID", id, persistence.ErrUserNotFound)
	}

	return r.get(ctx, "GetByID", id, selectUser+" WHERE id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.get(ctx, "GetByEmail", email, selectUser+" WHERE LOWER(email) = LOWER($1)", email)
}

func (r *UserRepository) get(ctx context.Context, op, key, query string, arg any) (*models.Account, error) {
	var account models.Account

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewUserError(op, key, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	account.CreatedAt = account.CreatedAt.UTC()

	return &account, nil
}

func (r *UserRepository) Create(ctx context.Context, account *models.Account) error {
	if err := persistence.PrepareAccount(account); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)",
		account.ID, account.Email, account.PasswordHash, account.Role, account.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewUserError("Create", account.Email, persistence.ErrUserAlreadyExists)
		}

		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}
