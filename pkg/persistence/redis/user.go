package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// UserRepository stores accounts by id with a lower-cased email index claimed through SETNX.
type UserRepository struct {
	client redis.UniversalClient
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	raw, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewUserError("GetByID", id, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var account models.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}

	return &account, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	id, err := r.client.Get(ctx, userEmailKey(strings.ToLower(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewUserError("GetByEmail", email, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to look up user email: %w", err)
	}

	account, err := r.GetByID(ctx, id)
	if persistence.IsUserNotFound(err) {
		return nil, persistence.NewUserError("GetByEmail", email, persistence.ErrUserNotFound)
	}

	return account, err
}

func (r *UserRepository) Create(ctx context.Context, account *models.Account) error {
	if err := persistence.PrepareAccount(account); err != nil {
		return err
	}

	emailKey := userEmailKey(strings.ToLower(account.Email))

	claimed, err := r.client.SetNX(ctx, emailKey, account.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve user email: %w", err)
	}

	if !claimed {
		return persistence.NewUserError("Create", account.Email, persistence.ErrUserAlreadyExists)
	}

	data, err := json.Marshal(account)
	if err != nil {
		_ = r.client.Del(ctx, emailKey).Err()

		return fmt.Errorf("failed to encode user: %w", err)
	}

	err = r.client.Set(ctx, userKey(account.ID), data, 0).Err()
	if err != nil {
		_ = r.client.Del(ctx, emailKey).Err()

		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
