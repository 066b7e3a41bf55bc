package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

// UserRepository keeps one JSON file per account. Email lookups scan the directory.
type UserRepository struct {
	store
}

func NewUserRepository(root string) *UserRepository {
	return &UserRepository{store: store{dir: filepath.Join(root, "users")}}
}

func (ur *UserRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	ur.mu.RLock()
	defer ur.mu.RUnlock()

	return ur.read(id)
}

func (ur *UserRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	ur.mu.RLock()
	defer ur.mu.RUnlock()

	account, err := ur.findByEmail(email)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, persistence.NewUserError("GetByEmail", email, persistence.ErrUserNotFound)
	}

	return account, nil
}

func (ur *UserRepository) Create(_ context.Context, account *models.Account) error {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	existing, err := ur.findByEmail(account.Email)
	if err != nil {
		return err
	}

	if existing != nil {
		return persistence.NewUserError("Create", account.Email, persistence.ErrUserAlreadyExists)
	}

	if err := persistence.PrepareAccount(account); err != nil {
		return err
	}

	filePath, ok := ur.path(account.ID)
	if !ok {
		return persistence.NewUserError("Create", account.ID, errors.New("invalid user id"))
	}

	if err := os.MkdirAll(ur.dir, 0750); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user %s: %w", account.ID, err)
	}

	return os.WriteFile(filePath, data, 0600)
}

func (ur *UserRepository) read(id string) (*models.Account, error) {
	filePath, ok := ur.path(id)
	if !ok {
		return nil, persistence.NewUserError("GetByID", id, persistence.ErrUserNotFound)
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewUserError("GetByID", id, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}

	var account models.Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}

	return &account, nil
}

func (ur *UserRepository) findByEmail(email string) (*models.Account, error) {
	jsonFiles, err := fs.Glob(os.DirFS(ur.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list user files: %w", err)
	}

	for _, file := range jsonFiles {
		account, err := ur.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}

	return nil, nil
}
