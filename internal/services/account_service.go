package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/credential"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

const accountsKey = "accounts"

// AccountServiceImpl implements AccountService
type AccountServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewAccountService creates a new account service
func NewAccountService(b *bridge.Bridge, cache *query.Cache) *AccountServiceImpl {
	return &AccountServiceImpl{bridge: b, cache: cache}
}

func (s *AccountServiceImpl) List(ctx context.Context) ([]models.Account, error) {
	v, err := s.cache.Get(ctx, accountsKey, func(ctx context.Context) (any, error) {
		var accounts []models.Account
		if err := s.bridge.Call(ctx, "get_accounts", nil, &accounts); err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		return accounts, nil
	})
	if err != nil {
		return nil, err
	}
	accounts, _ := v.([]models.Account)
	return accounts, nil
}

func (s *AccountServiceImpl) Get(ctx context.Context, id string) (*models.Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	accounts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", id, ErrAccountNotFound)
}

func (s *AccountServiceImpl) Create(ctx context.Context, email, accountType string, settings map[string]any) (*models.Account, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("account email cannot be empty")
	}
	if strings.TrimSpace(accountType) == "" {
		return nil, fmt.Errorf("account type cannot be empty")
	}

	temp := models.Account{
		ID:       "temp-" + uuid.NewString(),
		Email:    email,
		Type:     accountType,
		Settings: settings,
	}

	tx := s.cache.Begin(accountsKey)
	s.cache.Patch(accountsKey, func(current any) any {
		accounts, _ := current.([]models.Account)
		next := make([]models.Account, 0, len(accounts)+1)
		next = append(next, accounts...)
		return append(next, temp)
	})

	var created models.Account
	args := map[string]any{"email": email, "type": accountType, "settings": settings}
	if err := s.bridge.Call(ctx, "create_account", args, &created); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	tx.Commit()

	s.cache.Patch(accountsKey, func(current any) any {
		accounts, _ := current.([]models.Account)
		next := make([]models.Account, 0, len(accounts))
		for _, a := range accounts {
			if a.ID == temp.ID {
				next = append(next, created)
				continue
			}
			next = append(next, a)
		}
		return next
	})
	return &created, nil
}

func (s *AccountServiceImpl) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}

	tx := s.cache.Begin(accountsKey)
	s.cache.Patch(accountsKey, func(current any) any {
		accounts, _ := current.([]models.Account)
		next := make([]models.Account, 0, len(accounts))
		for _, a := range accounts {
			if a.ID != id {
				next = append(next, a)
			}
		}
		return next
	})

	if err := s.bridge.Call(ctx, "delete_account", map[string]any{"id": id}, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete account: %w", err)
	}
	tx.Commit()
	return nil
}

// SaveSecret stores an account secret in the OS keyring.
func (s *AccountServiceImpl) SaveSecret(accountID, secret string) error {
	if strings.TrimSpace(accountID) == "" || secret == "" {
		return fmt.Errorf("accountID and secret cannot be empty")
	}
	return credential.Set(credential.AccountSecretKey(accountID), secret)
}

// LoadSecret retrieves an account secret from the OS keyring.
func (s *AccountServiceImpl) LoadSecret(accountID string) (string, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", fmt.Errorf("accountID cannot be empty")
	}
	return credential.Get(credential.AccountSecretKey(accountID))
}
