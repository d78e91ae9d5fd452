package store

import (
	"context"
	"strings"
	"sync"

	"dhruva/internal/identity/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// InMemory keeps accounts with username and wallet indexes. Callers get
// copies; mutations go through Save.
type InMemory struct {
	mu         sync.RWMutex
	accounts   map[domain.AccountID]*models.Account
	byUsername map[string]domain.AccountID
	byWallet   map[string]domain.AccountID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts:   make(map[domain.AccountID]*models.Account),
		byUsername: make(map[string]domain.AccountID),
		byWallet:   make(map[string]domain.AccountID),
	}
}

// Create fails with sentinel.ErrConflict when the username or wallet is taken.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	username := strings.ToLower(account.Username)
	if _, taken := s.byUsername[username]; taken {
		return sentinel.ErrConflict
	}
	if account.HasWallet() {
		if _, taken := s.byWallet[account.WalletAddress]; taken {
			return sentinel.ErrConflict
		}
	}
	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrConflict
	}
	s.accounts[account.ID] = account.Clone()
	s.byUsername[username] = account.ID
	if account.HasWallet() {
		s.byWallet[account.WalletAddress] = account.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *InMemory) FindByWallet(_ context.Context, wallet string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byWallet[domain.CanonicalAddress(wallet)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.accounts[id].Clone(), nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.accounts[id].Clone(), nil
}

// Save replaces an existing account, keeping the wallet index unique.
func (s *InMemory) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[account.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if account.HasWallet() {
		if owner, taken := s.byWallet[account.WalletAddress]; taken && owner != account.ID {
			return sentinel.ErrConflict
		}
	}
	if current.WalletAddress != account.WalletAddress {
		delete(s.byWallet, current.WalletAddress)
		if account.HasWallet() {
			s.byWallet[account.WalletAddress] = account.ID
		}
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}
