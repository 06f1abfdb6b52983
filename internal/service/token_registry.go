package service

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swap_go/internal/domain"
	"swap_go/internal/infra/storage"
)

// TokenRegistry serves token metadata to the deal calculator from memory,
// backed by the SQLite store so decimals survive restarts.
type TokenRegistry struct {
	store *storage.Storage

	mu     sync.RWMutex
	tokens map[common.Address]*domain.TokenInfo
}

// NewTokenRegistry creates an empty registry over store. A nil store keeps
// the registry memory-only (used in tests).
func NewTokenRegistry(store *storage.Storage) *TokenRegistry {
	return &TokenRegistry{
		store:  store,
		tokens: make(map[common.Address]*domain.TokenInfo),
	}
}

// Load populates the in-memory map from the store.
func (r *TokenRegistry) Load() error {
	if r.store == nil {
		return nil
	}

	rows, err := r.store.GetAllTokens()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range rows {
		t := rows[i]
		r.tokens[t.Addr()] = &t
	}
	return nil
}

// Put registers or updates a token, persisting when a store is attached.
func (r *TokenRegistry) Put(token *domain.TokenInfo) error {
	if r.store != nil {
		if err := r.store.UpsertToken(token); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.tokens[token.Addr()] = token
	r.mu.Unlock()
	return nil
}

// Token returns metadata for addr. Implements domain.TokenSource.
func (r *TokenRegistry) Token(addr common.Address) (*domain.TokenInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[addr]
	return t, ok
}

// All returns every registered token.
func (r *TokenRegistry) All() []*domain.TokenInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.TokenInfo, 0, len(r.tokens))
	for _, t := range r.tokens {
		result = append(result, t)
	}
	return result
}

// Addresses returns every registered token address.
func (r *TokenRegistry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]common.Address, 0, len(r.tokens))
	for addr := range r.tokens {
		result = append(result, addr)
	}
	return result
}
