package memory

import (
	"context"
	"strings"
	"sync"

	"staybook/internal/domain/user"
)

// UserRepository keeps users in memory with a unique-email index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[user.ID]*user.User
	byEmail map[string]user.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[user.ID]*user.User),
		byEmail: make(map[string]user.ID),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(u.Email)
	if ownerID, ok := r.byEmail[email]; ok && ownerID != u.ID {
		return user.ErrEmailAlreadyUsed
	}
	if existing, ok := r.byID[u.ID]; ok {
		prev := normalizeEmail(existing.Email)
		if prev != email {
			delete(r.byEmail, prev)
		}
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
