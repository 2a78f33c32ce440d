package repository

import (
	"context"
	"sync"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

// MemoryUserRepository keeps users in process memory, indexed by ID and by email.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailExists
	}
	if _, exists := r.byID[user.ID]; exists {
		return ErrUserIDExists
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	found := *user
	return &found, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}

	found := *r.byID[id]
	return &found, nil
}

func (r *MemoryUserRepository) IDExists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byID[id]
	return exists, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
