package repository

import (
	"context"
	"sync"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

type linkRecord struct {
	link   model.Link
	visits []model.Visit
}

// MemoryLinkRepository keeps links in process memory. Listing follows insertion order.
type MemoryLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*linkRecord
	order []string
}

func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		links: make(map[string]*linkRecord),
	}
}

func (r *MemoryLinkRepository) Create(_ context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Code]; exists {
		return ErrCodeExists
	}

	stored := *link
	stored.Visits = nil
	r.links[link.Code] = &linkRecord{link: stored}
	r.order = append(r.order, link.Code)
	return nil
}

func (r *MemoryLinkRepository) FindByCode(_ context.Context, code string) (*model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.links[code]
	if !exists {
		return nil, ErrLinkNotFound
	}

	link := rec.link
	return &link, nil
}

func (r *MemoryLinkRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.links[code]
	return exists, nil
}

func (r *MemoryLinkRepository) UpdateTarget(_ context.Context, code, targetURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.links[code]
	if !exists {
		return ErrLinkNotFound
	}

	rec.link.TargetURL = targetURL
	return nil
}

func (r *MemoryLinkRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[code]; !exists {
		return ErrLinkNotFound
	}

	delete(r.links, code)
	for i, c := range r.order {
		if c == code {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryLinkRepository) ListByOwner(_ context.Context, ownerID string) ([]model.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]model.Link, 0)
	for _, code := range r.order {
		rec := r.links[code]
		if rec.link.OwnerID == ownerID {
			links = append(links, rec.link)
		}
	}
	return links, nil
}

func (r *MemoryLinkRepository) AppendVisit(_ context.Context, code string, visit model.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.links[code]
	if !exists {
		return ErrLinkNotFound
	}

	rec.visits = append(rec.visits, visit)
	return nil
}

func (r *MemoryLinkRepository) Visits(_ context.Context, code string) ([]model.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.links[code]
	if !exists {
		return nil, ErrLinkNotFound
	}

	visits := make([]model.Visit, len(rec.visits))
	copy(visits, rec.visits)
	return visits, nil
}

var _ LinkRepository = (*MemoryLinkRepository)(nil)
