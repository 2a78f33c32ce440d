package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrCodeExists    = errors.New("short code already exists")
	ErrDatabaseError = errors.New("database error")
	ErrCacheError    = errors.New("cache error")
)

const (
	cacheTimeout = 24 * time.Hour
	dbTimeout    = 5 * time.Second
)

// LinkRepository is the backing map of short code to link record.
// FindByCode and ListByOwner return links without their visit log; use Visits for that.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	FindByCode(ctx context.Context, code string) (*model.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateTarget(ctx context.Context, code, targetURL string) error
	Delete(ctx context.Context, code string) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error)
	AppendVisit(ctx context.Context, code string, visit model.Visit) error
	Visits(ctx context.Context, code string) ([]model.Visit, error)
}
