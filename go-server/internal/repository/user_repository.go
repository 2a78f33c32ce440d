package repository

import (
	"context"
	"errors"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
	ErrUserIDExists = errors.New("user id already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	IDExists(ctx context.Context, id string) (bool, error)
}
