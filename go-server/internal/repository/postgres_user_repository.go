package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

const usersEmailConstraint = "users_email_key"

type PostgresUserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:     db,
		logger: zap.L().With(zap.String("component", "PostgresUserRepository")),
	}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query :=
		`INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			if uniqueConstraint(err) == usersEmailConstraint {
				return ErrEmailExists
			}
			return ErrUserIDExists
		}
		r.logger.Error("Failed to insert user", zap.Error(err), zap.String("id", user.ID))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE id = $1", id)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE email = $1", email)
}

func (r *PostgresUserRepository) IDExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE id = $1", id).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check user id existence", zap.Error(err), zap.String("id", id))
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return count > 0, nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query, arg string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	user := &model.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database query error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return user, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
