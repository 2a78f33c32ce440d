package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fonsecaaso/tinylinks/go-server/internal/idgen"
	"github.com/fonsecaaso/tinylinks/go-server/internal/metrics"
	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
	"github.com/fonsecaaso/tinylinks/go-server/internal/repository"
)

const UserIDLength = 8

type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	ids    idgen.Generator
	now    func() time.Time
	mu     sync.Mutex
	logger *zap.Logger
	tracer trace.Tracer
}

func NewAuthService(users repository.UserRepository, hasher PasswordHasher, ids idgen.Generator) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		ids:    ids,
		now:    time.Now,
		logger: zap.L().With(zap.String("component", "AuthService")),
		tracer: otel.Tracer("tinylinks/service"),
	}
}

// FindByEmail matches the email exactly.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

func (s *AuthService) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

// Register creates a user. Email and password are trimmed before validation.
func (s *AuthService) Register(ctx context.Context, email, password string) (user *model.User, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()
	defer func() { metrics.RecordOutcome(metrics.AuthOperationsTotal, "register", err) }()

	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrInvalidInput)
		}
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	for attempt := 0; attempt < maxIDGenerationAttempts; attempt++ {
		id, err := s.ids.Generate(UserIDLength)
		if err != nil {
			return nil, err
		}

		exists, err := s.users.IDExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		user := &model.User{
			ID:           id,
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			switch {
			case errors.Is(err, repository.ErrUserIDExists):
				continue
			case errors.Is(err, repository.ErrEmailExists):
				return nil, ErrConflict
			default:
				s.logger.Error("Failed to create user", zap.Error(err))
				return nil, err
			}
		}

		s.logger.Info("User registered", zap.String("user_id", id))
		return user, nil
	}

	return nil, ErrIDGenerationMax
}

// Authenticate verifies password against the stored hash of the user with email.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user *model.User, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()
	defer func() { metrics.RecordOutcome(metrics.AuthOperationsTotal, "authenticate", err) }()

	user, err = s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("Password mismatch", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredential
	}

	return user, nil
}

func translateUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}
