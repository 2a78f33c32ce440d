package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

const uniqueViolation = "23505"

// PostgresLinkRepository implements LinkRepository using PostgreSQL
type PostgresLinkRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLinkRepository creates a new PostgresLinkRepository
func NewPostgresLinkRepository(db *pgxpool.Pool) *PostgresLinkRepository {
	return &PostgresLinkRepository{
		db:     db,
		logger: zap.L().With(zap.String("component", "PostgresLinkRepository")),
	}
}

// Create inserts a new link. A duplicate code yields ErrCodeExists.
func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx,
		"INSERT INTO links (code, target_url, owner_id, created_at) VALUES ($1, $2, $3, $4)",
		link.Code, link.TargetURL, link.OwnerID, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		r.logger.Error("Failed to insert link", zap.Error(err), zap.String("code", link.Code))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return nil
}

func (r *PostgresLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	link := &model.Link{}
	err := r.db.QueryRow(ctx,
		"SELECT code, target_url, owner_id, created_at FROM links WHERE code = $1", code).
		Scan(&link.Code, &link.TargetURL, &link.OwnerID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		r.logger.Error("Database query error", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return link, nil
}

func (r *PostgresLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM links WHERE code = $1", code).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check code existence", zap.Error(err), zap.String("code", code))
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return count > 0, nil
}

func (r *PostgresLinkRepository) UpdateTarget(ctx context.Context, code, targetURL string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, "UPDATE links SET target_url = $2 WHERE code = $1", code, targetURL)
	if err != nil {
		r.logger.Error("Failed to update link", zap.Error(err), zap.String("code", code))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// Delete removes the link; its visits go with it through ON DELETE CASCADE.
func (r *PostgresLinkRepository) Delete(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, "DELETE FROM links WHERE code = $1", code)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.Error(err), zap.String("code", code))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// ListByOwner returns the owner's links in creation order
func (r *PostgresLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		"SELECT code, target_url, owner_id, created_at FROM links WHERE owner_id = $1 ORDER BY seq", ownerID)
	if err != nil {
		r.logger.Error("Failed to list links", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Link, error) {
		var link model.Link
		err := row.Scan(&link.Code, &link.TargetURL, &link.OwnerID, &link.CreatedAt)
		return link, err
	})
	if err != nil {
		r.logger.Error("Failed to scan links", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return links, nil
}

// AppendVisit stores an anonymous visitor as NULL.
func (r *PostgresLinkRepository) AppendVisit(ctx context.Context, code string, visit model.Visit) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`INSERT INTO visits (link_code, visitor_id, visited_at)
		SELECT code, NULLIF($2, ''), $3 FROM links WHERE code = $1`,
		code, visit.VisitorID, visit.Timestamp)
	if err != nil {
		r.logger.Error("Failed to insert visit", zap.Error(err), zap.String("code", code))
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *PostgresLinkRepository) Visits(ctx context.Context, code string) ([]model.Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	exists, err := r.CodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLinkNotFound
	}

	rows, err := r.db.Query(ctx,
		"SELECT COALESCE(visitor_id, ''), visited_at FROM visits WHERE link_code = $1 ORDER BY id", code)
	if err != nil {
		r.logger.Error("Failed to list visits", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	visits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Visit, error) {
		var visit model.Visit
		err := row.Scan(&visit.VisitorID, &visit.Timestamp)
		return visit, err
	})
	if err != nil {
		r.logger.Error("Failed to scan visits", zap.Error(err), zap.String("code", code))
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return visits, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

var _ LinkRepository = (*PostgresLinkRepository)(nil)
