package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/idgen"
	"github.com/fonsecaaso/tinylinks/go-server/internal/metrics"
	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
	"github.com/fonsecaaso/tinylinks/go-server/internal/repository"
)

const (
	ShortCodeLength         = 6
	maxIDGenerationAttempts = 10
)

// LinkService owns links and their visit logs. Every mutation of a link runs
// under one write lock, so checks and writes for the same code never interleave.
type LinkService struct {
	links  repository.LinkRepository
	users  repository.UserRepository
	codes  idgen.Generator
	now    func() time.Time
	mu     sync.RWMutex
	logger *zap.Logger
	tracer trace.Tracer
}

func NewLinkService(links repository.LinkRepository, users repository.UserRepository, codes idgen.Generator) *LinkService {
	return &LinkService{
		links:  links,
		users:  users,
		codes:  codes,
		now:    time.Now,
		logger: zap.L().With(zap.String("component", "LinkService")),
		tracer: otel.Tracer("tinylinks/service"),
	}
}

// Create stores a new link owned by ownerID and returns its short code.
func (s *LinkService) Create(ctx context.Context, ownerID, targetURL string) (code string, err error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Create")
	defer span.End()
	defer func() { metrics.RecordOutcome(metrics.LinkOperationsTotal, "create", err) }()

	if ownerID == "" {
		return "", ErrUnauthorized
	}

	target, ok := normalizeURL(targetURL)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a valid URL", ErrInvalidInput, targetURL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("Rejecting link for unknown owner", zap.String("owner_id", ownerID))
			return "", ErrUnauthorized
		}
		return "", err
	}

	for attempt := 0; attempt < maxIDGenerationAttempts; attempt++ {
		candidate, err := s.codes.Generate(ShortCodeLength)
		if err != nil {
			return "", err
		}

		exists, err := s.links.CodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			s.logger.Debug("Short code collision, retrying", zap.String("code", candidate), zap.Int("attempt", attempt+1))
			continue
		}

		link := &model.Link{
			Code:      candidate,
			TargetURL: target,
			OwnerID:   ownerID,
			CreatedAt: s.now(),
		}
		if err := s.links.Create(ctx, link); err != nil {
			// another process may have taken the code between the check and the insert
			if errors.Is(err, repository.ErrCodeExists) {
				continue
			}
			return "", err
		}

		span.SetAttributes(attribute.String("link.code", candidate))
		s.logger.Info("Link created", zap.String("code", candidate), zap.String("owner_id", ownerID))
		return candidate, nil
	}

	s.logger.Error("Short code generation exhausted", zap.Int("attempts", maxIDGenerationAttempts))
	return "", ErrIDGenerationMax
}

// Get returns the link with its visit log. Only the owner may view details.
func (s *LinkService) Get(ctx context.Context, code, callerID string) (*model.Link, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Get")
	defer span.End()

	if callerID == "" {
		return nil, ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	link, err := s.ownedLink(ctx, code, callerID)
	if err != nil {
		return nil, err
	}

	visits, err := s.links.Visits(ctx, code)
	if err != nil {
		return nil, translateLinkErr(err)
	}
	link.Visits = visits

	return link, nil
}

// Update replaces the target URL of a link owned by callerID.
func (s *LinkService) Update(ctx context.Context, code, callerID, newTargetURL string) (err error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Update")
	defer span.End()
	defer func() { metrics.RecordOutcome(metrics.LinkOperationsTotal, "update", err) }()

	if callerID == "" {
		return ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLink(ctx, code, callerID); err != nil {
		return err
	}

	target, ok := normalizeURL(newTargetURL)
	if !ok {
		return fmt.Errorf("%w: %q is not a valid URL", ErrInvalidInput, newTargetURL)
	}

	if err := s.links.UpdateTarget(ctx, code, target); err != nil {
		return translateLinkErr(err)
	}

	s.logger.Info("Link updated", zap.String("code", code))
	return nil
}

// Delete removes a link owned by callerID along with its visit history.
func (s *LinkService) Delete(ctx context.Context, code, callerID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Delete")
	defer span.End()
	defer func() { metrics.RecordOutcome(metrics.LinkOperationsTotal, "delete", err) }()

	if callerID == "" {
		return ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLink(ctx, code, callerID); err != nil {
		return err
	}

	if err := s.links.Delete(ctx, code); err != nil {
		return translateLinkErr(err)
	}

	s.logger.Info("Link deleted", zap.String("code", code))
	return nil
}

// ListForUser returns the caller's links in creation order, without visit logs.
func (s *LinkService) ListForUser(ctx context.Context, callerID string) ([]model.Link, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.ListForUser")
	defer span.End()

	if callerID == "" {
		return nil, ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.links.ListByOwner(ctx, callerID)
}

// Resolve looks a link up for the public redirect path; no ownership applies.
func (s *LinkService) Resolve(ctx context.Context, code string) (*model.Link, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Resolve")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findLink(ctx, code)
}

// RecordVisit appends a visit unless the visitor is the link's owner.
// It reports whether a visit was appended.
func (s *LinkService) RecordVisit(ctx context.Context, code, visitorID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.RecordVisit")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	link, err := s.findLink(ctx, code)
	if err != nil {
		return false, err
	}

	return s.recordVisit(ctx, link, visitorID)
}

// Follow resolves code for a redirect and records the visit in one step.
func (s *LinkService) Follow(ctx context.Context, code, visitorID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.Follow")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	link, err := s.findLink(ctx, code)
	if err != nil {
		return "", err
	}

	if _, err := s.recordVisit(ctx, link, visitorID); err != nil {
		return "", err
	}

	return link.TargetURL, nil
}

// UniqueVisitorCount counts distinct visitor IDs in the link's visit log.
func (s *LinkService) UniqueVisitorCount(ctx context.Context, code string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.UniqueVisitorCount")
	defer span.End()

	if !idgen.IsValid(code, ShortCodeLength) {
		return 0, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	visits, err := s.links.Visits(ctx, code)
	if err != nil {
		return 0, translateLinkErr(err)
	}

	return CountUniqueVisitors(visits), nil
}

// LinkStats is a link with its unique visitor count.
type LinkStats struct {
	Link           model.Link
	UniqueVisitors int
}

// ListWithStats is ListForUser with unique visitor counts read under the same
// read lock. A link removed by another process mid-listing is left out.
func (s *LinkService) ListWithStats(ctx context.Context, callerID string) ([]LinkStats, error) {
	ctx, span := s.tracer.Start(ctx, "LinkService.ListWithStats")
	defer span.End()

	if callerID == "" {
		return nil, ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	links, err := s.links.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}

	stats := make([]LinkStats, 0, len(links))
	for _, link := range links {
		visits, err := s.links.Visits(ctx, link.Code)
		if errors.Is(err, repository.ErrLinkNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		stats = append(stats, LinkStats{Link: link, UniqueVisitors: CountUniqueVisitors(visits)})
	}

	return stats, nil
}

// CountUniqueVisitors counts distinct VisitorID values. All anonymous visits
// share the empty ID and therefore count once.
func CountUniqueVisitors(visits []model.Visit) int {
	seen := make(map[string]struct{}, len(visits))
	for _, v := range visits {
		seen[v.VisitorID] = struct{}{}
	}
	return len(seen)
}

func (s *LinkService) recordVisit(ctx context.Context, link *model.Link, visitorID string) (bool, error) {
	if visitorID == link.OwnerID {
		metrics.VisitsTotal.WithLabelValues("suppressed").Inc()
		return false, nil
	}

	visit := model.Visit{VisitorID: visitorID, Timestamp: s.now()}
	if err := s.links.AppendVisit(ctx, link.Code, visit); err != nil {
		return false, translateLinkErr(err)
	}

	metrics.VisitsTotal.WithLabelValues("recorded").Inc()
	return true, nil
}

func (s *LinkService) findLink(ctx context.Context, code string) (*model.Link, error) {
	if !idgen.IsValid(code, ShortCodeLength) {
		return nil, ErrNotFound
	}
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return nil, translateLinkErr(err)
	}
	return link, nil
}

// ownedLink checks existence before ownership, so absent codes are NotFound for everyone.
func (s *LinkService) ownedLink(ctx context.Context, code, callerID string) (*model.Link, error) {
	link, err := s.findLink(ctx, code)
	if err != nil {
		return nil, err
	}
	if !link.IsOwnedBy(callerID) {
		return nil, ErrForbidden
	}
	return link, nil
}

func translateLinkErr(err error) error {
	if errors.Is(err, repository.ErrLinkNotFound) {
		return ErrNotFound
	}
	return err
}

// normalizeURL trims the input and assumes https when no scheme is given.
// Inputs that already carry http or https, in any case, are kept as submitted.
func normalizeURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "" && isPortOnly(parsed.Opaque)) {
		// "host:8080/path" parses with the host as scheme
		parsed = &url.URL{}
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "":
		rawURL = "https://" + rawURL
		if parsed, err = url.Parse(rawURL); err != nil {
			return "", false
		}
	default:
		return "", false
	}

	if parsed.Host == "" || strings.ContainsAny(parsed.Host, " \t") {
		return "", false
	}

	return rawURL, true
}

func isPortOnly(opaque string) bool {
	port, _, _ := strings.Cut(opaque, "/")
	if port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
