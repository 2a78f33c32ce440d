package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/middleware"
	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
	"github.com/fonsecaaso/tinylinks/go-server/internal/service"
)

type LinkStore interface {
	Create(ctx context.Context, ownerID, targetURL string) (string, error)
	Get(ctx context.Context, code, callerID string) (*model.Link, error)
	Update(ctx context.Context, code, callerID, newTargetURL string) error
	Delete(ctx context.Context, code, callerID string) error
	Follow(ctx context.Context, code, visitorID string) (string, error)
	ListWithStats(ctx context.Context, callerID string) ([]service.LinkStats, error)
}

type LinkRequest struct {
	URL string `json:"url"`
}

type URLResponse struct {
	Message   string `json:"message"`
	ShortCode string `json:"short_code,omitempty"`
	URL       string `json:"url,omitempty"`
}

type LinkSummary struct {
	ShortCode      string    `json:"short_code"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
	UniqueVisitors int       `json:"unique_visitors"`
}

type LinkDetails struct {
	LinkSummary
	TotalVisits int           `json:"total_visits"`
	Visits      []model.Visit `json:"visits"`
}

type URLHandler struct {
	links  LinkStore
	logger *zap.Logger
}

func NewURLHandler(links LinkStore) *URLHandler {
	return &URLHandler{
		links:  links,
		logger: zap.L().With(zap.String("component", "URLHandler")),
	}
}

func (h *URLHandler) CreateLink(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, h.logger, err)
		return
	}

	code, err := h.links.Create(c.Request.Context(), middleware.CallerID(c), req.URL)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, URLResponse{
		Message:   "URL shortened successfully",
		ShortCode: code,
	})
}

func (h *URLHandler) ListLinks(c *gin.Context) {
	stats, err := h.links.ListWithStats(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	summaries := make([]LinkSummary, 0, len(stats))
	for _, s := range stats {
		summaries = append(summaries, summarize(&s.Link, s.UniqueVisitors))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User URLs retrieved successfully",
		"urls":    summaries,
	})
}

func (h *URLHandler) GetLink(c *gin.Context) {
	link, err := h.links.Get(c.Request.Context(), shortCode(c), middleware.CallerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	visits := link.Visits
	if visits == nil {
		visits = []model.Visit{}
	}

	c.JSON(http.StatusOK, LinkDetails{
		LinkSummary: summarize(link, service.CountUniqueVisitors(link.Visits)),
		TotalVisits: len(visits),
		Visits:      visits,
	})
}

func (h *URLHandler) UpdateLink(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, h.logger, err)
		return
	}

	code := shortCode(c)
	if err := h.links.Update(c.Request.Context(), code, middleware.CallerID(c), req.URL); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, URLResponse{
		Message:   "URL updated successfully",
		ShortCode: code,
	})
}

func (h *URLHandler) DeleteLink(c *gin.Context) {
	if err := h.links.Delete(c.Request.Context(), shortCode(c), middleware.CallerID(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Redirect sends the visitor to the link target and records the visit.
func (h *URLHandler) Redirect(c *gin.Context) {
	target, err := h.links.Follow(c.Request.Context(), shortCode(c), middleware.CallerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

func (h *URLHandler) Root(c *gin.Context) {
	if middleware.CallerID(c) == "" {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, "/urls")
}

func shortCode(c *gin.Context) string {
	return strings.TrimSpace(c.Param("code"))
}

func summarize(link *model.Link, unique int) LinkSummary {
	return LinkSummary{
		ShortCode:      link.Code,
		URL:            link.TargetURL,
		CreatedAt:      link.CreatedAt,
		UniqueVisitors: unique,
	}
}
