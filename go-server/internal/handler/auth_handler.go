package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

type UserStore interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
	TTL() time.Duration
}

// SessionCookie describes the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	cookie SessionCookie
	logger *zap.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		cookie: cookie,
		logger: zap.L().With(zap.String("component", "AuthHandler")),
	}
}

// DTOs
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, h.logger, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.startSession(c, http.StatusCreated, "User created successfully", user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.startSession(c, http.StatusOK, "Logged in", user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) startSession(c *gin.Context, status int, message string, user *model.User) {
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(status, SessionResponse{
		Message: message,
		User:    user,
		Token:   token,
	})
}
