package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Provider *LocalProvider
	Log      *zap.Logger
}

func NewHandler(p *LocalProvider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Provider: p, Log: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	protected := AuthMiddleware(h.Provider.Tokens, h.Provider)

	rg.POST("/login", h.login)
	rg.POST("/reset-password", h.resetPassword)
	rg.POST("/logout", protected, h.logout)
	rg.GET("/me", protected, h.me)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	grant, err := h.Provider.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrCredentialsRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrInvalidCredentials):
		h.Log.Info("rejected admin login", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		h.Log.Error("sign token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       grant.User,
		"token":      grant.Token,
		"expires_at": grant.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type resetReq struct {
	Email string `json:"email"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	msg, err := h.Provider.RequestReset(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, ErrEmailRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrUnknownEmail):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	h.Provider.Revoke()
	h.Log.Info("admin logged out", zap.String("email", claims.Email))
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, claims.User())
}
