package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stackvault/internal/domain"
	"stackvault/internal/service"
	"stackvault/internal/token"
)

const ctxUserIDKey = "userID"

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth     service.AuthService
	creds    service.CredentialService
	verifier *token.Issuer
}

func NewHandler(auth service.AuthService, creds service.CredentialService, verifier *token.Issuer) *Handler {
	return &Handler{
		auth:     auth,
		creds:    creds,
		verifier: verifier,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		protected := api.Group("", h.requireAuth())
		{
			protected.GET("/config", h.getConfig)
			protected.POST("/config", h.saveConfig)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth resolves the Authorization header to a user identity before any
// credential operation. Missing or bad tokens abort with 401.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := h.verifier.Verify(raw)
		if err != nil {
			if errors.Is(err, token.ErrMissingToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Next()
	}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type saveConfigRequest struct {
	APIKey      string `json:"apiKey"`
	AccessToken string `json:"accessToken"`
	Environment string `json:"environment"`
}

type configResponse struct {
	APIKey      string `json:"apiKey"`
	AccessToken string `json:"accessToken"`
	Environment string `json:"environment"`
	UpdatedAt   string `json:"updatedAt"`
}

type saveConfigResponse struct {
	Environment string `json:"environment"`
	UpdatedAt   string `json:"updatedAt"`
}

func (h *Handler) register(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tok, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func (h *Handler) getConfig(c *gin.Context) {
	userID := c.GetString(ctxUserIDKey)

	cfg, err := h.creds.GetConfig(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusOK, gin.H{"config": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": configResponse{
		APIKey:      cfg.APIKey,
		AccessToken: cfg.AccessToken,
		Environment: string(cfg.Environment),
		UpdatedAt:   cfg.UpdatedAt.Format(time.RFC3339),
	}})
}

func (h *Handler) saveConfig(c *gin.Context) {
	userID := c.GetString(ctxUserIDKey)

	var req saveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.creds.SaveConfig(
		c.Request.Context(),
		userID,
		req.APIKey,
		req.AccessToken,
		domain.Environment(req.Environment),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "api key and access token are required"})
		case errors.Is(err, service.ErrInvalidEnvironment):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown environment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "configuration saved successfully",
		"config": saveConfigResponse{
			Environment: string(result.Environment),
			UpdatedAt:   result.UpdatedAt.Format(time.RFC3339),
		},
	})
}
