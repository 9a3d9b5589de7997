package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, core.BadRequest("Invalid request", err))
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.WalletAddress)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":     challenge.Nonce,
		"message":   challenge.Message,
		"expiresAt": challenge.ExpiresAt,
	})
}

// Verify exchanges a signed challenge for a bearer token
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, core.BadRequest("Invalid request", err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Message, req.Signature, req.WalletAddress)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"tokenType": "Bearer",
		"expiresAt": result.ExpiresAt,
		"sessionId": result.SessionID,
		"user":      result.User,
	})
}

// Logout revokes the presented token
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	// Body is optional
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), AuthFromContext(c), req.SessionID); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Session reports who the caller is without requiring a credential
func (h *AuthHandlers) Session(c *gin.Context) {
	ac := AuthFromContext(c)

	resp := gin.H{
		"authenticated": ac.IsAuthenticated(),
		"state":         ac.State.String(),
		"walletAddress": ac.WalletAddress,
	}
	if ac.IsAuthenticated() {
		resp["user"] = ac.Identity
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the profile of the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), AuthFromContext(c))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminUser returns any user by id
func (h *AuthHandlers) AdminUser(c *gin.Context) {
	user, err := h.authService.FindUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// WalletStatus reports the verification state of the caller's wallet
func (h *AuthHandlers) WalletStatus(c *gin.Context) {
	ac := AuthFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"walletAddress": ac.WalletAddress,
		"isVerified":    ac.Identity.Verified,
		"state":         ac.State.String(),
	})
}

// Pinger is a dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether every dependency answers a ping
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(gin.H, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "healthy"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(isoMillis),
			"services":  checks,
		})
	}
}
