package http

import (
	"net/http"

	"github.com/RigelNana/vitalicio/service"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Login POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	h.authenticate(c, service.ModeLogin)
}

// Register POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	h.authenticate(c, service.ModeRegister)
}

func (h *Handler) authenticate(c *gin.Context, mode service.AuthMode) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
		return
	}
	u, err := h.portal.Session.Authenticate(c.Request.Context(), mode, req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sessão indisponível, tente novamente", "kind": "remote_fetch"})
		return
	}
	token, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao emitir token", "kind": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

// Logout POST /api/auth/logout
//
// Revokes the caller's token. The process session is signed out only when it
// belongs to the caller.
func (h *Handler) Logout(c *gin.Context) {
	h.tokens.Revoke(currentClaims(c))
	u := currentUser(c)
	if current := h.portal.Session.Current(); current != nil && current.ID == u.ID {
		if err := h.portal.Session.SignOut(c.Request.Context()); err != nil {
			// the local session is gone either way
			h.logger.WithError(err).Warn("sign-out reported an error")
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": nil})
}

// Session GET /api/auth/session
//
// Answers with the user behind the bearer token, or null without a valid one.
func (h *Handler) Session(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	claims, err := h.tokens.Verify(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": claims.User()})
}
