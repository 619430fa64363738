// Package http exposes the portal to the presentation layer over gin.
package http

import (
	"errors"
	"net/http"

	"github.com/RigelNana/vitalicio/auth"
	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

type Handler struct {
	portal *service.Portal
	tokens *auth.TokenIssuer
	logger logrus.FieldLogger
}

func NewHandler(portal *service.Portal, tokens *auth.TokenIssuer, logger logrus.FieldLogger) *Handler {
	return &Handler{portal: portal, tokens: tokens, logger: logger}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func currentClaims(c *gin.Context) *auth.AccessClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.AccessClaims)
	return claims
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized, "auth"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotConfirmed):
		return http.StatusPreconditionRequired, "not_confirmed"
	case errors.Is(err, service.ErrUploadSize):
		return http.StatusRequestEntityTooLarge, "upload_size"
	case errors.Is(err, service.ErrUploadPermission):
		return http.StatusForbidden, "upload_permission"
	case errors.Is(err, service.ErrRemoteFetch):
		return http.StatusServiceUnavailable, "remote_fetch"
	case errors.Is(err, service.ErrRemoteWrite):
		return http.StatusBadGateway, "remote_write"
	}
	return http.StatusInternalServerError, "internal"
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, kind := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Warn("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
