// Package http provides HTTP handlers for secret management operations.
// Secrets are encrypted at rest using envelope encryption and can be versioned.
package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/secrets/internal/crypto/domain"
	"github.com/allisson/secrets/internal/httputil"
	"github.com/allisson/secrets/internal/secrets/http/dto"
	secretsService "github.com/allisson/secrets/internal/secrets/service"
	customValidation "github.com/allisson/secrets/internal/validation"
)

// SecretHandler handles HTTP requests for secret management operations.
type SecretHandler struct {
	secretService secretsService.SecretService
	logger        *slog.Logger
}

// NewSecretHandler creates a new secret handler with required dependencies.
func NewSecretHandler(secretService secretsService.SecretService, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		secretService: secretService,
		logger:        logger,
	}
}

// CreateHandler creates a secret and its first version.
// POST /v1/secrets - Returns 201 Created with the resolved first version.
func (h *SecretHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var value []byte
	if req.Value != nil {
		decoded, err := base64.StdEncoding.DecodeString(*req.Value)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
		value = decoded
	}

	result, err := h.secretService.CreateSecret(c.Request.Context(), req.ToCreateSecretInput(value))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(result.Value)

	c.JSON(http.StatusCreated, dto.MapVersionResultToResponse(result))
}

// CreateVersionHandler adds a new version to a local secret.
// POST /v1/secrets/:name/versions - Returns 201 Created.
func (h *SecretHandler) CreateVersionHandler(c *gin.Context) {
	var req dto.CreateSecretVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	name := c.Param("name")

	result, err := h.secretService.CreateSecretVersion(c.Request.Context(), name, req.VersionTag, value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(result.Value)

	c.JSON(http.StatusCreated, dto.MapVersionResultToResponse(result))
}

// GetCurrentHandler reads a secret's current version, triggering a refresh
// first if it is proxied and expired.
// GET /v1/secrets/:name - Returns 200 OK.
func (h *SecretHandler) GetCurrentHandler(c *gin.Context) {
	name := c.Param("name")

	result, err := h.secretService.GetCurrentVersion(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(result.Value)

	c.JSON(http.StatusOK, dto.MapVersionResultToResponse(result))
}

// GetVersionHandler reads one explicit version of a secret. No refresh is triggered.
// GET /v1/secrets/:name/versions/:tag - Returns 200 OK.
func (h *SecretHandler) GetVersionHandler(c *gin.Context) {
	name := c.Param("name")
	tag := c.Param("tag")

	result, err := h.secretService.GetVersion(c.Request.Context(), name, tag)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(result.Value)

	c.JSON(http.StatusOK, dto.MapVersionResultToResponse(result))
}
