// Package http provides HTTP handlers for vault connection management.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
	"github.com/allisson/secrets/internal/connections/http/dto"
	connectionsService "github.com/allisson/secrets/internal/connections/service"
	"github.com/allisson/secrets/internal/httputil"
	customValidation "github.com/allisson/secrets/internal/validation"
)

// ConnectionHandler handles HTTP requests for vault connection management.
type ConnectionHandler struct {
	connectionService connectionsService.ConnectionService
	logger            *slog.Logger
}

// NewConnectionHandler creates a new vault connection handler with required dependencies.
func NewConnectionHandler(connectionService connectionsService.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
		logger:            logger,
	}
}

// CreateHandler creates a new vault connection.
// POST /v1/vault-connections
// Returns 201 Created with connection metadata.
func (h *ConnectionHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateVaultConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	conn, err := h.connectionService.Create(c.Request.Context(), req.ToCreateInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapVaultConnectionToResponse(conn))
}

// ReadHandler reads and decrypts a vault connection.
// GET /v1/vault-connections/:public_id
// Returns 200 OK with connection metadata and decrypted config.
func (h *ConnectionHandler) ReadHandler(c *gin.Context) {
	publicID := c.Param("public_id")

	pc, err := h.connectionService.Read(c.Request.Context(), publicID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPlaintextConnectionToResponse(pc))
}

// UpdateHandler rotates a vault connection's config, integration type, and/or
// ttl. PATCH /v1/vault-connections/:public_id
// Returns 200 OK with updated connection metadata.
func (h *ConnectionHandler) UpdateHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateVaultConnectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var rawFields map[string]json.RawMessage
	if err := json.Unmarshal(body, &rawFields); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if _, ok := rawFields["ttl_seconds"]; ok {
		req.TTLSet = true
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	publicID := c.Param("public_id")

	conn, err := h.connectionService.Update(c.Request.Context(), publicID, req.ToUpdateInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultConnectionToResponse(conn))
}

// DeleteHandler deletes a vault connection.
// DELETE /v1/vault-connections/:public_id
// Returns 204 No Content on success.
func (h *ConnectionHandler) DeleteHandler(c *gin.Context) {
	publicID := c.Param("public_id")

	deleted, err := h.connectionService.Delete(c.Request.Context(), publicID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !deleted {
		httputil.HandleErrorGin(c, connectionsDomain.ErrConnectionNotFound, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
