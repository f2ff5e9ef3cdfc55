// Package dto provides data transfer objects for vault connection HTTP handlers.
package dto

import (
	"time"

	connectionsDomain "github.com/allisson/secrets/internal/connections/domain"
	connectionsService "github.com/allisson/secrets/internal/connections/service"
)

// VaultConnectionResponse represents connection metadata returned by create
// and update — no config is echoed.
type VaultConnectionResponse struct {
	PublicID        string    `json:"public_id"`
	IntegrationType string    `json:"integration_type"`
	TTLSeconds      *int      `json:"ttl_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MapVaultConnectionToResponse converts domain connection metadata to an API response.
func MapVaultConnectionToResponse(conn *connectionsDomain.VaultConnection) VaultConnectionResponse {
	return VaultConnectionResponse{
		PublicID:        conn.PublicID,
		IntegrationType: conn.IntegrationType,
		TTLSeconds:      conn.TTLSeconds,
		CreatedAt:       conn.CreatedAt,
		UpdatedAt:       conn.UpdatedAt,
	}
}

// VaultConnectionReadResponse is the read-route response: metadata plus the
// decrypted config.
type VaultConnectionReadResponse struct {
	VaultConnectionResponse
	Config string `json:"config"`
}

// MapPlaintextConnectionToResponse converts a decrypted connection to an API response.
func MapPlaintextConnectionToResponse(pc *connectionsService.PlaintextConnection) VaultConnectionReadResponse {
	return VaultConnectionReadResponse{
		VaultConnectionResponse: MapVaultConnectionToResponse(pc.Connection),
		Config:                  string(pc.Config),
	}
}
