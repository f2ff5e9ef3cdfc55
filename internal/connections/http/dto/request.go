// Package dto provides data transfer objects for vault connection HTTP handlers.
package dto

import (
	validation "github.com/jellydator/validation"

	connectionsService "github.com/allisson/secrets/internal/connections/service"
	customValidation "github.com/allisson/secrets/internal/validation"
)

// CreateVaultConnectionRequest contains the parameters for creating a new
// vault connection.
type CreateVaultConnectionRequest struct {
	PublicID        string `json:"public_id"`
	IntegrationType string `json:"integration_type"`
	Config          string `json:"config"`
	TTLSeconds      *int   `json:"ttl_seconds,omitempty"`
}

// Validate checks if the create vault connection request is valid.
func (r *CreateVaultConnectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicID, validation.Required, customValidation.PublicID),
		validation.Field(&r.IntegrationType, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Config, validation.Required, customValidation.VaultConfigSize),
		validation.Field(&r.TTLSeconds, validation.When(r.TTLSeconds != nil, validation.Min(1))),
	)
}

// ToCreateInput converts the request into a connectionsService.CreateInput.
func (r *CreateVaultConnectionRequest) ToCreateInput() connectionsService.CreateInput {
	return connectionsService.CreateInput{
		PublicID:        r.PublicID,
		IntegrationType: r.IntegrationType,
		Config:          []byte(r.Config),
		TTLSeconds:      r.TTLSeconds,
	}
}

// UpdateVaultConnectionRequest contains the parameters for rotating a vault
// connection. IntegrationType and Config must be present together (§4.3,
// S7); TTLSeconds is distinguished present-but-null from absent via TTLSet,
// which the handler populates from the raw request body.
type UpdateVaultConnectionRequest struct {
	IntegrationType *string `json:"integration_type,omitempty"`
	Config          *string `json:"config,omitempty"`
	TTLSeconds      *int    `json:"ttl_seconds,omitempty"`

	// TTLSet is true when the ttl_seconds key was present in the request
	// body at all (even when its value is null). Populated by the handler
	// from the raw JSON, not by json.Unmarshal.
	TTLSet bool `json:"-"`
}

// Validate checks if the update vault connection request is valid.
func (r *UpdateVaultConnectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IntegrationType,
			validation.When(r.Config != nil, validation.Required.Error("integration_type is required when config is present")),
			validation.When(r.IntegrationType != nil, customValidation.NotBlank),
		),
		validation.Field(&r.Config,
			validation.When(r.IntegrationType != nil, validation.Required.Error("config is required when integration_type is present")),
			validation.When(r.Config != nil, customValidation.VaultConfigSize),
		),
		validation.Field(&r.TTLSeconds, validation.When(r.TTLSeconds != nil, validation.Min(1))),
	)
}

// ToUpdateInput converts the request into a connectionsService.UpdateInput.
func (r *UpdateVaultConnectionRequest) ToUpdateInput() connectionsService.UpdateInput {
	var config []byte
	if r.Config != nil {
		config = []byte(*r.Config)
	}
	return connectionsService.UpdateInput{
		IntegrationType: r.IntegrationType,
		Config:          config,
		TTLSet:          r.TTLSet,
		TTLSeconds:      r.TTLSeconds,
	}
}
