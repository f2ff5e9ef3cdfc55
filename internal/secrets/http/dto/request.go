// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	secretsService "github.com/allisson/secrets/internal/secrets/service"
	customValidation "github.com/allisson/secrets/internal/validation"
)

// CreateSecretRequest contains the parameters for creating a secret and its
// first version. Exactly one of VaultConnection and Value must be present
// (§4.4.1).
type CreateSecretRequest struct {
	Name            string  `json:"name"`
	VaultConnection *string `json:"vault_connection,omitempty"`
	Value           *string `json:"value,omitempty"` // base64-encoded plaintext
	VersionTag      string  `json:"version_tag,omitempty"`
}

// Validate checks if the create secret request is valid.
func (r *CreateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.SecretName),
		validation.Field(&r.VaultConnection,
			validation.When(r.VaultConnection != nil, customValidation.PublicID),
		),
		validation.Field(&r.Value,
			validation.When(r.Value != nil, customValidation.NotBlank, customValidation.Base64),
		),
		validation.Field(&r.VersionTag,
			validation.When(r.VersionTag != "", customValidation.VersionTag),
		),
	)
}

// ToCreateSecretInput converts the request into a secretsService.CreateSecretInput.
// decodedValue is the already base64-decoded value (decoded by the handler),
// or nil when VaultConnection was supplied instead.
func (r *CreateSecretRequest) ToCreateSecretInput(decodedValue []byte) secretsService.CreateSecretInput {
	return secretsService.CreateSecretInput{
		Name:                    r.Name,
		VaultConnectionPublicID: r.VaultConnection,
		Value:                   decodedValue,
		VersionTag:              r.VersionTag,
	}
}

// CreateSecretVersionRequest contains the parameters for adding a new version
// to a local secret.
type CreateSecretVersionRequest struct {
	VersionTag string `json:"version_tag"`
	Value      string `json:"value"` // base64-encoded plaintext
}

// Validate checks if the create secret version request is valid.
func (r *CreateSecretVersionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VersionTag, validation.Required, customValidation.VersionTag),
		validation.Field(&r.Value, validation.Required, customValidation.NotBlank, customValidation.Base64),
	)
}
