// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"

	secretsService "github.com/allisson/secrets/internal/secrets/service"
)

// SecretVersionResponse represents a resolved secret version in API
// responses. Value is base64-encoded plaintext — the caller must zero the
// underlying VersionResult.Value after mapping.
type SecretVersionResponse struct {
	Name       string `json:"name"`
	VersionTag string `json:"version_tag"`
	Value      string `json:"value"`
}

// MapVersionResultToResponse converts a resolved version to an API response.
func MapVersionResultToResponse(result *secretsService.VersionResult) SecretVersionResponse {
	return SecretVersionResponse{
		Name:       result.Name,
		VersionTag: result.VersionTag,
		Value:      base64.StdEncoding.EncodeToString(result.Value),
	}
}
