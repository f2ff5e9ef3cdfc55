// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/secrets/internal/errors"
)

var (
	// publicIDRegex matches vault connection public ids: 8-24 characters,
	// alphanumeric with internal underscores/hyphens, first and last
	// character alphanumeric.
	publicIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{6,22}[A-Za-z0-9]$`)

	// secretNameRegex matches secret names: 1-255 characters, alphanumeric
	// with internal underscores/hyphens, first and last character
	// alphanumeric (a single-character name is also valid).
	secretNameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_-]*[A-Za-z0-9])?$`)

	// versionTagRegex matches secret version tags: 1-20 characters,
	// alphanumeric with internal underscores/hyphens/dots.
	versionTagRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_.-]*[A-Za-z0-9])?$`)
)

// maxVaultConfigBytes is the largest a vault connection's config blob may be
// before encryption.
const maxVaultConfigBytes = 4096

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// PublicID validates a vault connection public id.
var PublicID = validation.NewStringRuleWithError(
	func(s string) bool {
		return publicIDRegex.MatchString(s)
	},
	validation.NewError("validation_public_id", "must be 8-24 alphanumeric characters, hyphens and underscores allowed internally"),
)

// SecretName validates a secret name.
var SecretName = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) >= 1 && len(s) <= 255 && secretNameRegex.MatchString(s)
	},
	validation.NewError("validation_secret_name", "must be 1-255 alphanumeric characters, hyphens and underscores allowed internally"),
)

// VersionTag validates a secret version tag.
var VersionTag = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) >= 1 && len(s) <= 20 && versionTagRegex.MatchString(s)
	},
	validation.NewError("validation_version_tag", "must be 1-20 alphanumeric characters, hyphens, underscores and dots allowed internally"),
)

// VaultConfigSize validates a vault connection's config blob does not exceed
// the maximum accepted size.
var VaultConfigSize = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_vault_config_type", "must be a string")
	}
	if len(s) > maxVaultConfigBytes {
		return validation.NewError(
			"validation_vault_config_size",
			fmt.Sprintf("must not exceed %d bytes", maxVaultConfigBytes),
		)
	}
	return nil
})

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
