// Package domain defines core domain models and errors for secrets.
package domain

import (
	"github.com/allisson/secrets/internal/errors"
)

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates no secret exists with the given name.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrVersionNotFound indicates no version exists with the given tag.
	ErrVersionNotFound = errors.Wrap(errors.ErrNotFound, "secret version not found")

	// ErrSecretNameConflict indicates a secret with this name already exists.
	ErrSecretNameConflict = errors.Wrap(errors.ErrConflict, "secret name already exists")

	// ErrVersionTagConflict indicates a version with this tag already exists
	// for the secret.
	ErrVersionTagConflict = errors.Wrap(errors.ErrConflict, "secret version tag already exists")

	// ErrProxiedSecretNotWritable indicates an explicit version write was
	// attempted against a secret bound to a vault connection.
	ErrProxiedSecretNotWritable = errors.Wrap(
		errors.ErrMethodNotAllowed,
		"cannot create an explicit version on a proxied secret",
	)

	// ErrAmbiguousSecretSource indicates a create_secret request specified
	// both or neither of vault_connection and value.
	ErrAmbiguousSecretSource = errors.Wrap(
		errors.ErrInvalidInput,
		"exactly one of vault_connection or value must be present",
	)
)
