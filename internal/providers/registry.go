// Package providers defines the upstream secret-integration contract and a
// static registry of provider factories, one per integration type. A
// VaultConnection's integration_type tag selects which factory builds and
// validates against its config.
package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/allisson/secrets/internal/errors"
)

// ErrUpstreamSecretNotFound indicates the upstream integration has no value
// for the requested name.
var ErrUpstreamSecretNotFound = errors.Wrap(errors.ErrNotFound, "upstream secret not found")

// Secret is what an upstream integration returns for a given name: the
// current value and, if the integration exposes one, its own notion of a
// version identifier (opaque to this core; logged but not interpreted).
type Secret struct {
	Value          []byte
	UpstreamVersion *string
}

// Provider fetches a named secret from one configured upstream connection.
type Provider interface {
	GetSecret(ctx context.Context, name string) (*Secret, error)
}

// Factory builds Provider instances for one integration type and validates
// connection config strings before they are ever persisted.
type Factory interface {
	// Validate performs a dry-run correctness check of config — it must not
	// require network access succeeding, only that config is well-formed
	// for this integration (§4.3 create/update).
	Validate(config string) error

	// NewProvider builds a Provider bound to the given decrypted config.
	NewProvider(config string) (Provider, error)
}

// Registry is an immutable-after-startup, concurrency-safe lookup of
// Factory by integration type tag (§9: "ProviderRegistry ... static table or
// interface container").
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry. Register every supported
// integration type before serving requests; after startup no further
// registration should occur.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds integrationType to factory.
func (r *Registry) Register(integrationType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[integrationType] = factory
}

// Factory looks up the Factory registered for integrationType.
func (r *Registry) Factory(integrationType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[integrationType]
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("unknown integration type %q", integrationType))
	}
	return factory, nil
}
