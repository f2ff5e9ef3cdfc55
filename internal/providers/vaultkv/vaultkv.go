// Package vaultkv implements providers.Factory/Provider against a HashiCorp
// Vault KV v2 secrets engine, using github.com/hashicorp/vault/api directly
// the way the teacher pack's Vault adapter builds its client from a JSON
// config blob and issues Logical() reads, adapted here from a Transit
// key-wrap call to a KV-style secret fetch.
package vaultkv

import (
	"context"
	"encoding/json"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/allisson/secrets/internal/errors"
	"github.com/allisson/secrets/internal/providers"
)

// Config is the JSON shape a VaultConnection's plaintext config must match
// for the "vaultkv" integration type.
type Config struct {
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	Namespace  string `json:"namespace,omitempty"`
}

// Factory builds vaultkv Providers.
type Factory struct{}

// NewFactory creates a vaultkv provider factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Validate checks that config parses as a Config and names a non-empty
// address, mount path, and token. It never contacts Vault.
func (f *Factory) Validate(config string) error {
	cfg, err := parseConfig(config)
	if err != nil {
		return err
	}
	if cfg.Address == "" || cfg.MountPath == "" || cfg.Token == "" {
		return errors.Wrap(errors.ErrInvalidInput, "vaultkv config requires address, mount_path and token")
	}
	return nil
}

// NewProvider builds a Provider bound to the given decrypted config.
func (f *Factory) NewProvider(config string) (providers.Provider, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	clientCfg := vaultapi.DefaultConfig()
	clientCfg.Address = cfg.Address

	client, err := vaultapi.NewClient(clientCfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "failed to build vault client: "+err.Error())
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &Provider{client: client, mountPath: cfg.MountPath}, nil
}

func parseConfig(config string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(config), &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "invalid vaultkv config: "+err.Error())
	}
	return &cfg, nil
}

// Provider fetches secrets from a Vault KV v2 mount.
type Provider struct {
	client    *vaultapi.Client
	mountPath string
}

// GetSecret reads name as a KV v2 secret under the provider's mount path and
// returns its "value" field, along with Vault's metadata version number as
// the upstream version.
func (p *Provider) GetSecret(ctx context.Context, name string) (*providers.Secret, error) {
	secret, err := p.client.Logical().ReadWithContext(ctx, fmt.Sprintf("%s/data/%s", p.mountPath, name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "vault read failed: "+err.Error())
	}
	if secret == nil || secret.Data == nil {
		return nil, providers.ErrUpstreamSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidInput, "vault kv v2 response missing data field")
	}
	value, ok := data["value"].(string)
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidInput, "vault kv v2 secret missing string \"value\" field")
	}

	result := &providers.Secret{Value: []byte(value)}
	if meta, ok := secret.Data["metadata"].(map[string]interface{}); ok {
		if v, ok := meta["version"]; ok {
			versionStr := fmt.Sprintf("%v", v)
			result.UpstreamVersion = &versionStr
		}
	}

	return result, nil
}
