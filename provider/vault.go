package provider

import (
	"fmt"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

var (
	// Ensure implements
	_ Provider = (*VaultKV)(nil)
)

// VaultKV serves content from Vault secrets. Each fetch is a single read;
// leases are not renewed and secrets are not watched. With a Field
// configured the fetch narrows to that entry of the secret data; without
// one the whole data mapping is returned, which the resolver will not
// substitute (it only substitutes strings).
type VaultKV struct {
	client *vaultapi.Client
	mount  string
	field  string
}

// VaultKVInput is used as input when creating a Vault provider.
type VaultKVInput struct {
	// Client is the Vault API client to read with. Required.
	Client *vaultapi.Client

	// Mount is prepended to every fetched path. Optional.
	Mount string

	// Field selects a single entry of the secret data. Optional.
	Field string
}

// NewVaultKV creates a Vault provider from the given input.
func NewVaultKV(i VaultKVInput) (*VaultKV, error) {
	if i.Client == nil {
		return nil, fmt.Errorf("vaultkv: missing client")
	}
	return &VaultKV{
		client: i.Client,
		mount:  strings.Trim(i.Mount, "/"),
		field:  i.Field,
	}, nil
}

// Fetch reads the secret at the path built from the mount and path. KV v2
// responses are unwrapped to their inner data mapping. A missing secret,
// or a missing configured field, reports ErrNotFound.
func (v *VaultKV) Fetch(path string) (interface{}, error) {
	p := strings.Trim(path, "/")
	if v.mount != "" {
		p = v.mount + "/" + p
	}

	secret, err := v.client.Logical().Read(p)
	if err != nil {
		return nil, errors.Wrap(err, v.String())
	}
	if secret == nil || len(secret.Data) == 0 {
		return nil, ErrNotFound
	}
	return secretValue(secret.Data, v.field)
}

// secretValue shapes raw secret data into the fetched value: KV v2
// envelopes (data plus metadata) are unwrapped to their inner mapping, and
// a configured field narrows the result to one entry.
func secretValue(data map[string]interface{}, field string) (interface{}, error) {
	if inner, ok := data["data"].(map[string]interface{}); ok {
		if _, ok := data["metadata"]; ok {
			data = inner
		}
	}

	if field != "" {
		value, ok := data[field]
		if !ok {
			return nil, ErrNotFound
		}
		return value, nil
	}
	return data, nil
}

// Stringer interface names the mount.
func (v *VaultKV) String() string {
	return fmt.Sprintf("vaultkv(%s)", v.mount)
}
