package provider

import (
	"fmt"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

var (
	// Ensure implements
	_ Provider = (*ConsulKV)(nil)
)

// ConsulKV serves content from the Consul KV store. Each fetch is a single
// non-blocking get; there is no watch and no index tracking.
type ConsulKV struct {
	client *consulapi.Client
	prefix string
	dc     string
}

// ConsulKVInput is used as input when creating a Consul KV provider.
type ConsulKVInput struct {
	// Client is the Consul API client to query with. Required.
	Client *consulapi.Client

	// Prefix is prepended to every fetched path. Optional.
	Prefix string

	// Datacenter scopes queries to a single datacenter. Optional.
	Datacenter string
}

// NewConsulKV creates a Consul KV provider from the given input.
func NewConsulKV(i ConsulKVInput) (*ConsulKV, error) {
	if i.Client == nil {
		return nil, fmt.Errorf("consulkv: missing client")
	}
	return &ConsulKV{
		client: i.Client,
		prefix: strings.Trim(i.Prefix, "/"),
		dc:     i.Datacenter,
	}, nil
}

// Fetch gets the value stored at the key built from the prefix and path.
// A missing key reports ErrNotFound.
func (c *ConsulKV) Fetch(path string) (interface{}, error) {
	key := strings.Trim(path, "/")
	if c.prefix != "" {
		key = c.prefix + "/" + key
	}

	opts := &consulapi.QueryOptions{Datacenter: c.dc}
	pair, _, err := c.client.KV().Get(key, opts)
	if err != nil {
		return nil, errors.Wrap(err, c.String())
	}
	if pair == nil {
		return nil, ErrNotFound
	}
	return string(pair.Value), nil
}

// Stringer interface names the prefix and datacenter.
func (c *ConsulKV) String() string {
	if c.dc != "" {
		return fmt.Sprintf("consulkv(%s@%s)", c.prefix, c.dc)
	}
	return fmt.Sprintf("consulkv(%s)", c.prefix)
}
