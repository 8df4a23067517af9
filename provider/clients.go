package provider

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	rootcerts "github.com/hashicorp/go-rootcerts"
	vaultapi "github.com/hashicorp/vault/api"
)

// ClientSet builds and holds the API clients the networked providers use.
// Clients are created once from explicit input and handed to the providers
// at construction time.
type ClientSet struct {
	sync.RWMutex

	consul *consulClient
	vault  *vaultClient
}

// consulClient is a wrapper around a real Consul API client.
type consulClient struct {
	client     *consulapi.Client
	httpClient *http.Client
}

// vaultClient is a wrapper around a real Vault API client.
type vaultClient struct {
	client     *vaultapi.Client
	httpClient *http.Client
}

// TransportInput groups the HTTP transport and TLS settings shared by the
// client constructors.
type TransportInput struct {
	SSLEnabled bool
	SSLVerify  bool
	SSLCert    string
	SSLKey     string
	SSLCACert  string
	SSLCAPath  string
	ServerName string

	DialKeepAlive       time.Duration
	DialTimeout         time.Duration
	DisableKeepAlives   bool
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	TLSHandshakeTimeout time.Duration
}

// ConsulInput defines the inputs needed to configure the Consul client.
type ConsulInput struct {
	Address      string
	Namespace    string
	Token        string
	AuthEnabled  bool
	AuthUsername string
	AuthPassword string
	Transport    TransportInput
	// optional, principally for testing
	HTTPClient *http.Client
}

// VaultInput defines the inputs needed to configure the Vault client.
type VaultInput struct {
	Address     string
	Namespace   string
	Token       string
	UnwrapToken bool
	Transport   TransportInput
	// optional, principally for testing
	HTTPClient *http.Client
}

// NewClientSet creates a new client set that is ready to accept clients.
func NewClientSet() *ClientSet {
	return &ClientSet{}
}

// AddConsul creates a Consul API client from the given input and adds it
// to the set.
func (cs *ClientSet) AddConsul(i ConsulInput) error {
	conf := consulapi.DefaultConfig()

	if i.Address != "" {
		conf.Address = i.Address
	}
	if i.Namespace != "" {
		conf.Namespace = i.Namespace
	}
	if i.Token != "" {
		conf.Token = i.Token
	}
	if i.AuthEnabled {
		conf.HttpAuth = &consulapi.HttpBasicAuth{
			Username: i.AuthUsername,
			Password: i.AuthPassword,
		}
	}

	client, err := httpClient(i.HTTPClient, i.Transport)
	if err != nil {
		return err
	}
	conf.HttpClient = client

	if i.Transport.SSLEnabled {
		conf.Scheme = "https"
	}

	c, err := consulapi.NewClient(conf)
	if err != nil {
		return fmt.Errorf("client set: consul: %s", err)
	}

	cs.Lock()
	cs.consul = &consulClient{client: c, httpClient: client}
	cs.Unlock()

	return nil
}

// AddVault creates a Vault API client from the given input and adds it to
// the set.
func (cs *ClientSet) AddVault(i VaultInput) error {
	conf := vaultapi.DefaultConfig()

	if i.Address != "" {
		conf.Address = i.Address
	}

	client, err := httpClient(i.HTTPClient, i.Transport)
	if err != nil {
		return err
	}
	conf.HttpClient = client

	v, err := vaultapi.NewClient(conf)
	if err != nil {
		return fmt.Errorf("client set: vault: %s", err)
	}

	if i.Namespace != "" {
		v.SetNamespace(i.Namespace)
	}
	if i.Token != "" {
		v.SetToken(i.Token)
	}

	// A wrapped token is exchanged for the real one at setup.
	if i.UnwrapToken {
		secret, err := v.Logical().Unwrap(i.Token)
		switch {
		case err != nil:
			return fmt.Errorf("client set: vault unwrap: %s", err)
		case secret == nil:
			return fmt.Errorf("client set: vault unwrap: no secret")
		case secret.Auth == nil:
			return fmt.Errorf("client set: vault unwrap: no secret auth")
		case secret.Auth.ClientToken == "":
			return fmt.Errorf("client set: vault unwrap: no token returned")
		}
		v.SetToken(secret.Auth.ClientToken)
	}

	cs.Lock()
	cs.vault = &vaultClient{client: v, httpClient: client}
	cs.Unlock()

	return nil
}

// Consul returns the Consul client for this set, or nil when none was
// added.
func (cs *ClientSet) Consul() *consulapi.Client {
	cs.RLock()
	defer cs.RUnlock()
	if cs.consul == nil {
		return nil
	}
	return cs.consul.client
}

// Vault returns the Vault client for this set, or nil when none was added.
func (cs *ClientSet) Vault() *vaultapi.Client {
	cs.RLock()
	defer cs.RUnlock()
	if cs.vault == nil {
		return nil
	}
	return cs.vault.client
}

// Stop closes all idle connections for any attached clients.
func (cs *ClientSet) Stop() {
	cs.Lock()
	defer cs.Unlock()

	switch {
	case cs.consul == nil:
	case cs.consul.httpClient == nil:
	default:
		cs.consul.httpClient.CloseIdleConnections()
	}

	switch {
	case cs.vault == nil:
	case cs.vault.httpClient == nil:
	default:
		cs.vault.httpClient.CloseIdleConnections()
	}
}

// httpClient returns the http.Client to use with an API client: the test
// one if given, otherwise a fresh one built from the transport input.
func httpClient(given *http.Client, t TransportInput) (*http.Client, error) {
	if given != nil {
		return given, nil
	}
	transport, err := newTransport(t)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport}, nil
}

func newTransport(t TransportInput) (*http.Transport, error) {
	// This transport will attempt to keep connections open to the server.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		Dial: (&net.Dialer{
			Timeout:   t.DialTimeout,
			KeepAlive: t.DialKeepAlive,
		}).Dial,
		DisableKeepAlives:   t.DisableKeepAlives,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        t.MaxIdleConns,
		IdleConnTimeout:     t.IdleConnTimeout,
		MaxIdleConnsPerHost: t.MaxIdleConnsPerHost,
		TLSHandshakeTimeout: t.TLSHandshakeTimeout,
	}

	if t.SSLEnabled {
		var tlsConfig tls.Config

		// Custom certificate or certificate and key
		if t.SSLCert != "" && t.SSLKey != "" {
			cert, err := tls.LoadX509KeyPair(t.SSLCert, t.SSLKey)
			if err != nil {
				return nil, fmt.Errorf("client set: ssl: %s", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		} else if t.SSLCert != "" {
			cert, err := tls.LoadX509KeyPair(t.SSLCert, t.SSLCert)
			if err != nil {
				return nil, fmt.Errorf("client set: ssl: %s", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		// Custom CA certificate
		if t.SSLCACert != "" || t.SSLCAPath != "" {
			rootConfig := &rootcerts.Config{
				CAFile: t.SSLCACert,
				CAPath: t.SSLCAPath,
			}
			if err := rootcerts.ConfigureTLS(&tlsConfig, rootConfig); err != nil {
				return nil, fmt.Errorf("client set: configuring TLS failed: %s", err)
			}
		}

		// SSL verification
		if t.ServerName != "" {
			tlsConfig.ServerName = t.ServerName
			tlsConfig.InsecureSkipVerify = false
		}
		if !t.SSLVerify {
			tlsConfig.InsecureSkipVerify = true
		}

		transport.TLSClientConfig = &tlsConfig
	}

	return transport, nil
}
