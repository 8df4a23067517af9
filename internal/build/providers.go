package build

import (
	"github.com/luacat/lcat/provider"
)

// newProviders assembles the provider chain for a build from the config:
// content files first, then Consul KV and Vault when enabled. The returned
// stop function closes any client connections and is safe to call always.
func newProviders(conf *Config) (provider.Set, func(), error) {
	clients := provider.NewClientSet()
	stop := clients.Stop

	dir, err := provider.NewDir(provider.DirInput{
		Root: conf.ContentDir,
		Exts: contentExts,
	})
	if err != nil {
		return nil, stop, err
	}
	set := provider.Set{dir}

	if conf.Consul.Enabled {
		err := clients.AddConsul(provider.ConsulInput{
			Address:   conf.Consul.Address,
			Namespace: conf.Consul.Namespace,
			Token:     conf.Consul.Token,
			Transport: transportInput(conf.Consul.TLS),
		})
		if err != nil {
			return nil, stop, err
		}
		kv, err := provider.NewConsulKV(provider.ConsulKVInput{
			Client:     clients.Consul(),
			Prefix:     conf.Consul.Prefix,
			Datacenter: conf.Consul.Datacenter,
		})
		if err != nil {
			return nil, stop, err
		}
		set = append(set, kv)
	}

	if conf.Vault.Enabled {
		err := clients.AddVault(provider.VaultInput{
			Address:     conf.Vault.Address,
			Namespace:   conf.Vault.Namespace,
			Token:       conf.Vault.Token,
			UnwrapToken: conf.Vault.UnwrapToken,
			Transport:   transportInput(conf.Vault.TLS),
		})
		if err != nil {
			return nil, stop, err
		}
		kv, err := provider.NewVaultKV(provider.VaultKVInput{
			Client: clients.Vault(),
			Mount:  conf.Vault.Mount,
			Field:  conf.Vault.Field,
		})
		if err != nil {
			return nil, stop, err
		}
		set = append(set, kv)
	}

	return set, stop, nil
}

func transportInput(t TLSConfig) provider.TransportInput {
	return provider.TransportInput{
		SSLEnabled: t.Enabled,
		SSLVerify:  t.Verify,
		SSLCert:    t.Cert,
		SSLKey:     t.Key,
		SSLCACert:  t.CACert,
		SSLCAPath:  t.CAPath,
		ServerName: t.ServerName,
	}
}
