package build

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-bexpr"
	"github.com/pkg/errors"
)

// Config holds everything one site build needs. It is usually decoded from
// a TOML file; zero fields fall back to the defaults from DefaultConfig.
type Config struct {
	// ContentDir is the directory walked for source pages. Required.
	ContentDir string `toml:"content_dir"`

	// OutputDir receives rendered pages. Required.
	OutputDir string `toml:"output_dir"`

	// ContentRoot is the base path joined in front of every provider
	// lookup made from placeholders. Optional.
	ContentRoot string `toml:"content_root"`

	// Markdown converts .md pages to HTML after placeholder resolution.
	Markdown bool `toml:"markdown"`

	// Filter is a boolean expression over the page environment (for
	// example "Page.Draft != true"); pages failing it are skipped. The
	// grammar is validated at load time. Optional.
	Filter string `toml:"filter"`

	// Site holds free-form values exposed to every page under Site.
	Site map[string]interface{} `toml:"site"`

	Consul ConsulConfig `toml:"consul"`
	Vault  VaultConfig  `toml:"vault"`
	Watch  WatchConfig  `toml:"watch"`
	Serve  ServeConfig  `toml:"serve"`
}

// ConsulConfig enables content lookups from the Consul KV store.
type ConsulConfig struct {
	Enabled    bool      `toml:"enabled"`
	Address    string    `toml:"address"`
	Token      string    `toml:"token"`
	Namespace  string    `toml:"namespace"`
	Datacenter string    `toml:"datacenter"`
	Prefix     string    `toml:"prefix"`
	TLS        TLSConfig `toml:"tls"`
}

// VaultConfig enables content lookups from Vault secrets.
type VaultConfig struct {
	Enabled     bool      `toml:"enabled"`
	Address     string    `toml:"address"`
	Token       string    `toml:"token"`
	Namespace   string    `toml:"namespace"`
	Mount       string    `toml:"mount"`
	Field       string    `toml:"field"`
	UnwrapToken bool      `toml:"unwrap_token"`
	TLS         TLSConfig `toml:"tls"`
}

// TLSConfig carries the TLS material for a client connection.
type TLSConfig struct {
	Enabled    bool   `toml:"enabled"`
	Verify     bool   `toml:"verify"`
	Cert       string `toml:"cert"`
	Key        string `toml:"key"`
	CACert     string `toml:"ca_cert"`
	CAPath     string `toml:"ca_path"`
	ServerName string `toml:"server_name"`
}

// WatchConfig tunes the content polling loop.
type WatchConfig struct {
	// Poll is the interval between content scans.
	Poll duration `toml:"poll"`
}

// ServeConfig tunes the preview server.
type ServeConfig struct {
	// Address is the listen address, host optional.
	Address string `toml:"address"`
}

// duration wraps time.Duration so it can be written as "2s" in TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		ContentDir: "content",
		OutputDir:  "public",
		Markdown:   true,
		Watch:      WatchConfig{Poll: duration{2 * time.Second}},
		Serve:      ServeConfig{Address: ":8080"},
	}
}

// FromFile loads a config from a TOML file on top of the defaults and
// validates the result.
func FromFile(path string) (*Config, error) {
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the config for problems that would only surface
// mid-build, such as a filter that does not parse.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("config: content_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir is required")
	}
	if c.Filter != "" {
		// Evaluate the grammar of the filter before walking any content.
		if _, err := bexpr.CreateEvaluator(c.Filter); err != nil {
			return fmt.Errorf("config: invalid filter: %q: %s", c.Filter, err)
		}
	}
	if c.Watch.Poll.Duration <= 0 {
		c.Watch.Poll.Duration = 2 * time.Second
	}
	return nil
}
