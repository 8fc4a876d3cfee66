package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/omni/bridge-explorer/store"
)

const envPrefix = "explorer"

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrMissingIndexer = errors.New("indexer url is not set")
)

type NetworkConfig struct {
	Name       string `yaml:"-"`
	ChainID    string `yaml:"chain_id"`
	IndexerURL string `yaml:"indexer_url"`
	L1Explorer string `yaml:"l1_explorer"`
	L2Explorer string `yaml:"l2_explorer"`
}

type IndexerConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RPS         float64       `yaml:"rps"`
	Burst       int           `yaml:"burst"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Network   string                    `yaml:"network"`
	Networks  map[string]*NetworkConfig `yaml:"networks"`
	Indexer   *IndexerConfig            `yaml:"indexer"`
	Store     store.Config              `yaml:"store"`
	Refresh   *RefreshConfig            `yaml:"refresh"`
	Presenter *PresenterConfig          `yaml:"presenter"`
	Metrics   *MetricsConfig            `yaml:"metrics"`
	LogLevel  logrus.Level              `yaml:"log_level"`
}

// envOverrides are applied on top of the yaml file, EXPLORER_ prefixed.
type envOverrides struct {
	Network         string        `envconfig:"NETWORK"`
	IndexerURL      string        `envconfig:"INDEXER_URL"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL"`
	PresenterHost   string        `envconfig:"PRESENTER_HOST"`
}

func presetNetworks() map[string]*NetworkConfig {
	return map[string]*NetworkConfig{
		"mainnet": {
			ChainID:    "42793",
			IndexerURL: "https://bridge.indexer.etherlink.com/v1/graphql",
			L1Explorer: "https://tzkt.io",
			L2Explorer: "https://explorer.etherlink.com",
		},
		"testnet": {
			ChainID:    "127823",
			IndexerURL: "https://shadownet.bridge.indexer.etherlink.com/v1/graphql",
			L1Explorer: "https://shadownet.tzkt.io",
			L2Explorer: "https://shadownet.explorer.etherlink.com",
		},
	}
}

func defaultConfig() *Config {
	return &Config{
		Network:  "mainnet",
		Networks: presetNetworks(),
		Indexer: &IndexerConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 5,
			RetryDelay:  500 * time.Millisecond,
		},
		Store: store.Config{
			BatchSize: store.DefaultBatchSize,
			PageSize:  store.DefaultPageSize,
			MaxSize:   store.DefaultMaxSize,
		},
		Refresh: &RefreshConfig{
			Interval: 10 * time.Second,
			Enabled:  true,
		},
		Presenter: &PresenterConfig{Host: "0.0.0.0:3333"},
		LogLevel:  logrus.InfoLevel,
	}
}

// ActiveNetwork returns the settings of the selected network.
func (c *Config) ActiveNetwork() *NetworkConfig {
	return c.Networks[c.Network]
}

func (c *Config) validate() error {
	network := c.ActiveNetwork()
	if network == nil {
		return fmt.Errorf("%q: %w", c.Network, ErrUnknownNetwork)
	}
	if network.IndexerURL == "" {
		return fmt.Errorf("network %q: %w", c.Network, ErrMissingIndexer)
	}
	if c.Indexer == nil {
		c.Indexer = defaultConfig().Indexer
	}
	if c.Refresh == nil {
		c.Refresh = &RefreshConfig{}
	}
	if c.Presenter == nil {
		c.Presenter = &PresenterConfig{}
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("can't read env overrides: %w", err)
	}
	if env.Network != "" {
		c.Network = env.Network
	}
	if env.IndexerURL != "" {
		if network := c.ActiveNetwork(); network != nil {
			network.IndexerURL = env.IndexerURL
		}
	}
	if env.LogLevel != "" {
		level, err := logrus.ParseLevel(env.LogLevel)
		if err != nil {
			return fmt.Errorf("can't parse log level: %w", err)
		}
		c.LogLevel = level
	}
	if env.RefreshInterval > 0 {
		if c.Refresh == nil {
			c.Refresh = &RefreshConfig{Enabled: true}
		}
		c.Refresh.Interval = env.RefreshInterval
	}
	if env.PresenterHost != "" {
		if c.Presenter == nil {
			c.Presenter = &PresenterConfig{}
		}
		c.Presenter.Host = env.PresenterHost
	}
	return nil
}

// ReadConfigWithEnv parses a yaml blob with ${VAR} references expanded,
// layered over the built-in defaults and followed by env overrides.
func ReadConfigWithEnv(blob []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := decodeConfigYaml(cfg, blob); err != nil {
		return nil, err
	}
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]*NetworkConfig)
	}
	for name, preset := range presetNetworks() {
		if cfg.Networks[name] == nil {
			cfg.Networks[name] = preset
		}
	}
	for name, network := range cfg.Networks {
		network.Name = name
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfig(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
