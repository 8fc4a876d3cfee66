package config_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/omni/bridge-explorer/config"
	"github.com/omni/bridge-explorer/store"
)

const testCfg = `
network: testnet
networks:
  testnet:
    chain_id: "127823"
    indexer_url: https://shadownet.bridge.indexer.etherlink.com/v1/graphql?key=${INDEXER_KEY}
    l1_explorer: https://shadownet.tzkt.io
    l2_explorer: https://shadownet.explorer.etherlink.com
indexer:
  timeout: 10s
  rps: 5
  burst: 2
store:
  batch_size: 200
  page_size: 20
  max_size: 400
refresh:
  interval: 15s
  enabled: false
presenter:
  host: 127.0.0.1:8080
metrics:
  host: 127.0.0.1:9090
log_level: debug
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INDEXER_KEY", "secret")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	require.Equal(t, "testnet", cfg.Network)
	require.Equal(t, &config.NetworkConfig{
		Name:       "testnet",
		ChainID:    "127823",
		IndexerURL: "https://shadownet.bridge.indexer.etherlink.com/v1/graphql?key=secret",
		L1Explorer: "https://shadownet.tzkt.io",
		L2Explorer: "https://shadownet.explorer.etherlink.com",
	}, cfg.ActiveNetwork())
	require.Equal(t, "https://bridge.indexer.etherlink.com/v1/graphql", cfg.Networks["mainnet"].IndexerURL)
	require.Equal(t, "mainnet", cfg.Networks["mainnet"].Name)

	require.Equal(t, &config.IndexerConfig{
		Timeout:     10 * time.Second,
		MaxAttempts: 5,
		RetryDelay:  500 * time.Millisecond,
		RPS:         5,
		Burst:       2,
	}, cfg.Indexer)
	require.Equal(t, store.Config{BatchSize: 200, PageSize: 20, MaxSize: 400}, cfg.Store)
	require.Equal(t, &config.RefreshConfig{Interval: 15 * time.Second, Enabled: false}, cfg.Refresh)
	require.Equal(t, "127.0.0.1:8080", cfg.Presenter.Host)
	require.Equal(t, "127.0.0.1:9090", cfg.Metrics.Host)
	require.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

//nolint:paralleltest
func TestReadConfigWithEnv_Defaults(t *testing.T) {
	cfg, err := config.ReadConfigWithEnv([]byte("log_level: warn\n"))
	require.NoError(t, err)

	require.Equal(t, "mainnet", cfg.Network)
	require.Equal(t, "https://explorer.etherlink.com", cfg.ActiveNetwork().L2Explorer)
	require.Equal(t, store.Config{BatchSize: 500, PageSize: 50, MaxSize: 1000}, cfg.Store)
	require.True(t, cfg.Refresh.Enabled)
	require.Equal(t, 10*time.Second, cfg.Refresh.Interval)
	require.Nil(t, cfg.Metrics)
	require.Equal(t, logrus.WarnLevel, cfg.LogLevel)

	cfg, err = config.ReadConfigWithEnv([]byte("\n"))
	require.NoError(t, err)
	require.Equal(t, "mainnet", cfg.ActiveNetwork().Name)
}

//nolint:paralleltest
func TestReadConfigWithEnv_Overrides(t *testing.T) {
	t.Setenv("EXPLORER_NETWORK", "testnet")
	t.Setenv("EXPLORER_INDEXER_URL", "http://localhost:8080/v1/graphql")
	t.Setenv("EXPLORER_LOG_LEVEL", "error")
	t.Setenv("EXPLORER_REFRESH_INTERVAL", "1m")
	t.Setenv("EXPLORER_PRESENTER_HOST", "0.0.0.0:4000")

	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Network)
	require.Equal(t, "http://localhost:8080/v1/graphql", cfg.ActiveNetwork().IndexerURL)
	require.Equal(t, logrus.ErrorLevel, cfg.LogLevel)
	require.Equal(t, time.Minute, cfg.Refresh.Interval)
	require.Equal(t, "0.0.0.0:4000", cfg.Presenter.Host)
}

//nolint:paralleltest
func TestReadConfigWithEnv_Invalid(t *testing.T) {
	for _, test := range []struct {
		Name string
		Cfg  string
		Err  error
	}{
		{"unknown network", "network: devnet\n", config.ErrUnknownNetwork},
		{"page larger than batch", "store:\n  batch_size: 10\n  page_size: 20\n  max_size: 100\n", store.ErrInvalidConfig},
		{"batch larger than max", "store:\n  batch_size: 200\n  page_size: 20\n  max_size: 100\n", store.ErrInvalidConfig},
		{"missing indexer", "network: local\nnetworks:\n  local:\n    chain_id: \"1\"\n", config.ErrMissingIndexer},
	} {
		_, err := config.ReadConfigWithEnv([]byte(test.Cfg))
		require.ErrorIs(t, err, test.Err, test.Name)
	}

	_, err := config.ReadConfigWithEnv([]byte("unknown_field: true\n"))
	require.Error(t, err)
}
