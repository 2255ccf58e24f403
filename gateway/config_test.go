package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.cfg")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, e := LoadConfig("")
	require.NoError(t, e)

	assert.Equal(t, "https://horizon-testnet.stellar.org", cfg.HorizonURL)
	assert.Equal(t, "TZS", cfg.CustomAssetCode)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.Equal(t, "1000", cfg.Fallback().Rate.String())
	assert.Equal(t, "TZS", cfg.Fallback().Pair.Counter)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
HORIZON_URL = "http://localhost:8000/"
CUSTOM_ASSET_CODE = "KES"
PORT = 8080
LOG_LEVEL = "debug"
`)
	t.Setenv("PORT", "9090")

	cfg, e := LoadConfig(path)
	require.NoError(t, e)
	assert.Equal(t, "http://localhost:8000", cfg.HorizonURL)
	assert.Equal(t, "KES", cfg.CustomAssetCode)
	assert.Equal(t, 9090, cfg.Port, "environment wins over the file")
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, e := LoadConfig(filepath.Join(t.TempDir(), "nope.cfg"))
	assert.Error(t, e)
}

func TestConfigInitRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *GatewayConfig)
	}{
		{"empty horizon", func(c *GatewayConfig) { c.HorizonURL = " " }},
		{"bad usdc issuer", func(c *GatewayConfig) { c.USDCIssuer = "GABC" }},
		{"native custom code", func(c *GatewayConfig) { c.CustomAssetCode = "XLM" }},
		{"long custom code", func(c *GatewayConfig) { c.CustomAssetCode = "ABCDEFGHIJKLM" }},
		{"bad seed", func(c *GatewayConfig) { c.IssuerSecretSeed = "SBAD" }},
		{"zero fallback", func(c *GatewayConfig) { c.FallbackRate = "0" }},
		{"bad port", func(c *GatewayConfig) { c.Port = 70000 }},
		{"bad level", func(c *GatewayConfig) { c.LogLevel = "loud" }},
		{"no poll attempts", func(c *GatewayConfig) { c.BootstrapPollAttempts = 0 }},
	}

	for _, kase := range testCases {
		t.Run(kase.name, func(t *testing.T) {
			cfg := DefaultConfig()
			kase.mutate(&cfg)
			assert.Error(t, cfg.Init())
		})
	}
}

func TestConfigStringMasksSeed(t *testing.T) {
	kp := keypair.MustRandom()
	cfg := DefaultConfig()
	cfg.IssuerSecretSeed = kp.Seed()
	require.NoError(t, cfg.Init())

	s := cfg.String()
	assert.NotContains(t, s, kp.Seed())
	assert.Contains(t, s, kp.Address())
	assert.Contains(t, DefaultConfig().String(), "<generated>")
}

func TestFriendbotBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Init())
	assert.Equal(t, "https://horizon-testnet.stellar.org", cfg.FriendbotBaseURL())

	cfg.FriendbotURL = " http://localhost:8000/ "
	require.NoError(t, cfg.Init())
	assert.Equal(t, "http://localhost:8000", cfg.FriendbotBaseURL())
}
