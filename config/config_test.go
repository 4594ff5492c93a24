package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDaemonConfig(t *testing.T) {
	path := writeFile(t, "mdwd.yml", `
config:
  node_endpoint: http://127.0.0.1:8899
  rpc_listen_addr: ":9080"
  metrics_listen_addr: ":9100"
  key_path: ./keys/mdwd.key
  allowed_origins:
    - http://localhost:8000
`)

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8899", cfg.NodeEndpoint)
	assert.Equal(t, ":9080", cfg.RPCListenAddr)
	assert.Equal(t, ":9100", cfg.MetricsListenAddr)
	assert.Equal(t, "./keys/mdwd.key", cfg.KeyPath)
	assert.Equal(t, []string{"http://localhost:8000"}, cfg.AllowedOrigins)
}

func TestLoadDaemonConfigMissingFile(t *testing.T) {
	_, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadLedgerConfig(t *testing.T) {
	path := writeFile(t, "mdwd.ini", `
[ledger]
capacity = 5
refresh_interval_ms = 10000
`)

	cfg, err := LoadLedgerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 10000, cfg.RefreshIntervalMs)
}

func TestLoadEd25519PrivKeyFromSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	path := writeFile(t, "mdwd.key", hex.EncodeToString(seed)+"\n")

	key, err := LoadEd25519PrivKey(path)
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), key)
}

func TestLoadEd25519PrivKeyFull(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	path := writeFile(t, "mdwd.key", hex.EncodeToString(priv))

	key, err := LoadEd25519PrivKey(path)
	require.NoError(t, err)
	assert.Equal(t, priv, key)
}

func TestLoadEd25519PrivKeyBadLength(t *testing.T) {
	path := writeFile(t, "mdwd.key", hex.EncodeToString([]byte("short")))

	_, err := LoadEd25519PrivKey(path)
	assert.True(t, errors.Is(err, ErrInvalidKeyLength))
}
