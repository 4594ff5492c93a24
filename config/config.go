package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/meadowhq/mdwd/logx"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

var ErrInvalidKeyLength = errors.New("config: private key has wrong length")

// LoadDaemonConfig reads and parses the mdwd.yml file
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to open %s: %v", path, err))
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", fmt.Sprintf("Failed to decode YAML: %v", err))
		return nil, err
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded daemon config: node=%s rpc=%s metrics=%s",
		cfgFile.Config.NodeEndpoint, cfgFile.Config.RPCListenAddr, cfgFile.Config.MetricsListenAddr))
	return &cfgFile.Config, nil
}

// LoadEd25519PrivKey loads an Ed25519 private key from a file (expects hex encoding)
func LoadEd25519PrivKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	}
	return nil, ErrInvalidKeyLength
}

// LedgerConfig tunes the in-memory transaction ledger
type LedgerConfig struct {
	Capacity          int `ini:"capacity"`
	RefreshIntervalMs int `ini:"refresh_interval_ms"`
}

// LoadLedgerConfig reads ledger tuning from an .ini file
func LoadLedgerConfig(path string) (*LedgerConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	ledgerSection := cfg.Section("ledger")
	ledgerCfg := &LedgerConfig{}
	err = ledgerSection.MapTo(ledgerCfg)
	if err != nil {
		return nil, err
	}
	return ledgerCfg, nil
}
