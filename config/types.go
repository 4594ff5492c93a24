package config

// DaemonConfig holds the daemon-level settings from mdwd.yml
type DaemonConfig struct {
	NodeEndpoint      string   `yaml:"node_endpoint"`
	RPCListenAddr     string   `yaml:"rpc_listen_addr"`
	MetricsListenAddr string   `yaml:"metrics_listen_addr"`
	KeyPath           string   `yaml:"key_path"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
}

// ConfigFile is the top-level structure for mdwd.yml
type ConfigFile struct {
	Config DaemonConfig `yaml:"config"`
}
