package config

import "time"

// Config is the resolved runtime configuration.
type Config struct {
	RPCURL       string        `mapstructure:"rpc_url"       yaml:"rpc_url,omitempty"`
	Network      string        `mapstructure:"network"       yaml:"network,omitempty"`  // pinned network id; empty means detect
	Artifact     string        `mapstructure:"artifact"      yaml:"artifact,omitempty"` // file path, stored name or builtin
	ArtifactDir  string        `mapstructure:"artifact_dir"  yaml:"artifact_dir,omitempty"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout,omitempty"` // 0 waits indefinitely
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty"`
	From         string        `mapstructure:"from"          yaml:"from,omitempty"`
	Gas          uint64        `mapstructure:"gas"           yaml:"gas,omitempty"`
	GasPrice     string        `mapstructure:"gas_price"     yaml:"gas_price,omitempty"`
	LogLevel     string        `mapstructure:"log_level"     yaml:"log_level,omitempty"`
	AuthRef      string        `mapstructure:"auth_ref"      yaml:"auth_ref,omitempty"` // keyring entry holding the RPC bearer token

	// file the values were read from, if any
	configFile string
}

// KeyInfo describes a settable key for `rights config`.
type KeyInfo struct {
	Key         string
	Description string
}
