package config

import "time"

// Config keys. Flags use the same names with dashes, environment variables
// the upper-case form with the RIGHTS_ prefix.
const (
	KeyRPCURL       = "rpc_url"
	KeyNetwork      = "network"
	KeyArtifact     = "artifact"
	KeyArtifactDir  = "artifact_dir"
	KeyTimeout      = "timeout"
	KeyPollInterval = "poll_interval"
	KeyFrom         = "from"
	KeyGas          = "gas"
	KeyGasPrice     = "gas_price"
	KeyLogLevel     = "log_level"
	KeyAuthRef      = "auth_ref"
)

const (
	EnvPrefix  = "RIGHTS"
	configName = "rights"
	configDir  = ".rights"
	dotEnvFile = ".env"

	defaultArtifactDir  = "build/contracts"
	defaultTimeout      = 240 * time.Second
	defaultPollInterval = time.Second
	defaultLogLevel     = "warn"
)
