package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrUnknownKey is returned by Set for keys outside Keys().
var ErrUnknownKey = errors.New("unknown config key")

var keys = []KeyInfo{
	{KeyRPCURL, "JSON-RPC endpoint of the node"},
	{KeyNetwork, "network id to pin; empty asks the node"},
	{KeyArtifact, "artifact file, stored name or builtin (default RightsContractFactory)"},
	{KeyArtifactDir, "directory of stored artifacts"},
	{KeyTimeout, "how long to wait for a transaction to be mined (0 waits forever)"},
	{KeyPollInterval, "delay between receipt and event polls"},
	{KeyFrom, "default sender address"},
	{KeyGas, "default gas limit"},
	{KeyGasPrice, "default gas price in wei"},
	{KeyLogLevel, "debug, info, warn or error"},
	{KeyAuthRef, "keyring entry holding the RPC bearer token"},
}

// Keys lists the settable keys in display order.
func Keys() []KeyInfo { return slices.Clone(keys) }

// DefaultDir returns ~/.rights, or "" when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir)
}

// SetupViper creates a viper instance reading rights.{yaml,json,toml} from
// workDir or ~/.rights, RIGHTS_* environment variables and, when flags is
// non-nil, command-line flags. Precedence: flags, env, file, defaults.
func SetupViper(workDir string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	if workDir != "" {
		v.AddConfigPath(workDir)
	}
	if dir := DefaultDir(); dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one.
	for _, k := range keys {
		if err := v.BindEnv(k.Key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", k.Key, err)
		}
	}

	v.SetDefault(KeyArtifactDir, defaultArtifactDir)
	v.SetDefault(KeyTimeout, defaultTimeout)
	v.SetDefault(KeyPollInterval, defaultPollInterval)
	v.SetDefault(KeyLogLevel, defaultLogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("binding flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}
	return v, nil
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, dotEnvFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load resolves v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configFile = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyTimeout, c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyPollInterval, c.PollInterval)
	}
	if c.LogLevel != "" && !slices.Contains(logging.Levels(), strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%s must be one of %s, got %q", KeyLogLevel, strings.Join(logging.Levels(), ", "), c.LogLevel)
	}
	return nil
}

// File returns the config file the values were read from, or "".
func (c *Config) File() string { return c.configFile }

// Set writes key=value into the config file at path, creating it when
// missing. Other keys in the file are preserved; defaults, flags and
// environment values are not written.
func Set(path, key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	fv, err := readFile(path)
	if err != nil {
		return err
	}
	fv.Set(key, value)
	return writeFile(fv, path)
}

// Unset removes key from the config file at path.
func Unset(path, key string) error {
	if !isKey(key) {
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	fv, err := readFile(path)
	if err != nil {
		return err
	}
	settings := fv.AllSettings()
	delete(settings, key)

	clean := viper.New()
	for k, val := range settings {
		clean.Set(k, val)
	}
	return writeFile(clean, path)
}

// FilePath picks the file `rights config set` writes to: the file already in
// use, else rights.yaml in dir.
func FilePath(v *viper.Viper, dir string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(dir, configName+".yaml")
}

func readFile(path string) (*viper.Viper, error) {
	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return fv, nil
}

func writeFile(fv *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	if err := fv.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isKey(key string) bool {
	return slices.ContainsFunc(keys, func(k KeyInfo) bool { return k.Key == key })
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}
