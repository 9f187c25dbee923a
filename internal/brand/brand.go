// Package brand provides the product naming used in generated files,
// environment variables and default paths.
//
// The identity is loaded from brand.json at compile time via go:embed.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Description      string `json:"description"`
	Repository       string `json:"repository"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultStateDir  string `json:"defaultStateDir"`
	BinaryName       string `json:"binaryName"`
	ConfigFileName   string `json:"configFileName"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Description = b.Description
	Repository = b.Repository
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultStateDir = b.DefaultStateDir
	BinaryName = b.BinaryName
	ConfigFileName = b.ConfigFileName
}

var (
	Name             string
	LowerName        string
	Description      string
	Repository       string
	ConfigEnvPrefix  string
	DefaultConfigDir string
	DefaultStateDir  string
	BinaryName       string
	ConfigFileName   string

	// Version is set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// EnvVar returns the environment variable name for key, e.g.
// RULEFORGE_LOG_LEVEL.
func EnvVar(key string) string {
	return ConfigEnvPrefix + "_" + key
}

// GetStateDir returns the state directory, checking env vars first.
// Priority: RULEFORGE_STATE_DIR > RULEFORGE_PREFIX/state > DefaultStateDir
func GetStateDir() string {
	if dir := os.Getenv(EnvVar("STATE_DIR")); dir != "" {
		return dir
	}
	if prefix := os.Getenv(EnvVar("PREFIX")); prefix != "" {
		return filepath.Join(prefix, "state")
	}
	return DefaultStateDir
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: RULEFORGE_CONFIG_DIR > RULEFORGE_PREFIX/config > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(EnvVar("CONFIG_DIR")); dir != "" {
		return dir
	}
	if prefix := os.Getenv(EnvVar("PREFIX")); prefix != "" {
		return filepath.Join(prefix, "config")
	}
	return DefaultConfigDir
}

// DefaultConfigPath is the configuration file read when none is given.
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// CheckpointPath is where the ruleset saved before an apply is kept.
func CheckpointPath() string {
	return filepath.Join(GetStateDir(), "checkpoint.rules")
}

// AppliedPath records the last ruleset applied by this host.
func AppliedPath() string {
	return filepath.Join(GetStateDir(), "applied.rules")
}
