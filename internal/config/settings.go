package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/logging"
	"grimm.is/ruleforge/internal/validation"
)

// Settings holds runtime options that are not part of the firewall
// definition itself.
type Settings struct {
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" env:"RULEFORGE_LOG_LEVEL" env-default:"info"`

	// LogFormat is the log format (console, json).
	LogFormat string `yaml:"log_format" env:"RULEFORGE_LOG_FORMAT" env-default:"console"`

	// Family is used when the firewall definition does not set one.
	Family string `yaml:"family" env:"RULEFORGE_FAMILY" env-default:"ipv4"`

	// RestoreBinary and SaveBinary override the family defaults.
	RestoreBinary string `yaml:"restore_binary" env:"RULEFORGE_RESTORE_BINARY"`
	SaveBinary    string `yaml:"save_binary" env:"RULEFORGE_SAVE_BINARY"`

	// Checkpoint is where the ruleset is saved before an apply.
	Checkpoint string `yaml:"checkpoint" env:"RULEFORGE_CHECKPOINT"`

	// LockRetries is how often a restore blocked by the xtables lock is attempted.
	LockRetries int           `yaml:"lock_retries" env:"RULEFORGE_LOCK_RETRIES" env-default:"3"`
	LockWait    time.Duration `yaml:"lock_wait" env:"RULEFORGE_LOCK_WAIT" env-default:"1s"`

	// Debounce delays re-applying after the watched file changes.
	Debounce time.Duration `yaml:"debounce" env:"RULEFORGE_DEBOUNCE" env-default:"500ms"`
}

// LoadSettings reads settings from an optional YAML file and the
// environment. Environment variables take precedence over file values.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, s); err != nil {
				return nil, fmt.Errorf("failed to read settings file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access settings file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(s); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if s.Checkpoint == "" {
		s.Checkpoint = brand.CheckpointPath()
	}
	return s, s.Validate()
}

// Validate checks the settings values.
func (s *Settings) Validate() error {
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(s.LogFormat); err != nil {
		return err
	}
	if err := validation.ValidateAllowlist(s.Family, validation.Families); err != nil {
		return fmt.Errorf("invalid family: %s (must be ipv4 or ipv6)", s.Family)
	}
	if s.LockRetries < 1 {
		return fmt.Errorf("lock_retries must be at least 1, got %d", s.LockRetries)
	}
	return nil
}

// Logger builds a logger from the level and format settings.
func (s *Settings) Logger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	json, err := logging.ParseFormat(s.LogFormat)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.JSON = json
	return logging.New(cfg), nil
}

// Binaries returns the restore and save commands for family. An empty
// family falls back to the settings family.
func (s *Settings) Binaries(family string) (restore, save string) {
	if family == "" {
		family = s.Family
	}
	restore, save = "iptables-restore", "iptables-save"
	if family == "ipv6" {
		restore, save = "ip6tables-restore", "ip6tables-save"
	}
	if s.RestoreBinary != "" {
		restore = s.RestoreBinary
	}
	if s.SaveBinary != "" {
		save = s.SaveBinary
	}
	return restore, save
}
