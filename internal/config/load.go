package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"
)

// ErrUnknownFormat is returned for files that are neither HCL nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

// LoadFile loads a firewall definition, choosing the decoder by extension:
// .hcl for HCL, .yaml or .yml for YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, path)
}

// Parse decodes data read from filename, choosing the decoder by the
// filename's extension.
func Parse(data []byte, filename string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return LoadHCL(data, filename)
	case ".yaml", ".yml":
		return LoadYAML(data, filename)
	default:
		return nil, fmt.Errorf("%w: %s (expected .hcl, .yaml or .yml)", ErrUnknownFormat, filename)
	}
}

// LoadHCL decodes HCL bytes. Expressions may reference environment
// variables as env.NAME.
func LoadHCL(data []byte, filename string) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, data, evalContext(), &cfg); err != nil {
		return nil, fmt.Errorf("HCL parse error: %w", err)
	}
	cfg.Source = filename
	return finish(&cfg)
}

// LoadYAML decodes YAML bytes. ${NAME} references are expanded from the
// environment before decoding.
func LoadYAML(data []byte, filename string) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	cfg.Source = filename
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}
	if cfg.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported config schema version %s (supported: %s)", cfg.SchemaVersion, CurrentSchemaVersion)
	}
	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclName(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// hclName reports whether name can be used as an attribute traversal.
func hclName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
