package firewall

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"regexp"

	"grimm.is/ruleforge/internal/brand"
)

// Metadata identifies the build and configuration a ruleset came from.
type Metadata struct {
	Version    string
	ConfigHash string
}

// metadataRegex parses the metadata comment format:
// ruleforge:v<version>:h=<hash>
var metadataRegex = regexp.MustCompile(regexp.QuoteMeta(brand.LowerName) + `:v([^:\s]+):h=([a-f0-9]+)`)

// ParseMetadataComment finds a metadata comment in text.
// Returns nil if not found.
func ParseMetadataComment(text string) *Metadata {
	match := metadataRegex.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	return &Metadata{Version: match[1], ConfigHash: match[2]}
}

// BuildMetadataComment creates a metadata comment string.
func BuildMetadataComment(configHash string) string {
	version := brand.Version
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s:v%s:h=%s", brand.LowerName, version, configHash)
}

// HashConfig generates a short hash of the config content.
func HashConfig(configContent []byte) string {
	h := sha256.Sum256(configContent)
	return fmt.Sprintf("%x", h[:4]) // First 8 hex chars
}

// ReadMetadata parses the metadata of a previously written ruleset.
// A missing file yields nil without error.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseMetadataComment(string(data)), nil
}

// FormatMetadata returns a human-readable string of the metadata.
func FormatMetadata(meta *Metadata) string {
	if meta == nil {
		return "no metadata"
	}
	return fmt.Sprintf("v%s, config hash: %s", meta.Version, meta.ConfigHash)
}
