package firewall

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"

	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/tables"
)

// Ruleset is a loaded firewall definition and its compiled tables.
type Ruleset struct {
	Config *config.Config
	Tables *tables.Tables
	// Hash identifies the definition file content.
	Hash string
}

// Load reads, validates and compiles the definition at path.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := config.Parse(data, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return Build(cfg, data)
}

// Build compiles cfg. data is the file content cfg was parsed from; it
// seeds mark allocation and the metadata header.
func Build(cfg *config.Config, data []byte) (*Ruleset, error) {
	sum := sha256.Sum256(data)
	ts, err := Compile(cfg, binary.BigEndian.Uint64(sum[:8]))
	if err != nil {
		return nil, err
	}
	hash := HashConfig(data)
	ts.Annotate(BuildMetadataComment(hash))
	return &Ruleset{Config: cfg, Tables: ts, Hash: hash}, nil
}

// Render returns the iptables-restore script.
func (r *Ruleset) Render() (string, error) {
	return r.Tables.Render()
}

// Family returns the definition's family, or fallback when unset.
func (r *Ruleset) Family(fallback string) string {
	if r.Config.Family != "" {
		return r.Config.Family
	}
	return fallback
}

// Stats counts tables, chains and rendered statements.
type Stats struct {
	Tables     int
	Chains     int
	Statements int
}

// Stats renders every rule and counts the statements.
func (r *Ruleset) Stats() (Stats, error) {
	var s Stats
	for _, t := range r.Tables.Tables() {
		s.Tables++
		for _, c := range t.Chains() {
			s.Chains++
			for _, rule := range c.Rules() {
				st, err := rule.Statements()
				if err != nil {
					return s, err
				}
				s.Statements += len(st)
			}
		}
	}
	return s, nil
}
