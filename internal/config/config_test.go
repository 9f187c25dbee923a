package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/ruleforge/internal/policy"
	"grimm.is/ruleforge/internal/rules"
	"grimm.is/ruleforge/internal/tables"
)

func TestLoadHCL(t *testing.T) {
	cfg, err := LoadFile("testdata/firewall.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "testdata/firewall.hcl", cfg.Source)
	assert.Equal(t, "ipv4", cfg.Family)
	assert.Len(t, cfg.Zones, 3)
	assert.Equal(t, []string{"eth1", "eth0", "br0", "vnet0"}, cfg.Interfaces())

	office, ok := cfg.FindLocation("office")
	require.True(t, ok)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.5-10.0.0.9"}, HostTokens(office.Hosts))

	fwd, ok := cfg.FindChain("filter", "FORWARD")
	require.True(t, ok)
	require.Len(t, fwd.Rules, 5)

	r := fwd.Rules[0]
	assert.Equal(t, KindForward, r.Kind)
	assert.Equal(t, []string{"web", "ssh"}, r.Channels)
	assert.True(t, r.Log)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, "limit", r.Matches[0].Name)
	assert.Equal(t, map[string]string{"limit": "10/s"}, r.Matches[0].Args)

	assert.Equal(t, map[string]string{"jump": "ACCEPT", "in_interface": "lo"}, fwd.Rules[3].Args)
	assert.Equal(t, 5, fwd.Rules[4].Mark)

	origin := fwd.Origin(cfg.Source)
	assert.Equal(t, 24, origin.Line)
	assert.Equal(t, "testdata/firewall.hcl:24 chain filter/FORWARD", origin.String())

	ro := r.Origin(cfg.Source, fwd, 0)
	assert.Equal(t, 27, ro.Line)
	assert.Equal(t, "filter/FORWARD rule 1 (forward)", ro.Label)
}

func TestLoadHCLEnv(t *testing.T) {
	t.Setenv("RF_TEST_WAN", "ppp0")
	cfg, err := LoadHCL([]byte(`zone "wan" { interface = env.RF_TEST_WAN }`), "env.hcl")
	require.NoError(t, err)
	assert.Equal(t, "ppp0", cfg.Zones[0].Interface)
	assert.Equal(t, CurrentSchemaVersion, cfg.SchemaVersion)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("RF_TEST_LAN", "eth7")
	cfg, err := LoadFile("testdata/firewall.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ipv6", cfg.Family)
	assert.Equal(t, "eth7", cfg.Zones[0].Interface)

	in := cfg.Chains[0]
	assert.Equal(t, "INPUT", in.Name)
	require.Len(t, in.Rules, 2)
	assert.Equal(t, rules.Kwargs{"fragment": nil, "jump": "DROP"}, in.Rules[1].Kwargs())

	o := in.Rules[0].Origin(cfg.Source, &in, 0)
	assert.Zero(t, o.Line)
	assert.Equal(t, "testdata/firewall.yaml filter/INPUT rule 1 (input)", o.String())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.hcl"), "failed to read config file"},
		{"extension", write("rules.txt", ""), "unknown config format"},
		{"hcl syntax", write("bad.hcl", `zone "lan" {`), "HCL parse error"},
		{"hcl unknown attribute", write("attr.hcl", `colour = "red"`), "HCL parse error"},
		{"yaml unknown field", write("bad.yaml", "colour: red\n"), "YAML parse error"},
		{"version", write("v2.hcl", `schema_version = "2"`), "unsupported config schema version 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	_, err := LoadFile(filepath.Join(dir, "rules.txt"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Zones:     []Zone{{Name: "lan", Interface: "eth1"}},
			IPSets:    []IPSet{{Name: "bad"}},
			Locations: []Location{{Name: "nas", Hosts: "10.0.0.2"}},
			Channels:  []Channel{{Name: "web", Protocol: "tcp", DPorts: "80"}},
		}
	}
	chain := func(rs ...Rule) []Chain {
		return []Chain{{Table: "filter", Name: "FORWARD", Rules: rs}}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
		is     error
	}{
		{"valid", func(c *Config) {}, "", nil},
		{"family", func(c *Config) { c.Family = "ipx" }, "family", nil},
		{"zone interface", func(c *Config) { c.Zones[0].Interface = "eth;0" }, "zone.lan.interface", nil},
		{"duplicate zone", func(c *Config) { c.Zones = append(c.Zones, Zone{Name: "lan"}) }, "duplicate zone", nil},
		{"empty location", func(c *Config) { c.Locations[0].Hosts = "" }, "location.nas", policy.ErrEmptyLocation},
		{"location zone", func(c *Config) { c.Locations[0].Zone = "dmz" }, `unknown zone "dmz"`, nil},
		{"location host", func(c *Config) { c.Locations[0].Hosts = "10.0.0.300" }, "location.nas.hosts", nil},
		{"channel proto", func(c *Config) { c.Channels[0].Protocol = "tcp6" }, "channel.web.protocol", nil},
		{"channel ports", func(c *Config) { c.Channels[0].DPorts = "80-70" }, "channel.web.dports", nil},
		{"icmp ports", func(c *Config) { c.Channels[0].Protocol = "icmp" }, "channel.web", policy.ErrPortsUnsupported},
		{"icmp type", func(c *Config) { c.Channels[0].ICMPType = "echo-request" }, "channel.web.icmp_type", nil},
		{"table", func(c *Config) { c.Chains = []Chain{{Table: "broute", Name: "X"}} }, "chain.broute.X.table", nil},
		{"user chain policy", func(c *Config) { c.Chains = []Chain{{Table: "filter", Name: "audit", Policy: "DROP"}} }, "policy", tables.ErrUserChainPolicy},
		{"builtin policy", func(c *Config) { c.Chains = []Chain{{Table: "filter", Name: "INPUT", Policy: "REJECT"}} }, "must be ACCEPT or DROP", nil},
		{"duplicate chain", func(c *Config) { c.Chains = append(chain(), chain()...) }, "duplicate chain", nil},
		{"rule kind", func(c *Config) { c.Chains = chain(Rule{Kind: "nat"}) }, `unknown rule kind "nat"`, nil},
		{"forward policy", func(c *Config) { c.Chains = chain(Rule{Kind: KindForward, Policy: "allow"}) }, "rule[0].policy", policy.ErrInvalidPolicy},
		{"forward endpoint", func(c *Config) { c.Chains = chain(Rule{Kind: KindForward, Policy: "ACCEPT", From: []string{"mars"}}) }, `unknown endpoint "mars"`, nil},
		{"forward channel", func(c *Config) {
			c.Chains = chain(Rule{Kind: KindForward, Policy: "ACCEPT", Channels: []string{"no-such-service-here"}})
		}, `unknown channel "no-such-service-here"`, nil},
		{"input destinations", func(c *Config) { c.Chains = chain(Rule{Kind: KindInput, Policy: "ACCEPT", To: []string{"lan"}}) }, "rule[0].to", policy.ErrInputDestinations},
		{"log id", func(c *Config) { c.Chains = chain(Rule{Kind: KindForward, Policy: "ACCEPT", LogID: "x"}) }, "log_id", nil},
		{"jump target", func(c *Config) { c.Chains = chain(Rule{Kind: KindJump}) }, "needs a target", nil},
		{"jump chain", func(c *Config) { c.Chains = chain(Rule{Kind: KindJump, Target: "audit"}) }, `unknown chain "audit"`, nil},
		{"custom empty", func(c *Config) { c.Chains = chain(Rule{Kind: KindCustom, Text: " "}) }, "text", rules.ErrEmptyRule},
		{"custom quote", func(c *Config) { c.Chains = chain(Rule{Kind: KindCustom, Text: `-m comment --comment "x`}) }, "text", nil},
		{"custom option", func(c *Config) { c.Chains = chain(Rule{Kind: KindCustom, Text: "ACCEPT"}) }, "must start with an option", nil},
		{"raw args", func(c *Config) { c.Chains = chain(Rule{Kind: KindRaw}) }, "raw rule needs args", nil},
		{"raw arg name", func(c *Config) { c.Chains = chain(Rule{Kind: KindRaw, Args: map[string]string{"dport__maybe": "1"}}) }, "args", rules.ErrUnsupportedSuffix},
		{"raw arg dashes", func(c *Config) { c.Chains = chain(Rule{Kind: KindRaw, Args: map[string]string{"--dport": "1"}}) }, "args", rules.ErrMalformedName},
		{"mark range", func(c *Config) { c.Chains = chain(Rule{Kind: KindMark, Mark: 70000}) }, "mark", rules.ErrMarkOutOfRange},
		{"marked zero", func(c *Config) { c.Chains = chain(Rule{Kind: KindMarked}) }, "mark", rules.ErrMarkOutOfRange},
		{"match name", func(c *Config) { c.Chains = chain(Rule{Kind: KindRaw, Args: map[string]string{"j": "ACCEPT"}, Matches: []Match{{Name: "a b"}}}) }, "match", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			assert.Contains(t, err.Error(), tt.want)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	c := &Config{
		Family: "ipx",
		Zones:  []Zone{{Name: "bad name"}},
		Chains: []Chain{{Table: "filter", Name: "FORWARD", Rules: []Rule{{Kind: "nope"}}}},
	}
	err := c.Validate()
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)

	var verr *ValidationError
	require.True(t, errors.As(merr.Errors[0], &verr))
	assert.Equal(t, "family", verr.Field)
}

func TestKwargs(t *testing.T) {
	assert.Equal(t, rules.Kwargs{"fragment": nil, "proto": "tcp"}, Kwargs(map[string]string{"fragment": "", "proto": "tcp"}))
	assert.Empty(t, Kwargs(nil))

	m := Match{Name: "limit", Args: map[string]string{"limit": "5/s"}}
	assert.Equal(t, "-m limit --limit 5/s", m.Fragment().String())
}

func TestHostTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, HostTokens(" a, ,b ,"))
	assert.Empty(t, HostTokens(""))
}
