package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"grimm.is/ruleforge/internal/rules"
)

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1"

// Rule kinds accepted in a chain.
const (
	KindForward = "forward"
	KindInput   = "input"
	KindRaw     = "raw"
	KindCustom  = "custom"
	KindJump    = "jump"
	KindMark    = "mark"
	KindMarked  = "marked"
)

// RuleKinds lists every rule kind in documentation order.
var RuleKinds = []string{KindForward, KindInput, KindRaw, KindCustom, KindJump, KindMark, KindMarked}

// Config is the top-level structure of a firewall definition.
type Config struct {
	// If empty, defaults to CurrentSchemaVersion.
	SchemaVersion string `hcl:"schema_version,optional" yaml:"schema_version"`

	// Family selects iptables or ip6tables. Empty defers to Settings.
	Family string `hcl:"family,optional" yaml:"family"`

	Zones     []Zone     `hcl:"zone,block" yaml:"zones"`
	IPSets    []IPSet    `hcl:"ipset,block" yaml:"ipsets"`
	Locations []Location `hcl:"location,block" yaml:"locations"`
	Channels  []Channel  `hcl:"channel,block" yaml:"channels"`
	Chains    []Chain    `hcl:"chain,block" yaml:"chains"`

	// Source is the file the config was loaded from.
	Source string `yaml:"-"`
}

// Zone names an interface, optionally bridged through a physical device.
type Zone struct {
	Name      string `hcl:"name,label" yaml:"name"`
	Interface string `hcl:"interface,optional" yaml:"interface"`
	PhysDev   string `hcl:"physdev,optional" yaml:"physdev"`
}

// IPSet refers to an externally managed ipset.
type IPSet struct {
	Name string `hcl:"name,label" yaml:"name"`
}

// Location is a named set of hosts, optionally tied to a zone.
type Location struct {
	Name string `hcl:"name,label" yaml:"name"`
	Zone string `hcl:"zone,optional" yaml:"zone"`
	// Hosts is a comma separated list of addresses, CIDRs and ranges.
	Hosts string `hcl:"hosts,optional" yaml:"hosts"`
}

// Channel is a named protocol/port/state combination.
type Channel struct {
	Name     string `hcl:"name,label" yaml:"name"`
	Protocol string `hcl:"protocol" yaml:"protocol"`
	States   string `hcl:"states,optional" yaml:"states"`
	SPorts   string `hcl:"sports,optional" yaml:"sports"`
	DPorts   string `hcl:"dports,optional" yaml:"dports"`
	ICMPType string `hcl:"icmp_type,optional" yaml:"icmp_type"`
}

// Chain is a builtin or user chain of one table.
type Chain struct {
	Table   string `hcl:"table,label" yaml:"table"`
	Name    string `hcl:"name,label" yaml:"name"`
	Policy  string `hcl:"policy,optional" yaml:"policy"`
	Comment string `hcl:"comment,optional" yaml:"comment"`
	Rules   []Rule `hcl:"rule,block" yaml:"rules"`

	Body hcl.Body `hcl:",body" yaml:"-"`
}

// Rule is one entry of a chain. Which attributes apply depends on Kind.
type Rule struct {
	Kind string `hcl:"kind,label" yaml:"kind"`

	// forward, input, marked
	Policy   string   `hcl:"policy,optional" yaml:"policy"`
	From     []string `hcl:"from,optional" yaml:"from"`
	To       []string `hcl:"to,optional" yaml:"to"`
	Channels []string `hcl:"channels,optional" yaml:"channels"`
	Log      bool     `hcl:"log,optional" yaml:"log"`
	LogID    string   `hcl:"log_id,optional" yaml:"log_id"`
	Matches  []Match  `hcl:"match,block" yaml:"matches"`

	// jump
	Target string `hcl:"target,optional" yaml:"target"`
	Goto   bool   `hcl:"goto,optional" yaml:"goto"`

	// custom
	Text string `hcl:"text,optional" yaml:"text"`

	// mark, marked; zero on a mark rule allocates an unused value.
	Mark int `hcl:"mark,optional" yaml:"mark"`

	// Args are extra keyword arguments. An empty value is a presence-only flag.
	Args    map[string]string `hcl:"args,optional" yaml:"args"`
	Comment string            `hcl:"comment,optional" yaml:"comment"`

	Body hcl.Body `hcl:",body" yaml:"-"`
}

// Match is a named match module with its options.
type Match struct {
	Name string            `hcl:"name,label" yaml:"name"`
	Args map[string]string `hcl:"args,optional" yaml:"args"`
}

// Kwargs converts string arguments to keyword arguments.
func Kwargs(args map[string]string) rules.Kwargs {
	kw := make(rules.Kwargs, len(args))
	for k, v := range args {
		if v == "" {
			kw[k] = nil
			continue
		}
		kw[k] = v
	}
	return kw
}

// Kwargs returns the rule's extra arguments.
func (r *Rule) Kwargs() rules.Kwargs {
	return Kwargs(r.Args)
}

// Fragment returns the match as a nested argument list.
func (m *Match) Fragment() *rules.ArgumentList {
	return rules.Match(m.Name, Kwargs(m.Args))
}

// Origin labels the chain with its source position.
func (c *Chain) Origin(source string) rules.Origin {
	return rules.Origin{File: source, Line: line(c.Body), Label: fmt.Sprintf("chain %s/%s", c.Table, c.Name)}
}

// Origin labels the i-th rule of chain c with its source position.
func (r *Rule) Origin(source string, c *Chain, i int) rules.Origin {
	return rules.Origin{
		File:  source,
		Line:  line(r.Body),
		Label: fmt.Sprintf("%s/%s rule %d (%s)", c.Table, c.Name, i+1, r.Kind),
	}
}

func line(body hcl.Body) int {
	if body == nil {
		return 0
	}
	return body.MissingItemRange().Start.Line
}

// FindZone looks a zone up by name.
func (c *Config) FindZone(name string) (*Zone, bool) {
	for i := range c.Zones {
		if c.Zones[i].Name == name {
			return &c.Zones[i], true
		}
	}
	return nil, false
}

// FindIPSet looks an ipset up by name.
func (c *Config) FindIPSet(name string) (*IPSet, bool) {
	for i := range c.IPSets {
		if c.IPSets[i].Name == name {
			return &c.IPSets[i], true
		}
	}
	return nil, false
}

// FindLocation looks a location up by name.
func (c *Config) FindLocation(name string) (*Location, bool) {
	for i := range c.Locations {
		if c.Locations[i].Name == name {
			return &c.Locations[i], true
		}
	}
	return nil, false
}

// FindChannel looks a configured channel up by name.
func (c *Config) FindChannel(name string) (*Channel, bool) {
	for i := range c.Channels {
		if c.Channels[i].Name == name {
			return &c.Channels[i], true
		}
	}
	return nil, false
}

// FindChain looks a chain up by table and name.
func (c *Config) FindChain(table, name string) (*Chain, bool) {
	for i := range c.Chains {
		if c.Chains[i].Table == table && c.Chains[i].Name == name {
			return &c.Chains[i], true
		}
	}
	return nil, false
}

// HostTokens splits a hosts attribute on commas, dropping empty items.
func HostTokens(hosts string) []string {
	var out []string
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Interfaces returns the distinct interface names referenced by zones.
func (c *Config) Interfaces() []string {
	seen := map[string]bool{}
	var out []string
	for _, z := range c.Zones {
		for _, name := range []string{z.Interface, z.PhysDev} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
