package config

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"

	"grimm.is/ruleforge/internal/policy"
	"grimm.is/ruleforge/internal/rules"
	"grimm.is/ruleforge/internal/tables"
	"grimm.is/ruleforge/internal/validation"
)

// ValidationError names the field a validation failure was found in.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Builtin chain policies accepted by the kernel.
var chainPolicies = []string{"ACCEPT", "DROP"}

type validator struct {
	cfg    *Config
	result *multierror.Error
}

func (v *validator) add(field string, err error) {
	if err != nil {
		v.result = multierror.Append(v.result, &ValidationError{Field: field, Err: err})
	}
}

func (v *validator) addf(field, format string, args ...any) {
	v.add(field, fmt.Errorf(format, args...))
}

// Validate checks the whole definition and returns every problem found
// as a *multierror.Error, or nil.
func (c *Config) Validate() error {
	v := &validator{cfg: c}

	if c.Family != "" {
		v.add("family", validation.ValidateAllowlist(c.Family, validation.Families))
	}

	v.zones()
	v.ipsets()
	v.locations()
	v.channels()
	v.chains()

	return v.result.ErrorOrNil()
}

func (v *validator) unique(kind string, names []string) {
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			v.addf(kind+"."+name, "duplicate %s", kind)
		}
		seen[name] = true
	}
}

func (v *validator) zones() {
	var names []string
	for _, z := range v.cfg.Zones {
		field := "zone." + z.Name
		names = append(names, z.Name)
		v.add(field, validation.ValidateIdentifier(z.Name))
		if z.Interface != "" {
			v.add(field+".interface", validation.ValidateInterfaceName(z.Interface))
		}
		if z.PhysDev != "" {
			v.add(field+".physdev", validation.ValidateInterfaceName(z.PhysDev))
		}
	}
	v.unique("zone", names)
}

func (v *validator) ipsets() {
	var names []string
	for _, s := range v.cfg.IPSets {
		names = append(names, s.Name)
		v.add("ipset."+s.Name, validation.ValidateIdentifier(s.Name))
	}
	v.unique("ipset", names)
}

func (v *validator) locations() {
	var names []string
	for _, l := range v.cfg.Locations {
		field := "location." + l.Name
		names = append(names, l.Name)
		v.add(field, validation.ValidateIdentifier(l.Name))
		if l.Zone == "" && strings.TrimSpace(l.Hosts) == "" {
			v.add(field, policy.ErrEmptyLocation)
		}
		if l.Zone != "" {
			if _, ok := v.cfg.FindZone(l.Zone); !ok {
				v.addf(field+".zone", "unknown zone %q", l.Zone)
			}
		}
		for _, h := range HostTokens(l.Hosts) {
			v.add(field+".hosts", validation.ValidateHost(h))
		}
	}
	v.unique("location", names)
}

func (v *validator) channels() {
	var names []string
	for _, ch := range v.cfg.Channels {
		field := "channel." + ch.Name
		names = append(names, ch.Name)
		v.add(field, validation.ValidateIdentifier(ch.Name))
		v.add(field+".protocol", validation.ValidateProtocol(ch.Protocol))

		proto := strings.ToLower(ch.Protocol)
		if ch.SPorts != "" || ch.DPorts != "" {
			if _, err := policy.NewChannel(proto, nil).WithPorts(ch.SPorts, ch.DPorts); err != nil {
				v.add(field, err)
			}
		}
		if ch.SPorts != "" {
			v.add(field+".sports", validation.ValidatePortSpec(ch.SPorts))
		}
		if ch.DPorts != "" {
			v.add(field+".dports", validation.ValidatePortSpec(ch.DPorts))
		}
		if ch.ICMPType != "" && proto != "icmp" && proto != "icmpv6" {
			v.addf(field+".icmp_type", "icmp_type requires protocol icmp or icmpv6, got %s", ch.Protocol)
		}
	}
	v.unique("channel", names)
}

func (v *validator) chains() {
	seen := map[string]bool{}
	for i := range v.cfg.Chains {
		c := &v.cfg.Chains[i]
		field := fmt.Sprintf("chain.%s.%s", c.Table, c.Name)
		if seen[c.Table+"/"+c.Name] {
			v.addf(field, "duplicate chain")
		}
		seen[c.Table+"/"+c.Name] = true

		v.add(field+".table", validation.ValidateTableName(c.Table))
		v.add(field, validation.ValidateChainName(c.Name))

		if c.Policy != "" {
			if !tables.IsBuiltin(c.Table, c.Name) {
				v.add(field+".policy", tables.ErrUserChainPolicy)
			} else if err := validation.ValidateAllowlist(strings.ToUpper(c.Policy), chainPolicies); err != nil {
				v.addf(field+".policy", "builtin chain policy must be ACCEPT or DROP, got %s", c.Policy)
			}
		}

		for j := range c.Rules {
			v.rule(fmt.Sprintf("%s.rule[%d]", field, j), c, &c.Rules[j])
		}
	}
}

func (v *validator) rule(field string, c *Chain, r *Rule) {
	v.args(field+".args", r.Args)
	for _, m := range r.Matches {
		v.add(field+".match", validation.ValidateIdentifier(m.Name))
		v.args(field+".match."+m.Name, m.Args)
	}

	switch r.Kind {
	case KindForward, KindInput:
		if _, err := policy.Parse(r.Policy); err != nil {
			v.add(field+".policy", err)
		}
		for _, name := range r.From {
			v.endpoint(field+".from", name)
		}
		for _, name := range r.To {
			v.endpoint(field+".to", name)
		}
		if r.Kind == KindInput && len(r.To) > 0 {
			v.add(field+".to", policy.ErrInputDestinations)
		}
		for _, name := range r.Channels {
			if _, ok := v.cfg.FindChannel(name); !ok && policy.GetService(name) == nil {
				v.addf(field+".channels", "unknown channel %q", name)
			}
		}
		if r.LogID != "" && !r.Log {
			v.addf(field+".log_id", "log_id set without log = true")
		}

	case KindJump:
		if r.Target == "" {
			v.addf(field+".target", "jump rule needs a target")
			return
		}
		v.add(field+".target", validation.ValidateChainName(r.Target))
		if r.Target != strings.ToUpper(r.Target) {
			if _, ok := v.cfg.FindChain(c.Table, r.Target); !ok {
				v.addf(field+".target", "unknown chain %q in table %s", r.Target, c.Table)
			}
		}

	case KindCustom:
		if strings.TrimSpace(r.Text) == "" {
			v.add(field+".text", rules.ErrEmptyRule)
			return
		}
		tokens, err := shlex.Split(r.Text)
		if err != nil {
			v.add(field+".text", err)
			return
		}
		if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "-") {
			v.addf(field+".text", "custom rule must start with an option, got %q", r.Text)
		}

	case KindRaw:
		if len(r.Args) == 0 {
			v.addf(field+".args", "raw rule needs args")
		}

	case KindMark:
		if r.Mark < 0 || r.Mark > rules.MaxMark {
			v.add(field+".mark", fmt.Errorf("%w: %d", rules.ErrMarkOutOfRange, r.Mark))
		}

	case KindMarked:
		if r.Mark < 1 || r.Mark > rules.MaxMark {
			v.add(field+".mark", fmt.Errorf("%w: %d", rules.ErrMarkOutOfRange, r.Mark))
		}
		if r.Policy != "" {
			if _, err := policy.Parse(r.Policy); err != nil {
				v.add(field+".policy", err)
			}
		}

	default:
		v.addf(field, "unknown rule kind %q (must be one of: %s)", r.Kind, strings.Join(RuleKinds, ", "))
	}
}

func (v *validator) args(field string, args map[string]string) {
	for name, value := range args {
		if _, err := rules.NewCustomArgument(name, value); err != nil {
			v.add(field, err)
		}
	}
}

func (v *validator) endpoint(field, name string) {
	if _, ok := v.cfg.FindLocation(name); ok {
		return
	}
	if _, ok := v.cfg.FindZone(name); ok {
		return
	}
	if _, ok := v.cfg.FindIPSet(name); ok {
		return
	}
	v.addf(field, "unknown endpoint %q (not a location, zone or ipset)", name)
}
