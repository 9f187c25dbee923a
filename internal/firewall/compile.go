package firewall

import (
	"fmt"
	"strings"

	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/policy"
	"grimm.is/ruleforge/internal/rules"
	"grimm.is/ruleforge/internal/tables"
)

type compiler struct {
	cfg   *config.Config
	marks *rules.MarkAllocator
}

// Compile turns a validated definition into tables. The default filter,
// nat and mangle tables are always present so a restore resets chains
// the definition does not mention. seed drives allocation of marks
// left unset in the definition.
func Compile(cfg *config.Config, seed uint64) (*tables.Tables, error) {
	c := &compiler{cfg: cfg, marks: rules.NewMarkAllocator(seed)}
	if err := c.reserveMarks(); err != nil {
		return nil, err
	}

	ts := tables.Default()
	ts.SetOrigin(rules.Origin{File: cfg.Source})

	for i := range cfg.Chains {
		ch := &cfg.Chains[i]
		t, ok := ts.Table(ch.Table)
		if !ok {
			t = ts.Append(tables.NewTable(ch.Table))
			t.SetOrigin(rules.Origin{File: cfg.Source})
		}
		if err := c.chain(t, ch); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (c *compiler) reserveMarks() error {
	seen := map[int]bool{}
	for _, ch := range c.cfg.Chains {
		for _, r := range ch.Rules {
			if (r.Kind != config.KindMark && r.Kind != config.KindMarked) || r.Mark == 0 || seen[r.Mark] {
				continue
			}
			seen[r.Mark] = true
			if err := c.marks.Reserve(r.Mark); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) chain(t *tables.Table, ch *config.Chain) error {
	origin := ch.Origin(c.cfg.Source)

	var out *tables.Chain
	if tables.IsBuiltin(ch.Table, ch.Name) {
		existing, ok := t.Chain(ch.Name)
		if !ok {
			existing = t.Append(tables.NewBuiltinChain(ch.Name, "ACCEPT"))
		}
		out = existing
		if ch.Policy != "" {
			if err := out.SetPolicy(strings.ToUpper(ch.Policy)); err != nil {
				return fmt.Errorf("%s: %w", origin, err)
			}
		}
		if ch.Comment != "" {
			out.SetComment(ch.Comment)
		}
	} else {
		if ch.Policy != "" {
			return fmt.Errorf("%s: %w: %s", origin, tables.ErrUserChainPolicy, ch.Name)
		}
		out = t.Append(tables.NewUserChain(ch.Name, ch.Comment))
	}
	out.SetOrigin(origin)

	for i := range ch.Rules {
		r, err := c.rule(ch, i)
		if err != nil {
			return err
		}
		out.Append(r)
	}
	return nil
}

func (c *compiler) rule(ch *config.Chain, i int) (rules.Renderable, error) {
	r := &ch.Rules[i]
	origin := r.Origin(c.cfg.Source, ch, i)

	var matches []*rules.ArgumentList
	for j := range r.Matches {
		matches = append(matches, r.Matches[j].Fragment())
	}
	opts := []rules.Option{rules.At(origin), rules.WithComment(r.Comment), rules.WithArgs(matches...)}

	out, err := c.build(r, origin, matches, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	return out, nil
}

func (c *compiler) build(r *config.Rule, origin rules.Origin, matches []*rules.ArgumentList, opts []rules.Option) (rules.Renderable, error) {
	switch r.Kind {
	case config.KindForward, config.KindInput:
		spec, err := c.spec(r, origin, matches)
		if err != nil {
			return nil, err
		}
		if r.Kind == config.KindInput {
			return policy.NewInputRule(spec)
		}
		return policy.NewForwardingRule(spec)

	case config.KindRaw:
		return rules.New(r.Kwargs(), opts...), nil

	case config.KindCustom:
		if strings.TrimSpace(r.Text) == "" {
			return nil, rules.ErrEmptyRule
		}
		return rules.NewCustom(r.Text, opts...), nil

	case config.KindJump:
		if r.Goto {
			return rules.Goto(r.Target, r.Kwargs(), opts...), nil
		}
		return rules.Jump(r.Target, r.Kwargs(), opts...), nil

	case config.KindMark:
		if r.Mark == 0 {
			return c.marks.Next(r.Kwargs(), opts...)
		}
		return rules.Mark(r.Mark, r.Kwargs(), opts...), nil

	case config.KindMarked:
		kw := r.Kwargs()
		if r.Policy != "" {
			p, err := policy.Parse(r.Policy)
			if err != nil {
				return nil, err
			}
			if p != policy.None {
				kw["jump"] = string(p)
			}
		}
		return rules.Marked(r.Mark, kw, opts...), nil
	}
	return nil, fmt.Errorf("unknown rule kind %q", r.Kind)
}

func (c *compiler) spec(r *config.Rule, origin rules.Origin, matches []*rules.ArgumentList) (policy.Spec, error) {
	spec := policy.Spec{Policy: r.Policy, Comment: r.Comment, Origin: origin}

	var err error
	if spec.Sources, err = c.endpoints(r.From); err != nil {
		return spec, err
	}
	if spec.Destinations, err = c.endpoints(r.To); err != nil {
		return spec, err
	}
	if spec.Channels, err = c.channels(r.Channels); err != nil {
		return spec, err
	}
	if len(r.Args) > 0 {
		spec.Args = append(spec.Args, rules.NewArgumentList(r.Kwargs()))
	}
	spec.Args = append(spec.Args, matches...)
	if r.Log {
		spec.Log = &policy.Logging{ID: r.LogID}
	}
	return spec, nil
}

// endpoints resolves names to locations, then zones, then ipsets.
func (c *compiler) endpoints(names []string) ([]policy.Endpoint, error) {
	var out []policy.Endpoint
	for _, name := range names {
		if l, ok := c.cfg.FindLocation(name); ok {
			locs, err := c.location(l)
			if err != nil {
				return nil, err
			}
			for _, loc := range locs {
				out = append(out, loc)
			}
			continue
		}
		if z, ok := c.cfg.FindZone(name); ok {
			out = append(out, zone(z))
			continue
		}
		if s, ok := c.cfg.FindIPSet(name); ok {
			out = append(out, &policy.IPSet{Name: s.Name})
			continue
		}
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	return out, nil
}

func (c *compiler) location(l *config.Location) ([]*policy.Location, error) {
	var z *policy.Zone
	if l.Zone != "" {
		cz, ok := c.cfg.FindZone(l.Zone)
		if !ok {
			return nil, fmt.Errorf("location %s: unknown zone %q", l.Name, l.Zone)
		}
		z = zone(cz)
	}
	if strings.TrimSpace(l.Hosts) == "" {
		loc, err := policy.NewLocation(l.Name, z, nil)
		if err != nil {
			return nil, err
		}
		return []*policy.Location{loc}, nil
	}
	return policy.LocationsFromIPList(l.Name, z, l.Hosts)
}

func zone(z *config.Zone) *policy.Zone {
	return &policy.Zone{Name: z.Name, Interface: z.Interface, PhysDev: z.PhysDev}
}

// channels resolves names to configured channels, then built-in services.
func (c *compiler) channels(names []string) ([]*policy.Channel, error) {
	var out []*policy.Channel
	for _, name := range names {
		if ch, ok := c.cfg.FindChannel(name); ok {
			pc, err := channel(ch)
			if err != nil {
				return nil, fmt.Errorf("channel %s: %w", name, err)
			}
			out = append(out, pc)
			continue
		}
		if svc := policy.GetService(name); svc != nil {
			out = append(out, svc.Channels("")...)
			continue
		}
		return nil, fmt.Errorf("unknown channel %q", name)
	}
	return out, nil
}

func channel(ch *config.Channel) (*policy.Channel, error) {
	proto := strings.ToLower(ch.Protocol)
	kw := rules.Kwargs{}
	if ch.ICMPType != "" {
		if proto == "icmpv6" {
			kw["icmpv6_type"] = ch.ICMPType
		} else {
			kw["icmp_type"] = ch.ICMPType
		}
	}
	pc := policy.NewChannel(proto, kw).WithStates(ch.States)
	if ch.SPorts == "" && ch.DPorts == "" {
		return pc, nil
	}
	return pc.WithPorts(ch.SPorts, ch.DPorts)
}
