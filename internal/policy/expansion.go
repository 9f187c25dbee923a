package policy

import (
	"errors"
	"fmt"
	"strings"

	"grimm.is/ruleforge/internal/rules"
)

var ErrInputDestinations = errors.New("input rules cannot have destinations")

// Logging requests a LOG rule ahead of the terminal rule. The log prefix
// is "<direction> <ID> <policy initial>".
type Logging struct {
	ID string
	// Template is derived for the log rule; nil means rules.Log.
	Template *rules.Rule
}

// Spec declares what an expansion rule should match.
type Spec struct {
	Policy       string
	Sources      []Endpoint
	Destinations []Endpoint
	Channels     []*Channel
	// Args are merged into every expanded rule as one combined fragment.
	Args    []*rules.ArgumentList
	Log     *Logging
	Comment string
	Origin  rules.Origin
}

type expansion struct {
	rules.Base
	policy       Policy
	logPrefix    string
	sources      []Endpoint
	destinations []Endpoint
	channels     []*Channel
	args         []*rules.ArgumentList
	log          *Logging
}

func newExpansion(spec Spec, logPrefix string) (expansion, error) {
	p, err := Parse(spec.Policy)
	if err != nil {
		return expansion{}, err
	}
	return expansion{
		Base:         rules.NewBase(spec.Comment, spec.Origin),
		policy:       p,
		logPrefix:    logPrefix,
		sources:      append([]Endpoint(nil), spec.Sources...),
		destinations: append([]Endpoint(nil), spec.Destinations...),
		channels:     append([]*Channel(nil), spec.Channels...),
		args:         append([]*rules.ArgumentList(nil), spec.Args...),
		log:          spec.Log,
	}, nil
}

// Policy returns the resolved policy.
func (e *expansion) Policy() Policy {
	return e.policy
}

// Expand returns the concrete rules in output order: base rules
// outermost, then routes, then channels, then extra arguments.
func (e *expansion) Expand() []*rules.Rule {
	rs := e.baseRules()
	rs = e.addRoutes(rs)
	rs = e.addChannels(rs)
	return e.addArgs(rs)
}

func (e *expansion) Statements() ([]string, error) {
	var out []string
	for _, r := range e.Expand() {
		st, err := r.Statements()
		if err != nil {
			return nil, rules.WithPath(err, rules.DescribeRule(r))
		}
		out = append(out, st...)
	}
	return out, nil
}

func (e *expansion) baseRules() []*rules.Rule {
	var out []*rules.Rule
	at := rules.At(e.Origin())
	if e.log != nil {
		tmpl := e.log.Template
		if tmpl == nil {
			tmpl = rules.Log
		}
		prefix := joinFields(e.logPrefix, e.log.ID, e.policy.Initial())
		out = append(out, tmpl.Derive(rules.Kwargs{"log_prefix": prefix}, rules.WithComment(e.Comment()), at))
	}
	if terminal := e.policy.Rule(); terminal != nil {
		out = append(out, terminal.Derive(nil, rules.WithComment(e.Comment()), at))
	}
	return out
}

func (e *expansion) addRoutes(in []*rules.Rule) []*rules.Rule {
	if len(e.sources) == 0 && len(e.destinations) == 0 {
		return in
	}

	var out []*rules.Rule
	for _, r := range in {
		switch {
		case len(e.sources) == 0:
			for _, dst := range e.destinations {
				out = append(out, r.Derive(nil,
					rules.WithArgs(dst.AsOutput()),
					rules.WithComment(describe(r.Comment(), ": ", fmt.Sprintf("route any -> %s", dst)))))
			}
		case len(e.destinations) == 0:
			for _, src := range e.sources {
				out = append(out, r.Derive(nil,
					rules.WithArgs(src.AsInput()),
					rules.WithComment(describe(r.Comment(), ": ", fmt.Sprintf("route %s -> any", src)))))
			}
		default:
			for _, src := range e.sources {
				for _, dst := range e.destinations {
					out = append(out, r.Derive(nil,
						rules.WithArgs(src.AsInput(), dst.AsOutput()),
						rules.WithComment(describe(r.Comment(), ": ", fmt.Sprintf("route %s -> %s", src, dst)))))
				}
			}
		}
	}
	return out
}

func (e *expansion) addChannels(in []*rules.Rule) []*rules.Rule {
	if len(e.channels) == 0 {
		return in
	}
	var out []*rules.Rule
	for _, r := range in {
		for _, ch := range e.channels {
			out = append(out, r.Derive(nil,
				rules.WithArgs(ch.Arguments()),
				rules.WithComment(describe(r.Comment(), ", ", "channel "+ch.String()))))
		}
	}
	return out
}

func (e *expansion) addArgs(in []*rules.Rule) []*rules.Rule {
	if len(e.args) == 0 {
		return in
	}
	names := make([]string, len(e.args))
	for i, a := range e.args {
		names[i] = a.String()
	}
	plus := "plus " + strings.Join(names, ", ")

	out := make([]*rules.Rule, 0, len(in))
	for _, r := range in {
		out = append(out, r.Derive(nil,
			rules.WithArgs(e.args...),
			rules.WithComment(describe(r.Comment(), ", ", plus))))
	}
	return out
}

// describe appends detail to a generated comment.
func describe(comment, sep, detail string) string {
	if comment == "" {
		return detail
	}
	return comment + sep + detail
}

func joinFields(fields ...string) string {
	var out []string
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// ForwardingRule expands a policy across sources, destinations and
// channels of forwarded traffic.
type ForwardingRule struct {
	expansion
}

// NewForwardingRule validates spec and returns the rule. An unknown
// policy fails here, before anything is rendered.
func NewForwardingRule(spec Spec) (*ForwardingRule, error) {
	e, err := newExpansion(spec, "FWD")
	if err != nil {
		return nil, err
	}
	return &ForwardingRule{expansion: e}, nil
}

func (r *ForwardingRule) String() string {
	return fmt.Sprintf("forward %s (%d rules)", r.policy, len(r.Expand()))
}

// InputRule expands a policy across the sources and channels of traffic
// addressed to the host itself.
type InputRule struct {
	expansion
}

// NewInputRule validates spec and returns the rule. Destinations are
// not allowed.
func NewInputRule(spec Spec) (*InputRule, error) {
	if len(spec.Destinations) > 0 {
		return nil, ErrInputDestinations
	}
	e, err := newExpansion(spec, "IN")
	if err != nil {
		return nil, err
	}
	return &InputRule{expansion: e}, nil
}

func (r *InputRule) String() string {
	return fmt.Sprintf("input %s (%d rules)", r.policy, len(r.Expand()))
}
