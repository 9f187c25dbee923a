package tables

import (
	"errors"
	"fmt"

	"grimm.is/ruleforge/internal/rules"
)

var ErrUserChainPolicy = errors.New("user chains have no policy")

// Chain is a named, ordered sequence of rules.
type Chain struct {
	name    string
	comment string
	policy  string
	builtin bool
	origin  rules.Origin
	rules   []rules.Renderable
}

// NewUserChain returns a user defined chain.
func NewUserChain(name, comment string, rs ...rules.Renderable) *Chain {
	return &Chain{name: name, comment: comment, rules: append([]rules.Renderable(nil), rs...)}
}

// NewBuiltinChain returns a kernel chain with a default policy.
func NewBuiltinChain(name, policy string, rs ...rules.Renderable) *Chain {
	return &Chain{name: name, policy: policy, builtin: true, rules: append([]rules.Renderable(nil), rs...)}
}

func (c *Chain) Name() string         { return c.name }
func (c *Chain) Comment() string      { return c.comment }
func (c *Chain) Policy() string       { return c.policy }
func (c *Chain) IsBuiltin() bool      { return c.builtin }
func (c *Chain) Origin() rules.Origin { return c.origin }
func (c *Chain) Len() int             { return len(c.rules) }

// SetComment replaces the chain comment.
func (c *Chain) SetComment(comment string) {
	c.comment = comment
}

// SetOrigin records where the chain was declared.
func (c *Chain) SetOrigin(origin rules.Origin) {
	c.origin = origin
}

// SetPolicy changes the default policy of a builtin chain.
func (c *Chain) SetPolicy(policy string) error {
	if !c.builtin {
		return fmt.Errorf("%w: %s", ErrUserChainPolicy, c.name)
	}
	c.policy = policy
	return nil
}

// Append adds rules at the end of the chain.
func (c *Chain) Append(rs ...rules.Renderable) {
	c.rules = append(c.rules, rs...)
}

// Rules returns the chain's rules in order.
func (c *Chain) Rules() []rules.Renderable {
	return append([]rules.Renderable(nil), c.rules...)
}

func (c *Chain) kind() string {
	if c.builtin {
		return "Builtin Chain"
	}
	return "User Chain"
}

func (c *Chain) declare(b *ScriptBuilder) {
	if c.builtin {
		b.AddChain(c.name, c.policy)
		return
	}
	b.AddChain(c.name, "")
}

func (c *Chain) render(b *ScriptBuilder) error {
	b.AddComment(fmt.Sprintf("%s %q%s", c.kind(), c.name, originSuffix(c.origin)))
	if c.comment != "" {
		b.AddComment(c.comment)
	}
	if len(c.rules) == 0 {
		b.AddComment("No rules")
		return nil
	}
	for _, r := range c.rules {
		st, err := r.Statements()
		if err != nil {
			return rules.WithPath(rules.WithPath(err, rules.DescribeRule(r)), c.name)
		}
		b.AddLine(rules.Header(r))
		for _, s := range st {
			b.AddRule(c.name, s)
		}
	}
	return nil
}

// JumpTo returns a rule jumping to c. The comment defaults to the
// chain's comment.
func JumpTo(c *Chain, kwargs rules.Kwargs, opts ...rules.Option) *rules.Rule {
	all := append([]rules.Option{rules.WithComment(c.comment)}, opts...)
	return rules.Jump(c.name, kwargs, all...)
}

func originSuffix(o rules.Origin) string {
	if o.IsZero() {
		return ""
	}
	return " (" + o.String() + ")"
}
