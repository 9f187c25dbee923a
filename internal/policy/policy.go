package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"grimm.is/ruleforge/internal/rules"
)

// Policy is the disposition applied by an expanded rule.
type Policy string

const (
	Accept   Policy = "ACCEPT"
	Drop     Policy = "DROP"
	Reject   Policy = "REJECT"
	Return   Policy = "RETURN"
	Redirect Policy = "REDIRECT"
	Log      Policy = "LOG"
	// None emits no terminal rule; only logging or matching rules remain.
	None Policy = "NONE"
)

// Policies lists every valid policy.
var Policies = []Policy{Accept, Drop, Reject, Return, Redirect, Log, None}

var ErrInvalidPolicy = errors.New("invalid policy")

// Parse resolves a policy name, ignoring case.
func Parse(name string) (Policy, error) {
	p := Policy(strings.ToUpper(strings.TrimSpace(name)))
	if slices.Contains(Policies, p) {
		return p, nil
	}
	names := make([]string, len(Policies))
	for i, v := range Policies {
		names[i] = string(v)
	}
	return "", fmt.Errorf("%w: %q, policy must be one of %s", ErrInvalidPolicy, name, strings.Join(names, ", "))
}

// Rule returns the built-in terminal rule for p, or nil for None.
func (p Policy) Rule() *rules.Rule {
	switch p {
	case Accept:
		return rules.Accept
	case Drop:
		return rules.Drop
	case Reject:
		return rules.Reject
	case Return:
		return rules.Return
	case Redirect:
		return rules.Redirect
	case Log:
		return rules.Log
	default:
		return nil
	}
}

// Initial is the first letter of the policy, used in log prefixes.
func (p Policy) Initial() string {
	if p == "" {
		return ""
	}
	return string(p)[:1]
}
