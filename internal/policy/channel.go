package policy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"grimm.is/ruleforge/internal/rules"
)

var ErrPortsUnsupported = errors.New("protocol does not carry ports")

// Protocols that accept --sport/--dport style matches.
var portProtocols = []string{"tcp", "udp", "udplite", "sctp", "dccp"}

var protoDeclaration = rules.Declaration{Short: "p", Long: "proto", Invertible: true}

// Channel is a reusable bundle of protocol level match criteria.
// Specializations are built by composition: WithStates adds a conntrack
// match, WithPorts a multiport match.
type Channel struct {
	args *rules.ArgumentList
}

// NewChannel returns a channel matching proto plus any extra keywords.
// An empty proto matches every protocol.
func NewChannel(proto string, kwargs rules.Kwargs, nested ...*rules.ArgumentList) *Channel {
	kw := kwargs.Clone()
	if proto != "" {
		kw["proto"] = proto
	}
	return &Channel{args: rules.NewDeclaredList([]rules.Declaration{protoDeclaration}, kw, nested...)}
}

// WithStates returns a copy of c also matching conntrack states, e.g.
// "NEW,ESTABLISHED".
func (c *Channel) WithStates(states string) *Channel {
	states = stripSpaces(states)
	if states == "" {
		return c
	}
	return &Channel{args: c.args.Derive(nil, rules.Match("conntrack", rules.Kwargs{"ctstate": states}))}
}

// WithPorts returns a copy of c also matching source and destination
// ports. Port specs are multiport lists; "a-b" ranges are rewritten to
// "a:b".
func (c *Channel) WithPorts(sports, dports string) (*Channel, error) {
	if !slices.Contains(portProtocols, c.Protocol()) {
		return nil, fmt.Errorf("%w: %q", ErrPortsUnsupported, c.Protocol())
	}
	return c.withPorts(sports, dports), nil
}

func (c *Channel) withPorts(sports, dports string) *Channel {
	kw := rules.Kwargs{}
	if p := normalizePorts(dports); p != "" {
		kw["dports"] = p
	}
	if p := normalizePorts(sports); p != "" {
		kw["sports"] = p
	}
	if len(kw) == 0 {
		return c
	}
	return &Channel{args: c.args.Derive(nil, rules.Match("multiport", kw))}
}

// PortSpec selects ports and states for TCP and UDP channels.
type PortSpec struct {
	States      string
	SourcePorts string
	DestPorts   string
}

// TCP returns a TCP channel.
func TCP(spec PortSpec) *Channel {
	return NewChannel("tcp", nil).WithStates(spec.States).withPorts(spec.SourcePorts, spec.DestPorts)
}

// UDP returns a UDP channel.
func UDP(spec PortSpec) *Channel {
	return NewChannel("udp", nil).WithStates(spec.States).withPorts(spec.SourcePorts, spec.DestPorts)
}

// ICMP returns an ICMP channel. An empty icmpType matches every type.
func ICMP(icmpType, states string) *Channel {
	kw := rules.Kwargs{}
	if icmpType != "" {
		kw["icmp_type"] = icmpType
	}
	return NewChannel("icmp", kw).WithStates(states)
}

// Arguments returns the fragment merged into rules using c.
func (c *Channel) Arguments() *rules.ArgumentList {
	return c.args
}

// Protocol returns the matched protocol, or "" if unrestricted.
func (c *Channel) Protocol() string {
	v, _ := c.lookup("p")
	return v
}

func (c *Channel) lookup(name string) (string, bool) {
	arg, err := c.args.Get(name)
	if err != nil {
		return "", false
	}
	return rules.FormatValue(arg.Value()), true
}

// String describes the channel, e.g. "tcp, NEW, ports any -> 22".
func (c *Channel) String() string {
	proto := c.Protocol()
	desc := proto
	if desc == "" {
		desc = "any"
	}
	if states, ok := c.lookup("ctstate"); ok {
		desc += ", " + states
	}
	if c.args.Contains("sports") || c.args.Contains("dports") {
		sports, ok := c.lookup("sports")
		if !ok {
			sports = "any"
		}
		dports, ok := c.lookup("dports")
		if !ok {
			dports = "any"
		}
		desc += fmt.Sprintf(", ports %s -> %s", sports, dports)
	}
	if proto == "icmp" {
		icmpType, ok := c.lookup("icmp_type")
		if !ok {
			icmpType = "any"
		}
		desc += ", type " + icmpType
	}
	return desc
}

func normalizePorts(ports string) string {
	return strings.ReplaceAll(stripSpaces(ports), "-", ":")
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
