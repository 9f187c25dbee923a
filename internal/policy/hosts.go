package policy

import (
	"strings"

	"grimm.is/ruleforge/internal/rules"
)

// Hosts is an address level Endpoint: a *HostList or a *HostRange.
type Hosts interface {
	Endpoint
	hosts()
}

// HostList matches a comma separated list of addresses or networks.
type HostList struct {
	Addrs []string
}

func (h *HostList) AsInput() *rules.ArgumentList {
	return rules.NewArgumentList(rules.Kwargs{"source": strings.Join(h.Addrs, ",")})
}

func (h *HostList) AsOutput() *rules.ArgumentList {
	return rules.NewArgumentList(rules.Kwargs{"destination": strings.Join(h.Addrs, ",")})
}

func (h *HostList) String() string { return strings.Join(h.Addrs, ",") }
func (h *HostList) hosts()         {}

// HostRange matches an inclusive "first-last" address range.
type HostRange struct {
	Range string
}

func (h *HostRange) AsInput() *rules.ArgumentList {
	return rules.Match("iprange", rules.Kwargs{"src_range": h.Range})
}

func (h *HostRange) AsOutput() *rules.ArgumentList {
	return rules.Match("iprange", rules.Kwargs{"dst_range": h.Range})
}

func (h *HostRange) String() string { return h.Range }
func (h *HostRange) hosts()         {}

// HostsFromIPList splits a comma separated address list into fragments:
// each run of consecutive plain entries becomes one HostList and each
// "a-b" entry its own HostRange. Whitespace is ignored.
func HostsFromIPList(ips string) []Hosts {
	var (
		out []Hosts
		run []string
	)
	flush := func() {
		if len(run) > 0 {
			out = append(out, &HostList{Addrs: run})
			run = nil
		}
	}

	for _, token := range strings.Split(stripSpaces(ips), ",") {
		switch {
		case token == "":
		case strings.Contains(token, "-"):
			flush()
			out = append(out, &HostRange{Range: token})
		default:
			run = append(run, token)
		}
	}
	flush()
	return out
}
