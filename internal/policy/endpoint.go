package policy

import (
	"errors"
	"fmt"

	"grimm.is/ruleforge/internal/rules"
)

var ErrEmptyLocation = errors.New("location needs a zone or hosts")

// Endpoint contributes the match arguments for one side of a route.
type Endpoint interface {
	// AsInput matches packets coming from the endpoint.
	AsInput() *rules.ArgumentList
	// AsOutput matches packets going to the endpoint.
	AsOutput() *rules.ArgumentList
	String() string
}

// Zone is a network reachable through an interface, optionally narrowed
// to a bridge port.
type Zone struct {
	Name      string
	Interface string
	PhysDev   string
}

func (z *Zone) AsInput() *rules.ArgumentList {
	return z.fragment("in_interface", "physdev_in")
}

func (z *Zone) AsOutput() *rules.ArgumentList {
	return z.fragment("out_interface", "physdev_out")
}

func (z *Zone) fragment(ifaceKey, physKey string) *rules.ArgumentList {
	var nested []*rules.ArgumentList
	if z.PhysDev != "" {
		nested = append(nested, rules.Match("physdev", rules.Kwargs{physKey: z.PhysDev}))
	}
	kw := rules.Kwargs{}
	if z.Interface != "" {
		kw[ifaceKey] = z.Interface
	}
	return rules.NewArgumentList(kw, nested...)
}

func (z *Zone) String() string {
	return z.Name
}

// IPSet matches addresses stored in a kernel ipset.
type IPSet struct {
	Name string
}

func (s *IPSet) AsInput() *rules.ArgumentList {
	return rules.Match("set", rules.Kwargs{"match_set": []string{s.Name, "src"}})
}

func (s *IPSet) AsOutput() *rules.ArgumentList {
	return rules.Match("set", rules.Kwargs{"match_set": []string{s.Name, "dst"}})
}

func (s *IPSet) String() string {
	return s.Name
}

// Location is a named combination of a zone and host addresses. Without
// hosts it stands for the whole zone; without a zone it matches the
// hosts on any interface.
type Location struct {
	Name  string
	Zone  *Zone
	Hosts Hosts
}

// NewLocation returns a location; at least one of zone and hosts must be
// set.
func NewLocation(name string, zone *Zone, hosts Hosts) (*Location, error) {
	if zone == nil && hosts == nil {
		return nil, fmt.Errorf("%w: %q", ErrEmptyLocation, name)
	}
	return &Location{Name: name, Zone: zone, Hosts: hosts}, nil
}

// LocationsFromIPList returns one location per fragment of ips, all
// sharing name and zone.
func LocationsFromIPList(name string, zone *Zone, ips string) ([]*Location, error) {
	hosts := HostsFromIPList(ips)
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: %q has no addresses", ErrEmptyLocation, name)
	}
	out := make([]*Location, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, &Location{Name: name, Zone: zone, Hosts: h})
	}
	return out, nil
}

func (l *Location) AsInput() *rules.ArgumentList {
	var parts []*rules.ArgumentList
	if l.Zone != nil {
		parts = append(parts, l.Zone.AsInput())
	}
	if l.Hosts != nil {
		parts = append(parts, l.Hosts.AsInput())
	}
	return rules.NewArgumentList(nil, parts...)
}

func (l *Location) AsOutput() *rules.ArgumentList {
	var parts []*rules.ArgumentList
	if l.Zone != nil {
		parts = append(parts, l.Zone.AsOutput())
	}
	if l.Hosts != nil {
		parts = append(parts, l.Hosts.AsOutput())
	}
	return rules.NewArgumentList(nil, parts...)
}

func (l *Location) String() string {
	if l.Hosts == nil {
		return l.Name
	}
	zone := "Anywhere"
	if l.Zone != nil {
		zone = l.Zone.Name
	}
	return zone + ": " + l.Name
}
