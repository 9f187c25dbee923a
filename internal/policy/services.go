package policy

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// Protocol is a bitmask of network protocols.
type Protocol uint8

const (
	ProtoTCP  Protocol = 1 << iota // TCP protocol
	ProtoUDP                       // UDP protocol
	ProtoICMP                      // ICMP protocol
)

// Common protocol combinations
const (
	ProtoTCPUDP = ProtoTCP | ProtoUDP // Both TCP and UDP (e.g., DNS)
)

// String returns a human-readable protocol name.
func (p Protocol) String() string {
	var parts []string
	if p&ProtoTCP != 0 {
		parts = append(parts, "tcp")
	}
	if p&ProtoUDP != 0 {
		parts = append(parts, "udp")
	}
	if p&ProtoICMP != 0 {
		parts = append(parts, "icmp")
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, "+")
}

// Service is a well-known application protocol that expands into one
// channel per transport protocol.
type Service struct {
	Name        string
	Description string
	Protocol    Protocol

	Port    int   // Single port or start of range
	EndPort int   // End of port range (0 = single port)
	Ports   []int // Alternative: multiple ports

	ICMPType string
}

// portSpec renders the destination ports in multiport syntax.
func (s *Service) portSpec() string {
	if len(s.Ports) > 0 {
		ports := make([]string, len(s.Ports))
		for i, p := range s.Ports {
			ports[i] = strconv.Itoa(p)
		}
		return strings.Join(ports, ",")
	}
	if s.Port > 0 {
		if s.EndPort > s.Port {
			return fmt.Sprintf("%d:%d", s.Port, s.EndPort)
		}
		return strconv.Itoa(s.Port)
	}
	return ""
}

// Channels returns the channels implementing s, optionally restricted
// to conntrack states.
func (s *Service) Channels(states string) []*Channel {
	var out []*Channel
	ports := s.portSpec()
	if s.Protocol&ProtoTCP != 0 {
		out = append(out, TCP(PortSpec{States: states, DestPorts: ports}))
	}
	if s.Protocol&ProtoUDP != 0 {
		out = append(out, UDP(PortSpec{States: states, DestPorts: ports}))
	}
	if s.Protocol&ProtoICMP != 0 {
		out = append(out, ICMP(s.ICMPType, states))
	}
	return out
}

// BuiltinServices is the registry of built-in services.
var BuiltinServices = map[string]*Service{
	"dns":    {Name: "dns", Description: "Domain Name System", Protocol: ProtoTCPUDP, Port: 53},
	"ntp":    {Name: "ntp", Description: "Network Time Protocol", Protocol: ProtoUDP, Port: 123},
	"ssh":    {Name: "ssh", Description: "Secure Shell", Protocol: ProtoTCP, Port: 22},
	"ping":   {Name: "ping", Description: "ICMP echo request", Protocol: ProtoICMP, ICMPType: "echo-request"},
	"icmp":   {Name: "icmp", Description: "Internet Control Message Protocol", Protocol: ProtoICMP},
	"snmp":   {Name: "snmp", Description: "Simple Network Management Protocol", Protocol: ProtoUDP, Port: 161},
	"syslog": {Name: "syslog", Description: "System Logging", Protocol: ProtoUDP, Port: 514},
	"http":   {Name: "http", Description: "HTTP Web Traffic", Protocol: ProtoTCP, Port: 80},
	"https":  {Name: "https", Description: "HTTPS Secure Web Traffic", Protocol: ProtoTCP, Port: 443},
	"web":    {Name: "web", Description: "Web (HTTP + HTTPS)", Protocol: ProtoTCP, Ports: []int{80, 443}},
	"dhcp":   {Name: "dhcp", Description: "Dynamic Host Configuration Protocol", Protocol: ProtoUDP, Ports: []int{67, 68}},
	"mdns":   {Name: "mdns", Description: "Multicast DNS", Protocol: ProtoUDP, Port: 5353},
	"smtp":   {Name: "smtp", Description: "Simple Mail Transfer Protocol", Protocol: ProtoTCP, Ports: []int{25, 465, 587}},
	"imap":   {Name: "imap", Description: "Internet Message Access Protocol", Protocol: ProtoTCP, Ports: []int{143, 993}},
	"ftp":    {Name: "ftp", Description: "File Transfer Protocol", Protocol: ProtoTCP, Port: 21},
	"tftp":   {Name: "tftp", Description: "Trivial File Transfer Protocol", Protocol: ProtoUDP, Port: 69},
	"vnc":    {Name: "vnc", Description: "Virtual Network Computing", Protocol: ProtoTCP, Port: 5900, EndPort: 5910},
}

// GetService looks up a service by name.
// It checks:
// 1. Built-in services
// 2. System services (/etc/services)
func GetService(name string) *Service {
	if svc, ok := BuiltinServices[name]; ok {
		return svc
	}

	if port, err := net.LookupPort("tcp", name); err == nil {
		return &Service{Name: name, Description: "System service (TCP)", Protocol: ProtoTCP, Port: port}
	}
	if port, err := net.LookupPort("udp", name); err == nil {
		return &Service{Name: name, Description: "System service (UDP)", Protocol: ProtoUDP, Port: port}
	}
	return nil
}

// ServiceNames returns the built-in service names, sorted.
func ServiceNames() []string {
	names := make([]string, 0, len(BuiltinServices))
	for name := range BuiltinServices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
