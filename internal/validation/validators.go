// Package validation checks names and addresses before they are placed
// into rendered iptables statements.
package validation

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// Valid interface name: alphanumeric, dash, underscore, dot (for VLANs), max 15 chars.
	// A trailing '+' is the iptables interface wildcard.
	interfaceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,15}\+?$`)

	// Valid identifier: alphanumeric, dash, underscore
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// Chain names are limited to 28 characters by the kernel.
	chainNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,28}$`)

	// Dangerous characters that should never appear in identifiers
	dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}

	// Tables known to iptables-restore.
	Tables = []string{"filter", "nat", "mangle", "raw", "security"}

	// Families supported by the restore binaries.
	Families = []string{"ipv4", "ipv6"}
)

// ValidateInterfaceName validates a network interface name
func ValidateInterfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("interface name cannot be empty")
	}

	if len(strings.TrimSuffix(name, "+")) > 15 {
		return fmt.Errorf("interface name too long (max 15 characters): %s", name)
	}

	if !interfaceNameRegex.MatchString(name) {
		return fmt.Errorf("invalid interface name: %s (must be alphanumeric with -_.)", name)
	}

	return nil
}

// ValidateIdentifier validates a general identifier (zone names, channel names, etc.)
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > 255 {
		return fmt.Errorf("identifier too long (max 255 characters)")
	}

	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier: %s (must be alphanumeric with -_)", id)
	}

	return nil
}

// ValidateChainName validates a user or builtin chain name.
func ValidateChainName(name string) error {
	if name == "" {
		return fmt.Errorf("chain name cannot be empty")
	}
	if !chainNameRegex.MatchString(name) {
		return fmt.Errorf("invalid chain name: %s (max 28 characters, alphanumeric with -_.)", name)
	}
	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("chain name contains dangerous character: %s", char)
		}
	}
	return nil
}

// ValidateTableName validates an iptables table name.
func ValidateTableName(name string) error {
	if err := ValidateAllowlist(name, Tables); err != nil {
		return fmt.Errorf("invalid table: %s (must be one of: %s)", name, strings.Join(Tables, ", "))
	}
	return nil
}

// ValidateIPOrCIDR validates an IP address or CIDR range
func ValidateIPOrCIDR(s string) error {
	if s == "" {
		return fmt.Errorf("IP/CIDR cannot be empty")
	}

	// Try parsing as CIDR first
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		if err != nil {
			return fmt.Errorf("invalid CIDR: %w", err)
		}
		return nil
	}

	// Try parsing as IP
	ip := net.ParseIP(s)
	if ip == nil {
		return fmt.Errorf("invalid IP address: %s", s)
	}

	return nil
}

// ValidateIPRange validates a "first-last" address range of one family.
func ValidateIPRange(s string) error {
	first, last, ok := strings.Cut(s, "-")
	if !ok {
		return fmt.Errorf("invalid IP range: %s (expected first-last)", s)
	}
	a, b := net.ParseIP(strings.TrimSpace(first)), net.ParseIP(strings.TrimSpace(last))
	if a == nil || b == nil {
		return fmt.Errorf("invalid IP range: %s", s)
	}
	if (a.To4() == nil) != (b.To4() == nil) {
		return fmt.Errorf("IP range mixes address families: %s", s)
	}
	return nil
}

// ValidateHost validates one host token: an address, a CIDR or a range.
func ValidateHost(s string) error {
	if strings.Contains(s, "-") {
		return ValidateIPRange(s)
	}
	return ValidateIPOrCIDR(s)
}

// ValidateAllowlist checks if a value is in an allowed list
func ValidateAllowlist(value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("value not in allowlist: %s", value)
}

// ValidatePortNumber validates a port number
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", port)
	}
	return nil
}

// ValidatePortSpec validates a multiport list such as "22,80,8000-8080".
// Both '-' and ':' are accepted as range separators.
func ValidatePortSpec(spec string) error {
	spec = strings.ReplaceAll(spec, " ", "")
	if spec == "" {
		return fmt.Errorf("port list cannot be empty")
	}
	for _, item := range strings.Split(spec, ",") {
		bounds := strings.FieldsFunc(item, func(r rune) bool { return r == '-' || r == ':' })
		if len(bounds) == 0 || len(bounds) > 2 {
			return fmt.Errorf("invalid port item: %q", item)
		}
		prev := 0
		for _, bound := range bounds {
			port, err := strconv.Atoi(bound)
			if err != nil {
				return fmt.Errorf("invalid port item: %q", item)
			}
			if err := ValidatePortNumber(port); err != nil {
				return err
			}
			if port < prev {
				return fmt.Errorf("descending port range: %q", item)
			}
			prev = port
		}
	}
	return nil
}

// ValidateProtocol validates a protocol name
func ValidateProtocol(proto string) error {
	validProtocols := []string{"tcp", "udp", "udplite", "sctp", "dccp", "icmp", "icmpv6", "ah", "esp", "gre", "all"}
	proto = strings.ToLower(proto)

	if slices.Contains(validProtocols, proto) {
		return nil
	}

	return fmt.Errorf("invalid protocol: %s (must be one of: %s)", proto, strings.Join(validProtocols, ", "))
}
