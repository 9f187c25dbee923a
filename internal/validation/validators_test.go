package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func check(t *testing.T, fn func(string) error, input string, wantErr bool) {
	t.Helper()
	err := fn(input)
	if wantErr {
		assert.Error(t, err, "input %q", input)
	} else {
		assert.NoError(t, err, "input %q", input)
	}
}

func TestValidateInterfaceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "eth0", false},
		{"with dash", "eth-0", false},
		{"with dot (vlan)", "eth0.100", false},
		{"wildcard", "ppp+", false},
		{"max length", "eth0123456789ab", false},
		{"empty", "", true},
		{"too long", "eth01234567890123", true},
		{"space", "eth 0", true},
		{"semicolon injection", "eth0;rm", true},
		{"inner plus", "et+h0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ValidateInterfaceName, tt.input, tt.wantErr)
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "lan", false},
		{"mixed", "dmz_web-1", false},
		{"empty", "", true},
		{"dot", "a.b", true},
		{"quote", `a"b`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ValidateIdentifier, tt.input, tt.wantErr)
		})
	}
}

func TestValidateChainName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"builtin", "FORWARD", false},
		{"user", "lan-to-wan", false},
		{"empty", "", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz012", true},
		{"space", "my chain", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ValidateChainName, tt.input, tt.wantErr)
		})
	}
}

func TestValidateTableName(t *testing.T) {
	for _, name := range Tables {
		assert.NoError(t, ValidateTableName(name))
	}
	assert.Error(t, ValidateTableName("broute"))
	assert.Error(t, ValidateTableName("FILTER"))
}

func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ipv4", "10.0.0.1", false},
		{"cidr", "10.0.0.0/8", false},
		{"ipv6", "fe80::1", false},
		{"range", "10.0.0.5-10.0.0.9", false},
		{"range v6", "2001:db8::1-2001:db8::9", false},
		{"bad cidr", "10.0.0.0/33", true},
		{"hostname", "example.com", true},
		{"half range", "10.0.0.5-", true},
		{"mixed family range", "10.0.0.1-::1", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ValidateHost, tt.input, tt.wantErr)
		})
	}
}

func TestValidatePortSpec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single", "22", false},
		{"list", "22,80,443", false},
		{"dash range", "8000-8080", false},
		{"colon range", "8000:8080", false},
		{"spaces", "22, 80", false},
		{"empty", "", true},
		{"zero", "0", true},
		{"too big", "65536", true},
		{"descending", "90-80", true},
		{"word", "ssh", true},
		{"triple", "1-2-3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, ValidatePortSpec, tt.input, tt.wantErr)
		})
	}
}

func TestValidateProtocol(t *testing.T) {
	assert.NoError(t, ValidateProtocol("TCP"))
	assert.NoError(t, ValidateProtocol("sctp"))
	assert.Error(t, ValidateProtocol("tcp6"))
}

func TestValidateAllowlist(t *testing.T) {
	assert.NoError(t, ValidateAllowlist("ipv4", Families))
	assert.Error(t, ValidateAllowlist("ipx", Families))
}
