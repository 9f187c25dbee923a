package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	in := `# Generated by iptables-save v1.8.9
*filter
:INPUT DROP [120:9000]
:audit - [0:0]

-A INPUT -i lo -j ACCEPT -m comment --comment 'loopback'
COMMIT
`
	want := `*filter
:INPUT DROP
:audit -
-A INPUT -i lo -m comment --comment loopback -j ACCEPT
COMMIT
`
	assert.Equal(t, want, Normalize(in))
	assert.Equal(t, "", Normalize("# only\n\n"))
}

func TestNormalizeQuoting(t *testing.T) {
	a := Normalize(`-A INPUT -m comment --comment "two words"`)
	b := Normalize(`-A INPUT -m comment --comment 'two words'`)
	assert.Equal(t, a, b)
	assert.Equal(t, "-A INPUT -m comment --comment \"two words\"\n", a)
}

func TestDiff(t *testing.T) {
	generated := "# Tables generated by RuleForge\n*filter\n:INPUT DROP [0:0]\n-A INPUT -j ACCEPT\nCOMMIT\n"

	d, err := Diff(generated, "*filter\n:INPUT DROP [5:300]\n-A INPUT -j ACCEPT\nCOMMIT\n")
	require.NoError(t, err)
	assert.Empty(t, d)

	d, err = Diff(generated, "*filter\n:INPUT ACCEPT [0:0]\nCOMMIT\n")
	require.NoError(t, err)
	assert.Contains(t, d, "--- Running")
	assert.Contains(t, d, "+++ Generated")
	assert.Contains(t, d, "-:INPUT ACCEPT")
	assert.Contains(t, d, "+:INPUT DROP")
	assert.Contains(t, d, "+-A INPUT -j ACCEPT")
}

func TestNormalizeMatchesSaveOutput(t *testing.T) {
	tests := []struct {
		name      string
		generated string
		saved     string
	}{
		{
			name:      "target before matches",
			generated: `-A FORWARD -j ACCEPT -i eth1 -o eth0 -m comment --comment "out: route lan -> wan"`,
			saved:     `-A FORWARD -i eth1 -o eth0 -m comment --comment "out: route lan -> wan" -j ACCEPT`,
		},
		{
			name:      "service ports",
			generated: `-A INPUT -j ACCEPT -i eth1 -p tcp -m multiport --dports 22 -m comment --comment "route lan -> any, channel tcp, ports any -> 22"`,
			saved:     `-A INPUT -i eth1 -p tcp -m multiport --dports 22 -m comment --comment "route lan -> any, channel tcp, ports any -> 22" -j ACCEPT`,
		},
		{
			name:      "host prefix",
			generated: "-A FORWARD -s 10.0.0.1 -j ACCEPT -i eth0",
			saved:     "-A FORWARD -s 10.0.0.1/32 -i eth0 -j ACCEPT",
		},
		{
			name:      "ipv6 host prefix",
			generated: "-A INPUT -d 2001:db8::1 -j DROP",
			saved:     "-A INPUT -d 2001:db8::1/128 -j DROP",
		},
		{
			name:      "set mark",
			generated: "-A PREROUTING -i eth0 -j MARK --set-mark 7",
			saved:     "-A PREROUTING -i eth0 -j MARK --set-xmark 0x7/0xffffffff",
		},
		{
			name:      "match mark",
			generated: "-A PREROUTING -m mark -j ACCEPT --mark 7",
			saved:     "-A PREROUTING -m mark --mark 0x7 -j ACCEPT",
		},
		{
			name:      "implicit protocol module",
			generated: "-A INPUT -p tcp --dport 22 -j ACCEPT",
			saved:     "-A INPUT -p tcp -m tcp --dport 22 -j ACCEPT",
		},
		{
			name:      "negation",
			generated: "-A INPUT -j DROP ! -i lo -m set --match-set blocklist src",
			saved:     "-A INPUT ! -i lo -m set --match-set blocklist src -j DROP",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Normalize(tt.saved), Normalize(tt.generated))

			d, err := Diff(tt.generated, tt.saved)
			require.NoError(t, err)
			assert.Empty(t, d)
		})
	}
}

func TestNormalizeKeepsDifferences(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"address", "-A FORWARD -s 10.0.0.1 -j ACCEPT", "-A FORWARD -s 10.0.0.2/32 -j ACCEPT"},
		{"network", "-A FORWARD -s 10.0.0.0/24 -j ACCEPT", "-A FORWARD -s 10.0.0.0 -j ACCEPT"},
		{"negation", "-A INPUT ! -i lo -j DROP", "-A INPUT -i lo -j DROP"},
		{"target", "-A INPUT -i lo -j DROP", "-A INPUT -i lo -j ACCEPT"},
		{"mark", "-A PREROUTING -j MARK --set-mark 7", "-A PREROUTING -j MARK --set-xmark 0x8/0xffffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Normalize(tt.a), Normalize(tt.b))
		})
	}
}

func TestDiffAfterApply(t *testing.T) {
	generated := `# Tables generated by RuleForge (fw.hcl)
*filter
:INPUT DROP [0:0]
:FORWARD DROP [0:0]
# Rule: forward
-A FORWARD -j ACCEPT -i eth1 -o eth0 -s 10.0.0.2 -m comment --comment "out: route nas -> wan"
COMMIT
*mangle
:PREROUTING ACCEPT [0:0]
-A PREROUTING -i eth0 -j MARK --set-mark 7
COMMIT
`
	saved := `# Generated by iptables-save v1.8.10 (nf_tables) on Mon Oct 19 10:00:00 2026
*filter
:INPUT DROP [12:840]
:FORWARD DROP [0:0]
-A FORWARD -s 10.0.0.2/32 -i eth1 -o eth0 -m comment --comment "out: route nas -> wan" -j ACCEPT
COMMIT
# Completed on Mon Oct 19 10:00:00 2026
*mangle
:PREROUTING ACCEPT [310:22040]
-A PREROUTING -i eth0 -j MARK --set-xmark 0x7/0xffffffff
COMMIT
`
	d, err := Diff(generated, saved)
	require.NoError(t, err)
	assert.Empty(t, d)
}
