package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/ruleforge/internal/rules"
)

// inRule renders fragment the way an expanded rule would.
func inRule(t *testing.T, fragment *rules.ArgumentList) string {
	t.Helper()
	st, err := rules.New(nil, rules.WithArgs(fragment)).Statements()
	require.NoError(t, err)
	return st[0]
}

func TestHostsFromIPList(t *testing.T) {
	hosts := HostsFromIPList("1.1.1.1,2.2.2.2,3.1.1.1-3.2.2.2")
	require.Len(t, hosts, 2)

	list, ok := hosts[0].(*HostList)
	require.True(t, ok)
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, list.Addrs)
	assert.Equal(t, "-s 1.1.1.1,2.2.2.2", inRule(t, list.AsInput()))
	assert.Equal(t, "-d 1.1.1.1,2.2.2.2", inRule(t, list.AsOutput()))

	rng, ok := hosts[1].(*HostRange)
	require.True(t, ok)
	assert.Equal(t, "3.1.1.1-3.2.2.2", rng.Range)
	assert.Equal(t, "-m iprange --src-range 3.1.1.1-3.2.2.2", inRule(t, rng.AsInput()))
	assert.Equal(t, "-m iprange --dst-range 3.1.1.1-3.2.2.2", inRule(t, rng.AsOutput()))
}

func TestHostsFromIPListRuns(t *testing.T) {
	tests := []struct {
		name string
		ips  string
		want []string
	}{
		{name: "empty", ips: "", want: nil},
		{name: "spaces and empty entries", ips: " 10.0.0.1 , ,10.0.0.2 ", want: []string{"10.0.0.1,10.0.0.2"}},
		{name: "separate runs", ips: "a,b-c,d", want: []string{"a", "b-c", "d"}},
		{name: "ranges only", ips: "a-b,c-d", want: []string{"a-b", "c-d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, h := range HostsFromIPList(tt.ips) {
				got = append(got, h.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZone(t *testing.T) {
	z := &Zone{Name: "lan", Interface: "eth1"}
	assert.Equal(t, "-i eth1", inRule(t, z.AsInput()))
	assert.Equal(t, "-o eth1", inRule(t, z.AsOutput()))
	assert.Equal(t, "lan", z.String())

	br := &Zone{Name: "vm", Interface: "br0", PhysDev: "vnet0"}
	assert.Equal(t, "-i br0 -m physdev --physdev-in vnet0", inRule(t, br.AsInput()))
	assert.Equal(t, "-o br0 -m physdev --physdev-out vnet0", inRule(t, br.AsOutput()))
}

func TestIPSet(t *testing.T) {
	s := &IPSet{Name: "blocked"}
	assert.Equal(t, "-m set --match-set blocked src", inRule(t, s.AsInput()))
	assert.Equal(t, "-m set --match-set blocked dst", inRule(t, s.AsOutput()))
}

func TestLocation(t *testing.T) {
	lan := &Zone{Name: "lan", Interface: "eth1"}
	hosts := &HostList{Addrs: []string{"10.0.0.1"}}

	office, err := NewLocation("office", lan, hosts)
	require.NoError(t, err)
	assert.Equal(t, "lan: office", office.String())
	assert.Equal(t, "-i eth1 -s 10.0.0.1", inRule(t, office.AsInput()))
	assert.Equal(t, "-o eth1 -d 10.0.0.1", inRule(t, office.AsOutput()))

	whole, err := NewLocation("lan-all", lan, nil)
	require.NoError(t, err)
	assert.Equal(t, "lan-all", whole.String())
	assert.Equal(t, "-i eth1", inRule(t, whole.AsInput()))

	anywhere, err := NewLocation("dns", nil, hosts)
	require.NoError(t, err)
	assert.Equal(t, "Anywhere: dns", anywhere.String())
	assert.Equal(t, "-s 10.0.0.1", inRule(t, anywhere.AsInput()))

	_, err = NewLocation("nothing", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyLocation)
}

func TestLocationsFromIPList(t *testing.T) {
	lan := &Zone{Name: "lan", Interface: "eth1"}
	locs, err := LocationsFromIPList("servers", lan, "10.0.0.1,10.0.0.2,10.0.1.1-10.0.1.9")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "-i eth1 -s 10.0.0.1,10.0.0.2", inRule(t, locs[0].AsInput()))
	assert.Equal(t, "-i eth1 -m iprange --src-range 10.0.1.1-10.0.1.9", inRule(t, locs[1].AsInput()))

	_, err = LocationsFromIPList("none", lan, " , ")
	assert.ErrorIs(t, err, ErrEmptyLocation)
}
