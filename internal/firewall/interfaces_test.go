package firewall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingInterfaces(t *testing.T) {
	orig := linkExists
	t.Cleanup(func() { linkExists = orig })

	present := map[string]bool{"eth0": true, "lo": true}
	linkExists = func(name string) bool { return present[name] }

	assert.Equal(t, []string{"eth9"}, MissingInterfaces([]string{"eth0", "eth9", "ppp+", "lo"}))
	assert.Empty(t, MissingInterfaces(nil))
}
