package firewall

import (
	"errors"
	"fmt"

	"github.com/coreos/go-iptables/iptables"
	"github.com/hashicorp/go-multierror"

	"grimm.is/ruleforge/internal/tables"
)

// ErrChainMissing is reported for chains absent after an apply.
var ErrChainMissing = errors.New("chain missing after apply")

// ChainChecker reports whether a chain exists in the kernel.
// *iptables.IPTables satisfies it.
type ChainChecker interface {
	ChainExists(table, chain string) (bool, error)
}

// NewChainChecker returns a go-iptables handle for family.
func NewChainChecker(family string) (ChainChecker, error) {
	proto := iptables.ProtocolIPv4
	if family == "ipv6" {
		proto = iptables.ProtocolIPv6
	}
	ipt, err := iptables.NewWithProtocol(proto)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize iptables: %w", err)
	}
	return ipt, nil
}

// VerifyChains checks that every chain of ts exists.
func VerifyChains(checker ChainChecker, ts *tables.Tables) error {
	var result *multierror.Error
	for _, t := range ts.Tables() {
		for _, c := range t.Chains() {
			ok, err := checker.ChainExists(t.Name(), c.Name())
			switch {
			case err != nil:
				result = multierror.Append(result, fmt.Errorf("%s/%s: %w", t.Name(), c.Name(), err))
			case !ok:
				result = multierror.Append(result, fmt.Errorf("%w: %s/%s", ErrChainMissing, t.Name(), c.Name()))
			}
		}
	}
	return result.ErrorOrNil()
}
