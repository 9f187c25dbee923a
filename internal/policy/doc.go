// Package policy expands declarative intents into concrete rules.
//
// A ForwardingRule or InputRule takes a policy, endpoints (zones, host
// lists, ipsets, locations) and channels (protocol/port/state bundles)
// and produces the cartesian product of rules implementing them, each
// with a generated comment naming its route and channel.
package policy
