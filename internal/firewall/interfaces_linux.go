//go:build linux

package firewall

import "github.com/vishvananda/netlink"

var linkExists = func(name string) bool {
	_, err := netlink.LinkByName(name)
	return err == nil
}
