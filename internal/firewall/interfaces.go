package firewall

import "strings"

// MissingInterfaces returns the names that do not exist on this host.
// Wildcard names ending in '+' are skipped.
func MissingInterfaces(names []string) []string {
	var missing []string
	for _, name := range names {
		if strings.HasSuffix(name, "+") {
			continue
		}
		if !linkExists(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
