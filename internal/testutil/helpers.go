// Package testutil holds helpers shared by tests that touch the host.
package testutil

import (
	"os"
	"os/exec"
	"testing"

	"grimm.is/ruleforge/internal/brand"
)

// RequireKernel skips the test unless RULEFORGE_KERNEL_TEST is set and
// the process runs as root. Such tests change or inspect the host's
// real ruleset and belong in a disposable VM or network namespace.
func RequireKernel(t *testing.T) {
	t.Helper()
	if os.Getenv(brand.EnvVar("KERNEL_TEST")) == "" {
		t.Skipf("Skipping test: requires %s environment", brand.EnvVar("KERNEL_TEST"))
	}
	if os.Geteuid() != 0 {
		t.Skip("Skipping test: requires root")
	}
}

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("Skipping test: %s not found", name)
	}
}
