package firewall

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts process execution for testing.
type CommandRunner interface {
	// Output executes a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInput executes a command with input on stdin.
	RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error)
}

// RealCommandRunner runs commands with os/exec.
type RealCommandRunner struct{}

// DefaultCommandRunner is used when no runner is supplied.
var DefaultCommandRunner CommandRunner = &RealCommandRunner{}

// Output executes a command and returns its output.
func (r *RealCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("command %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// RunInput executes a command with input via stdin and returns its
// combined output.
func (r *RealCommandRunner) RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("command %s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
