package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/display"
	"grimm.is/ruleforge/internal/firewall"
)

const testConfig = `
zone "lan" { interface = "lo" }

chain "filter" "INPUT" {
  policy = "drop"

  rule "input" {
    policy   = "accept"
    from     = ["lan"]
    channels = ["ssh"]
    comment  = "admin"
  }
}
`

type okChecker struct{}

func (okChecker) ChainExists(table, chain string) (bool, error) { return true, nil }

// harness points state at a temp dir and swaps in a mock runner.
func harness(t *testing.T) (string, *config.Settings, *firewall.MockCommandRunner) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(brand.EnvVar("STATE_DIR"), filepath.Join(dir, "state"))

	path := filepath.Join(dir, "firewall.hcl")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	m := new(firewall.MockCommandRunner)
	origRunner, origChecker := newRunner, newChainChecker
	newRunner = func() firewall.CommandRunner { return m }
	newChainChecker = func(string) (firewall.ChainChecker, error) { return okChecker{}, nil }
	t.Cleanup(func() { newRunner, newChainChecker = origRunner, origChecker })

	s := &config.Settings{
		LogLevel:    "info",
		LogFormat:   "console",
		Family:      "ipv4",
		Checkpoint:  filepath.Join(dir, "state", "checkpoint.rules"),
		LockRetries: 1,
		LockWait:    time.Millisecond,
		Debounce:    10 * time.Millisecond,
	}
	return path, s, m
}

func TestRunShow(t *testing.T) {
	path, _, _ := harness(t)

	tests := []struct {
		name  string
		opts  ShowOptions
		check func(t *testing.T, out string)
	}{
		{
			name: "plain",
			check: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "# Tables generated by RuleForge"))
				assert.Contains(t, out, ":INPUT DROP [0:0]\n")
				assert.Contains(t, out, `-A INPUT -j ACCEPT -i lo -p tcp -m multiport --dports 22`)
				assert.NotContains(t, out, "\x1b[")
			},
		},
		{
			name: "line numbers",
			opts: ShowOptions{LineNumbers: true},
			check: func(t *testing.T, out string) {
				assert.Regexp(t, `^ *1 \| # Tables generated by RuleForge`, out)
				assert.Contains(t, out, " | COMMIT\n")
			},
		},
		{
			name: "color",
			opts: ShowOptions{Color: true},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, display.Colorize("COMMIT", true))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RunShow(&buf, path, tt.opts))
			tt.check(t, buf.String())
		})
	}
}

func TestRunShowInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte("zone \"lan\" {"), 0o600))
	assert.Error(t, RunShow(&bytes.Buffer{}, path, ShowOptions{}))
}

func TestRunCheck(t *testing.T) {
	path, s, m := harness(t)

	var buf bytes.Buffer
	require.NoError(t, RunCheck(context.Background(), &buf, path, s, false))
	out := buf.String()
	assert.Contains(t, out, "Configuration valid!")
	assert.Contains(t, out, "Family: ipv4")
	assert.Contains(t, out, "Zones: 1")
	assert.Contains(t, out, "Statements: 1")
	assert.NotContains(t, out, "Last Applied")
	m.AssertNotCalled(t, "RunInput", mock.Anything, mock.Anything, mock.Anything)

	assert.Error(t, RunCheck(context.Background(), &buf, "", s, false))
}

func TestRunCheckRestoreTest(t *testing.T) {
	path, s, m := harness(t)
	m.On("RunInput", mock.Anything, "iptables-restore", "--test").Return([]byte(nil), nil).Once()

	var buf bytes.Buffer
	require.NoError(t, RunCheck(context.Background(), &buf, path, s, true))
	assert.Contains(t, buf.String(), "Restore test passed")
	m.AssertExpectations(t)

	m.On("RunInput", mock.Anything, "iptables-restore", "--test").Return([]byte("line 4 failed"), errors.New("exit status 2")).Once()
	err := RunCheck(context.Background(), &buf, path, s, true)
	assert.ErrorIs(t, err, firewall.ErrRestoreFailed)
}

func TestRunApply(t *testing.T) {
	path, s, m := harness(t)
	m.On("Output", "iptables-save").Return([]byte("*filter\nCOMMIT\n"), nil).Once()
	m.On("RunInput", mock.Anything, "iptables-restore").Return([]byte(nil), nil).Once()

	var buf bytes.Buffer
	require.NoError(t, RunApply(context.Background(), &buf, path, s, false))
	assert.Contains(t, buf.String(), "Ruleset applied")
	m.AssertExpectations(t)

	assert.FileExists(t, s.Checkpoint)
	meta, err := firewall.ReadMetadata(brand.AppliedPath())
	require.NoError(t, err)
	require.NotNil(t, meta)

	buf.Reset()
	require.NoError(t, RunCheck(context.Background(), &buf, path, s, false))
	assert.Contains(t, buf.String(), "Last Applied: v"+brand.Version)
	assert.NotContains(t, buf.String(), "different configuration")
}

func TestRunApplyNoRollback(t *testing.T) {
	path, s, m := harness(t)
	m.On("RunInput", mock.Anything, "iptables-restore").Return([]byte(nil), nil).Once()

	require.NoError(t, RunApply(context.Background(), &bytes.Buffer{}, path, s, true))
	m.AssertNotCalled(t, "Output", "iptables-save")
	assert.NoFileExists(t, s.Checkpoint)
}

func TestRunDiff(t *testing.T) {
	path, s, m := harness(t)

	var generated bytes.Buffer
	require.NoError(t, RunShow(&generated, path, ShowOptions{}))

	m.On("Output", "iptables-save").Return(generated.Bytes(), nil).Once()
	var buf bytes.Buffer
	require.NoError(t, RunDiff(context.Background(), &buf, path, s))
	assert.Equal(t, "No changes detected.\n", buf.String())

	m.On("Output", "iptables-save").Return([]byte("*filter\n:INPUT ACCEPT [0:0]\nCOMMIT\n"), nil).Once()
	buf.Reset()
	err := RunDiff(context.Background(), &buf, path, s)
	assert.ErrorIs(t, err, ErrDiffers)
	assert.Contains(t, buf.String(), "+:INPUT DROP")
}

func TestRunRollback(t *testing.T) {
	_, s, m := harness(t)

	err := RunRollback(context.Background(), &bytes.Buffer{}, s, "")
	assert.ErrorIs(t, err, firewall.ErrNoCheckpoint)

	saved := "*filter\n:INPUT ACCEPT [0:0]\nCOMMIT\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Checkpoint), 0o750))
	require.NoError(t, os.WriteFile(s.Checkpoint, []byte(saved), 0o600))
	m.On("RunInput", saved, "ip6tables-restore").Return([]byte(nil), nil).Once()

	var buf bytes.Buffer
	require.NoError(t, RunRollback(context.Background(), &buf, s, "ipv6"))
	assert.Contains(t, buf.String(), "Rolled back from "+s.Checkpoint)
	m.AssertExpectations(t)
}

func TestRunWatch(t *testing.T) {
	path, s, m := harness(t)
	m.On("Output", "iptables-save").Return([]byte("*filter\nCOMMIT\n"), nil)
	m.On("RunInput", mock.Anything, "iptables-restore").Return([]byte(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, path, s) }()

	require.Eventually(t, func() bool {
		return fileExists(brand.AppliedPath())
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	m.AssertCalled(t, "Output", "iptables-save")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunColorize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunColorize(strings.NewReader("*filter\nCOMMIT"), &buf))
	assert.Equal(t, display.Colorize("*filter\nCOMMIT", true), buf.String())
	assert.True(t, strings.HasPrefix(buf.String(), "\x1b[1;36m*filter"))
	assert.Equal(t, "*filter\nCOMMIT", display.Uncolorize(buf.String()))
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	RunVersion(&buf)
	assert.Equal(t, "RuleForge "+brand.Version+" (commit "+brand.GitCommit+")\n", buf.String())
}

func TestRootCommand(t *testing.T) {
	path, _, _ := harness(t)
	t.Setenv(brand.EnvVar("LOG_LEVEL"), "error")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"show", "--config", path, "--line-numbers"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		showOpts = ShowOptions{}
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "*filter")
	require.NotNil(t, settings)
	assert.Equal(t, "error", settings.LogLevel)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"show", "check", "apply", "diff", "watch", "rollback", "colorize", "version"} {
		assert.True(t, names[want], want)
	}
}
