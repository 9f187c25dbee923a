package firewall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "*filter\n:INPUT ACCEPT [0:0]\nCOMMIT\n"

func newTestRestorer(m *MockCommandRunner) *Restorer {
	return NewRestorer("iptables-restore", "iptables-save",
		WithRunner(m),
		WithRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1, RetryableErrors: []error{ErrXtablesLocked}}),
	)
}

func TestRestorerApply(t *testing.T) {
	m := new(MockCommandRunner)
	m.On("RunInput", script, "iptables-restore").Return([]byte(nil), nil).Once()

	err := newTestRestorer(m).Apply(context.Background(), script)
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestRestorerTest(t *testing.T) {
	m := new(MockCommandRunner)
	m.On("RunInput", script, "iptables-restore", "--test").Return([]byte(nil), nil).Once()

	require.NoError(t, newTestRestorer(m).Test(context.Background(), script))
	m.AssertExpectations(t)
}

func TestRestorerRetriesLock(t *testing.T) {
	m := new(MockCommandRunner)
	m.On("RunInput", script, "iptables-restore").
		Return([]byte("Another app is currently holding the xtables lock"), errors.New("exit status 4")).Twice()
	m.On("RunInput", script, "iptables-restore").Return([]byte(nil), nil).Once()

	require.NoError(t, newTestRestorer(m).Apply(context.Background(), script))
	m.AssertNumberOfCalls(t, "RunInput", 3)
}

func TestRestorerRejectedScript(t *testing.T) {
	m := new(MockCommandRunner)
	m.On("RunInput", script, "iptables-restore").
		Return([]byte("iptables-restore: line 2 failed"), errors.New("exit status 1")).Once()

	err := newTestRestorer(m).Apply(context.Background(), script)
	assert.ErrorIs(t, err, ErrRestoreFailed)
	m.AssertNumberOfCalls(t, "RunInput", 1)
}

func TestRestorerSave(t *testing.T) {
	m := new(MockCommandRunner)
	m.On("Output", "iptables-save").Return([]byte(script), nil).Once()

	got, err := newTestRestorer(m).Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, script, got)

	m = new(MockCommandRunner)
	m.On("Output", "iptables-save").Return(nil, errors.New("not found")).Once()
	_, err = newTestRestorer(m).Save(context.Background())
	assert.ErrorIs(t, err, ErrRestoreFailed)
	assert.Contains(t, err.Error(), "failed to save ruleset")
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, nil))
	assert.ErrorIs(t, classify(errors.New("exit status 4"), []byte("Resource temporarily unavailable")), ErrXtablesLocked)
	assert.ErrorIs(t, classify(errors.New("xtables lock"), nil), ErrXtablesLocked)
	assert.ErrorIs(t, classify(errors.New("exit status 2"), []byte("Bad argument")), ErrRestoreFailed)
}
