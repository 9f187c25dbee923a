package firewall

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing.
// The context is not part of the recorded call arguments.
type MockCommandRunner struct {
	mock.Mock
}

func callArgs(prefix []string, args []string) []interface{} {
	out := make([]interface{}, 0, len(prefix)+len(args))
	for _, p := range prefix {
		out = append(out, p)
	}
	for _, a := range args {
		out = append(out, a)
	}
	return out
}

func (m *MockCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	result := m.Called(callArgs([]string{name}, args)...)
	if result.Get(0) == nil {
		return nil, result.Error(1)
	}
	return result.Get(0).([]byte), result.Error(1)
}

func (m *MockCommandRunner) RunInput(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	result := m.Called(callArgs([]string{input, name}, args)...)
	if result.Get(0) == nil {
		return nil, result.Error(1)
	}
	return result.Get(0).([]byte), result.Error(1)
}
