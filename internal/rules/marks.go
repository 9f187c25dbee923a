package rules

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
)

// Mark values are limited to 1..MaxMark.
const MaxMark = 65535

var (
	ErrMarkOutOfRange = errors.New("mark out of range")
	ErrMarkInUse      = errors.New("mark already in use")
	ErrMarksExhausted = errors.New("no unused marks left")
)

// MarkRule sets a packet mark with the MARK target.
type MarkRule struct {
	*Rule
	value int
}

// Mark returns a rule setting the packet mark to value.
func Mark(value int, kwargs Kwargs, opts ...Option) *MarkRule {
	kw := kwargs.Clone()
	kw["jump"] = TargetMark
	kw["set_mark"] = strconv.Itoa(value)
	return &MarkRule{Rule: New(kw, opts...), value: value}
}

// Value returns the mark the rule sets.
func (m *MarkRule) Value() int {
	return m.value
}

// Marked returns a rule matching packets carrying mark value.
func Marked(value int, kwargs Kwargs, opts ...Option) *Rule {
	kw := kwargs.Clone()
	kw["match"] = "mark"
	kw["mark"] = strconv.Itoa(value)
	return New(kw, opts...)
}

// DropMarked drops packets carrying mark value.
func DropMarked(value int, opts ...Option) *Rule {
	return Marked(value, Kwargs{"jump": TargetDrop}, opts...)
}

// AcceptMarked accepts packets carrying mark value.
func AcceptMarked(value int, opts ...Option) *Rule {
	return Marked(value, Kwargs{"jump": TargetAccept}, opts...)
}

// MarkAllocator hands out random marks that have not been used yet.
type MarkAllocator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	used map[int]bool
}

// NewMarkAllocator returns an allocator drawing from a generator seeded
// with seed.
func NewMarkAllocator(seed uint64) *MarkAllocator {
	return &MarkAllocator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		used: make(map[int]bool),
	}
}

// Reserve marks value as taken, typically for marks assigned by hand.
func (a *MarkAllocator) Reserve(value int) error {
	if value < 1 || value > MaxMark {
		return fmt.Errorf("%w: %d", ErrMarkOutOfRange, value)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.used[value] {
		return fmt.Errorf("%w: %d", ErrMarkInUse, value)
	}
	a.used[value] = true
	return nil
}

// Next returns a Mark rule with a fresh random value.
func (a *MarkAllocator) Next(kwargs Kwargs, opts ...Option) (*MarkRule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.used) >= MaxMark {
		return nil, ErrMarksExhausted
	}
	for {
		v := a.rng.IntN(MaxMark) + 1
		if !a.used[v] {
			a.used[v] = true
			return Mark(v, kwargs, opts...), nil
		}
	}
}
