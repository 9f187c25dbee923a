package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Kwargs maps keyword names to argument values. A name may carry the
// "__not" suffix to invert the argument.
type Kwargs map[string]any

// Clone returns a shallow copy of k. It never returns nil.
func (k Kwargs) Clone() Kwargs {
	out := make(Kwargs, len(k))
	for name, v := range k {
		out[name] = v
	}
	return out
}

func (k Kwargs) sortedKeys() []string {
	keys := make([]string, 0, len(k))
	for name := range k {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// ArgumentList is an immutable collection of keyword arguments resolved
// against a set of declarations, plus nested lists rendered after it.
//
// Resolution order is fixed: for each declaration in order, the first
// matching keyword becomes a DeclaredArgument; the remaining keywords
// follow as CustomArguments in sorted name order; then the arguments of
// every nested list, depth-first.
type ArgumentList struct {
	known  []Declaration
	kwargs Kwargs
	nested []*ArgumentList
}

// NewArgumentList builds a list without declarations of its own. It
// picks up the declarations of any list it is later nested into.
func NewArgumentList(kwargs Kwargs, nested ...*ArgumentList) *ArgumentList {
	return NewDeclaredList(nil, kwargs, nested...)
}

// NewDeclaredList builds a list recognizing known. Nested lists are
// copied with known appended to their own declarations.
func NewDeclaredList(known []Declaration, kwargs Kwargs, nested ...*ArgumentList) *ArgumentList {
	l := &ArgumentList{
		known:  mergeDeclarations(nil, known),
		kwargs: kwargs.Clone(),
	}
	l.nested = l.adopt(nested)
	return l
}

// Derive returns a new list: keywords are overwritten by kwargs, nested
// is appended after the existing nested lists. l is not modified.
func (l *ArgumentList) Derive(kwargs Kwargs, nested ...*ArgumentList) *ArgumentList {
	merged := l.kwargs.Clone()
	for name, v := range kwargs {
		merged[name] = v
	}

	adopted := l.adopt(nested)
	all := make([]*ArgumentList, 0, len(l.nested)+len(adopted))
	all = append(all, l.nested...)
	all = append(all, adopted...)

	return &ArgumentList{known: l.known, kwargs: merged, nested: all}
}

func (l *ArgumentList) adopt(nested []*ArgumentList) []*ArgumentList {
	out := make([]*ArgumentList, 0, len(nested))
	for _, n := range nested {
		if n == nil {
			continue
		}
		out = append(out, n.withDeclarations(l.known))
	}
	return out
}

// withDeclarations copies l, recursively, with extra appended to every
// declaration set.
func (l *ArgumentList) withDeclarations(extra []Declaration) *ArgumentList {
	c := &ArgumentList{
		known:  mergeDeclarations(slices.Clone(l.known), extra),
		kwargs: l.kwargs,
		nested: make([]*ArgumentList, 0, len(l.nested)),
	}
	for _, n := range l.nested {
		c.nested = append(c.nested, n.withDeclarations(extra))
	}
	return c
}

func mergeDeclarations(dst, src []Declaration) []Declaration {
	for _, d := range src {
		if !slices.Contains(dst, d) {
			dst = append(dst, d)
		}
	}
	return dst
}

// Declarations returns the declarations l recognizes, in resolution order.
func (l *ArgumentList) Declarations() []Declaration {
	return slices.Clone(l.known)
}

// Nested returns the nested lists in rendering order.
func (l *ArgumentList) Nested() []*ArgumentList {
	return slices.Clone(l.nested)
}

// Arguments resolves the list. It fails on the first keyword that does
// not bind.
func (l *ArgumentList) Arguments() ([]Argument, error) {
	keys := l.kwargs.sortedKeys()
	used := make(map[string]bool, len(keys))
	args := make([]Argument, 0, len(keys))

	for _, d := range l.known {
		for _, name := range keys {
			if used[name] {
				continue
			}
			ok, _, err := d.match(name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			arg, err := d.Bind(name, l.kwargs[name])
			if err != nil {
				return nil, err
			}
			used[name] = true
			args = append(args, arg)
			break
		}
	}

	for _, name := range keys {
		if used[name] {
			continue
		}
		arg, err := NewCustomArgument(name, l.kwargs[name])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	for _, n := range l.nested {
		nestedArgs, err := n.Arguments()
		if err != nil {
			return nil, err
		}
		args = append(args, nestedArgs...)
	}
	return args, nil
}

// Get returns the first resolved argument named name.
func (l *ArgumentList) Get(name string) (Argument, error) {
	args, err := l.Arguments()
	if err != nil {
		return nil, err
	}
	for _, arg := range args {
		if arg.HasName(name) {
			return arg, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrArgumentNotFound, name)
}

// Contains reports whether Get would succeed. A list that fails to
// resolve contains nothing.
func (l *ArgumentList) Contains(name string) bool {
	_, err := l.Get(name)
	return err == nil
}

// Render resolves the list and joins the rendered arguments with spaces.
func (l *ArgumentList) Render() (string, error) {
	args, err := l.Arguments()
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.Render())
	}
	return strings.Join(parts, " "), nil
}

func (l *ArgumentList) String() string {
	s, err := l.Render()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return s
}
