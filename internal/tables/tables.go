// Package tables holds the ordered table and chain containers and
// renders them as iptables-restore input.
package tables

import (
	"fmt"
	"slices"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/rules"
)

// Builtin chains per table, in kernel hook order. This is every chain the
// kernel provides, a superset of what Default declares; the rest are
// added on demand when a configuration names them.
var BuiltinChains = map[string][]string{
	"filter":   {"INPUT", "FORWARD", "OUTPUT"},
	"nat":      {"PREROUTING", "INPUT", "OUTPUT", "POSTROUTING"},
	"mangle":   {"PREROUTING", "INPUT", "FORWARD", "OUTPUT", "POSTROUTING"},
	"raw":      {"PREROUTING", "OUTPUT"},
	"security": {"INPUT", "FORWARD", "OUTPUT"},
}

// IsBuiltin reports whether chain is a kernel chain of table.
func IsBuiltin(table, chain string) bool {
	return slices.Contains(BuiltinChains[table], chain)
}

// Table is a named, ordered set of chains.
type Table struct {
	name   string
	origin rules.Origin
	chains []*Chain
}

// NewTable returns a table holding chains in order.
func NewTable(name string, chains ...*Chain) *Table {
	t := &Table{name: name}
	for _, c := range chains {
		t.Append(c)
	}
	return t
}

func (t *Table) Name() string { return t.name }

// SetOrigin records where the table was declared.
func (t *Table) SetOrigin(origin rules.Origin) {
	t.origin = origin
}

// Append adds c, replacing any chain of the same name in place.
func (t *Table) Append(c *Chain) *Chain {
	for i, existing := range t.chains {
		if existing.name == c.name {
			t.chains[i] = c
			return c
		}
	}
	t.chains = append(t.chains, c)
	return c
}

// Chain looks a chain up by name.
func (t *Table) Chain(name string) (*Chain, bool) {
	for _, c := range t.chains {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Chains returns the chains in order.
func (t *Table) Chains() []*Chain {
	return append([]*Chain(nil), t.chains...)
}

func (t *Table) render(b *ScriptBuilder) error {
	b.AddBanner(fmt.Sprintf("# %s table%s #", t.name, originSuffix(t.origin)))
	b.AddTable(t.name)
	for _, c := range t.chains {
		c.declare(b)
	}
	for _, c := range t.chains {
		b.AddBlank()
		if err := c.render(b); err != nil {
			return rules.WithPath(err, t.name)
		}
	}
	b.AddBlank()
	b.Commit()
	return nil
}

// Tables is the top level container rendered into one restore file.
type Tables struct {
	origin      rules.Origin
	tables      []*Table
	annotations []string
}

// New returns a container holding tables in order.
func New(tables ...*Table) *Tables {
	ts := &Tables{}
	for _, t := range tables {
		ts.Append(t)
	}
	return ts
}

// Default returns the filter, nat and mangle tables with their builtin
// chains, all accepting by default.
func Default() *Tables {
	return New(
		NewTable("filter",
			NewBuiltinChain("INPUT", "ACCEPT"),
			NewBuiltinChain("FORWARD", "ACCEPT"),
			NewBuiltinChain("OUTPUT", "ACCEPT"),
		),
		NewTable("nat",
			NewBuiltinChain("PREROUTING", "ACCEPT"),
			NewBuiltinChain("OUTPUT", "ACCEPT"),
			NewBuiltinChain("POSTROUTING", "ACCEPT"),
		),
		NewTable("mangle",
			NewBuiltinChain("PREROUTING", "ACCEPT"),
			NewBuiltinChain("INPUT", "ACCEPT"),
			NewBuiltinChain("FORWARD", "ACCEPT"),
			NewBuiltinChain("OUTPUT", "ACCEPT"),
			NewBuiltinChain("POSTROUTING", "ACCEPT"),
		),
	)
}

// SetOrigin records where the configuration came from.
func (ts *Tables) SetOrigin(origin rules.Origin) {
	ts.origin = origin
}

// Annotate adds a comment line below the generated header.
func (ts *Tables) Annotate(line string) {
	ts.annotations = append(ts.annotations, line)
}

// Append adds t, replacing any table of the same name in place.
func (ts *Tables) Append(t *Table) *Table {
	for i, existing := range ts.tables {
		if existing.name == t.name {
			ts.tables[i] = t
			return t
		}
	}
	ts.tables = append(ts.tables, t)
	return t
}

// Table looks a table up by name.
func (ts *Tables) Table(name string) (*Table, bool) {
	for _, t := range ts.tables {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// Tables returns the tables in order.
func (ts *Tables) Tables() []*Table {
	return append([]*Table(nil), ts.tables...)
}

// Render returns the iptables-restore input for every table. Errors
// are *rules.PathError values naming the table, chain and rule that
// failed.
func (ts *Tables) Render() (string, error) {
	b := NewScriptBuilder()
	b.AddComment(fmt.Sprintf("Tables generated by %s%s", brand.Name, originSuffix(ts.origin)))
	for _, a := range ts.annotations {
		b.AddComment(a)
	}
	for _, t := range ts.tables {
		b.AddBlank()
		if err := t.render(b); err != nil {
			return "", rules.WithPath(err, "Tables")
		}
	}
	return b.Build(), nil
}
