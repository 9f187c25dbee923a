package tables

import (
	"fmt"
	"strings"
)

// ScriptBuilder builds iptables-restore input line by line.
type ScriptBuilder struct {
	lines []string
}

// NewScriptBuilder creates an empty script builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{lines: make([]string, 0, 100)}
}

// AddLine adds a raw line to the script.
func (b *ScriptBuilder) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// AddBlank adds an empty line.
func (b *ScriptBuilder) AddBlank() {
	b.AddLine("")
}

// AddComment adds a "# " comment line.
func (b *ScriptBuilder) AddComment(text string) {
	b.AddLine("# " + strings.ReplaceAll(text, "\n", " "))
}

// AddBanner adds text framed above and below by a row of '#'.
func (b *ScriptBuilder) AddBanner(text string) {
	marquee := strings.Repeat("#", len(text))
	b.AddLine(marquee)
	b.AddLine(text)
	b.AddLine(marquee)
}

// AddTable opens a table section.
func (b *ScriptBuilder) AddTable(name string) {
	b.AddLine("*" + name)
}

// AddChain declares a chain. User chains use "-" as policy.
func (b *ScriptBuilder) AddChain(name, policy string) {
	if policy == "" {
		policy = "-"
	}
	b.AddLine(fmt.Sprintf(":%s %s [0:0]", name, policy))
}

// AddRule appends a statement to a chain.
func (b *ScriptBuilder) AddRule(chain, statement string) {
	b.AddLine(fmt.Sprintf("-A %s %s", chain, statement))
}

// Commit closes the current table section.
func (b *ScriptBuilder) Commit() {
	b.AddLine("COMMIT")
}

// Len returns the number of lines added so far.
func (b *ScriptBuilder) Len() int {
	return len(b.lines)
}

// Build returns the complete script as a string.
func (b *ScriptBuilder) Build() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// String returns the script for debugging.
func (b *ScriptBuilder) String() string {
	return b.Build()
}
