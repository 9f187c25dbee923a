// Package display formats rendered iptables-restore text for terminals.
package display

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

type palette struct {
	heading, comment, flag, table, chain, bang, commit *color.Color
}

func newPalette(force bool) *palette {
	p := &palette{
		heading: color.New(color.Bold, color.FgGreen),
		comment: color.New(color.FgGreen),
		flag:    color.New(color.FgYellow),
		table:   color.New(color.Bold, color.FgCyan),
		chain:   color.New(color.FgCyan),
		bang:    color.New(color.Bold, color.FgRed),
		commit:  color.New(color.FgCyan),
	}
	if force {
		for _, c := range []*color.Color{p.heading, p.comment, p.flag, p.table, p.chain, p.bang, p.commit} {
			c.EnableColor()
		}
	}
	return p
}

// Colorize highlights restore text line by line. Without force, color is
// emitted only when stdout is a terminal.
func Colorize(s string, force bool) string {
	p := newPalette(force)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "#") && strings.HasSuffix(line, "#"):
			lines[i] = p.heading.Sprint(line)
		case strings.HasPrefix(line, "#"):
			lines[i] = p.comment.Sprint(line)
		case strings.HasPrefix(line, ":"):
			lines[i] = p.chain.Sprint(line)
		case strings.HasPrefix(line, "*"):
			lines[i] = p.table.Sprint(line)
		case line == "COMMIT":
			lines[i] = p.commit.Sprint(line)
		default:
			lines[i] = p.statement(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (p *palette) statement(line string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case part == "!":
			parts[i] = p.bang.Sprint(part)
		case strings.HasPrefix(part, "-"):
			parts[i] = p.flag.Sprint(part)
		}
	}
	return strings.Join(parts, " ")
}

var ansiRegex = regexp.MustCompile(`\x1b\[[;\d]*[A-Za-z]`)

// Uncolorize strips ANSI escape sequences.
func Uncolorize(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// AddLineNumbers prefixes every line with "<n> | ", numbering from start.
// Numbers are right-aligned to the width of the line count.
func AddLineNumbers(s string, start int) string {
	lines := strings.Split(s, "\n")
	width := len(strconv.Itoa(len(lines)))
	for i, line := range lines {
		lines[i] = fmt.Sprintf("%*d | %s", width, start+i, line)
	}
	return strings.Join(lines, "\n")
}
