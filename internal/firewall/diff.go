package firewall

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pmezard/go-difflib/difflib"
)

var counterRegex = regexp.MustCompile(`\s*\[\d+:\d+\]$`)

// Normalize reduces restore or save output to its table, chain and rule
// lines so generated and running rulesets can be compared. Comments and
// counters are dropped and every rule is rewritten in canonical form.
func Normalize(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, ":"):
			line = counterRegex.ReplaceAllString(line, "")
		case strings.HasPrefix(line, "-"):
			line = canonicalRule(line)
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// Long spellings iptables-save prints in short form.
var shortFlags = map[string]string{
	"--source":        "-s",
	"--destination":   "-d",
	"--in-interface":  "-i",
	"--out-interface": "-o",
	"--protocol":      "-p",
	"--fragment":      "-f",
	"--match":         "-m",
	"--jump":          "-j",
	"--goto":          "-g",
	"--append":        "-A",
}

// Order iptables-save prints the basic matches in.
var basicOrder = []string{"-s", "-d", "-i", "-o", "-p", "-f"}

// segment is one option with its optional negation and values.
type segment struct {
	negated bool
	flag    string
	values  []string
}

func (s segment) String() string {
	parts := make([]string, 0, len(s.values)+2)
	if s.negated {
		parts = append(parts, "!")
	}
	parts = append(parts, s.flag)
	for _, v := range s.values {
		parts = append(parts, quote(v))
	}
	return strings.Join(parts, " ")
}

func (s segment) rank() int {
	switch {
	case slices.Contains(basicOrder, s.flag):
		return 0
	case s.flag == "-m":
		return 1
	case s.flag == "-j", s.flag == "-g":
		return 3
	default:
		return 2
	}
}

// canonicalRule rewrites a rule line so the statement iptables-save
// prints for it and the one it was generated from compare equal. Options
// are ordered basic matches first, then modules and their options, then
// the target. Host prefixes, mark values and the implicit protocol
// module are written the way iptables-save writes them.
func canonicalRule(line string) string {
	tokens, err := shlex.Split(line)
	if err != nil || len(tokens) < 2 {
		return line
	}
	if f, ok := shortFlags[tokens[0]]; ok {
		tokens[0] = f
	}
	head := []string{tokens[0], tokens[1]}
	if tokens[0] != "-A" {
		return requote(tokens)
	}

	var segs []segment
	negate := false
	for _, t := range tokens[2:] {
		switch {
		case t == "!":
			negate = true
		case isFlag(t):
			if f, ok := shortFlags[t]; ok {
				t = f
			}
			segs = append(segs, segment{negated: negate, flag: t})
			negate = false
		case len(segs) > 0:
			segs[len(segs)-1].values = append(segs[len(segs)-1].values, t)
		default:
			return requote(tokens)
		}
	}

	protocols := map[string]bool{}
	for i := range segs {
		segs[i] = canonicalSegment(segs[i])
		if segs[i].flag == "-p" && !segs[i].negated && len(segs[i].values) == 1 {
			protocols[strings.ToLower(segs[i].values[0])] = true
		}
	}
	segs = slices.DeleteFunc(segs, func(s segment) bool {
		return s.flag == "-m" && len(s.values) == 1 && protocols[s.values[0]]
	})

	slices.SortStableFunc(segs, func(a, b segment) int {
		if ra, rb := a.rank(), b.rank(); ra != rb {
			return ra - rb
		}
		if a.rank() == 0 {
			return slices.Index(basicOrder, a.flag) - slices.Index(basicOrder, b.flag)
		}
		return strings.Compare(a.String(), b.String())
	})

	out := head
	for _, s := range segs {
		out = append(out, s.String())
	}
	return strings.Join(out, " ")
}

func canonicalSegment(s segment) segment {
	switch s.flag {
	case "-s", "-d":
		for i, v := range s.values {
			s.values[i] = stripHostPrefix(v)
		}
	case "-p":
		for i, v := range s.values {
			s.values[i] = strings.ToLower(v)
		}
	case "--mark", "--set-xmark":
		for i, v := range s.values {
			s.values[i] = hexMark(v)
		}
	case "--set-mark":
		s.flag = "--set-xmark"
		for i, v := range s.values {
			if !strings.Contains(v, "/") {
				v += "/0xffffffff"
			}
			s.values[i] = hexMark(v)
		}
	}
	return s
}

func stripHostPrefix(v string) string {
	addrs := strings.Split(v, ",")
	for i, a := range addrs {
		a = strings.TrimSuffix(a, "/32")
		addrs[i] = strings.TrimSuffix(a, "/128")
	}
	return strings.Join(addrs, ",")
}

// hexMark writes value[/mask] in hex. Unparseable input is left alone.
func hexMark(v string) string {
	parts := strings.Split(v, "/")
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 0, 32)
		if err != nil {
			return v
		}
		parts[i] = fmt.Sprintf("0x%x", n)
	}
	return strings.Join(parts, "/")
}

func isFlag(t string) bool {
	if len(t) < 2 || t[0] != '-' {
		return false
	}
	_, err := strconv.Atoi(t)
	return err != nil
}

func quote(t string) string {
	if t == "" || strings.ContainsAny(t, " \t\"'") {
		return `"` + strings.ReplaceAll(t, `"`, `\"`) + `"`
	}
	return t
}

func requote(tokens []string) string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = quote(t)
	}
	return strings.Join(out, " ")
}

// Diff returns a unified diff from running to generated after
// normalizing both. The result is empty when they match.
func Diff(generated, running string) (string, error) {
	a, b := Normalize(running), Normalize(generated)
	if a == b {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "Running",
		ToFile:   "Generated",
		Context:  3,
	})
}
