package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	suffixSeparator = "__"
	inverseMarker   = "not"
)

// A custom name becomes a long option, so it may not begin with a dash
// or carry anything a restore line would split on.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Kind is the value type a Declaration accepts.
type Kind int

const (
	KindString Kind = iota // string
	KindInt                // int
	KindList               // []string
	KindFlag               // nil or true, renders without a value
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindFlag:
		return "flag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) accepts(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int)
		return ok
	case KindList:
		_, ok := v.([]string)
		return ok
	case KindFlag:
		switch b := v.(type) {
		case nil:
			return true
		case bool:
			return b
		}
	}
	return false
}

// Declaration describes an argument recognized by name. Either Short or
// Long may be empty, not both.
type Declaration struct {
	Short      string
	Long       string
	Kind       Kind
	Invertible bool
}

// Name returns the display name, preferring the short form.
func (d Declaration) Name() string {
	if d.Short != "" {
		return d.Short
	}
	return d.Long
}

func (d Declaration) String() string {
	switch {
	case d.Short != "" && d.Long != "":
		return flagName(d.Short) + "/" + flagName(d.Long)
	default:
		return flagName(d.Name())
	}
}

// HasName reports whether name is the short or long form of d.
// Dashes and underscores are interchangeable.
func (d Declaration) HasName(name string) bool {
	name = strings.ReplaceAll(name, "-", "_")
	return name != "" && (name == d.Short || name == d.Long)
}

// match reports whether the keyword name refers to d and the inversion
// its suffixes carry. Suffixes are only checked once the base name
// matches.
func (d Declaration) match(name string) (matched, inverse bool, err error) {
	parts := strings.Split(name, suffixSeparator)
	if !d.HasName(parts[0]) {
		return false, false, nil
	}
	for _, part := range parts[1:] {
		if part != inverseMarker {
			return false, false, fmt.Errorf("%w: %q in %q", ErrUnsupportedSuffix, part, name)
		}
		if !d.Invertible {
			return false, false, fmt.Errorf("%w: %s", ErrNotInvertible, d)
		}
		inverse = !inverse
	}
	return true, inverse, nil
}

// Bind resolves a keyword against d. Every "__not" suffix toggles the
// inversion, so two of them cancel.
func (d Declaration) Bind(name string, value any) (*DeclaredArgument, error) {
	ok, inverse, err := d.match(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q is not %s", ErrNameMismatch, name, d)
	}
	if !d.Kind.accepts(value) {
		return nil, fmt.Errorf("%w: %s must be of type %s, got %T", ErrInvalidType, d, d.Kind, value)
	}
	return &DeclaredArgument{decl: d, value: value, inverse: inverse}, nil
}

// Argument is one resolved flag of an ArgumentList: a *DeclaredArgument
// or a *CustomArgument.
type Argument interface {
	// Name is the keyword name used when rendering, without suffixes.
	Name() string
	HasName(name string) bool
	Inverted() bool
	Value() any
	Render() string

	argument()
}

// DeclaredArgument is a value bound to a Declaration.
type DeclaredArgument struct {
	decl    Declaration
	value   any
	inverse bool
}

func (a *DeclaredArgument) Declaration() Declaration { return a.decl }
func (a *DeclaredArgument) Name() string             { return a.decl.Name() }
func (a *DeclaredArgument) HasName(name string) bool { return a.decl.HasName(name) }
func (a *DeclaredArgument) Inverted() bool           { return a.inverse }
func (a *DeclaredArgument) Value() any               { return a.value }
func (a *DeclaredArgument) argument()                {}

func (a *DeclaredArgument) Render() string {
	return renderFlag(a.Name(), a.inverse, a.value)
}

func (a *DeclaredArgument) String() string { return a.Render() }

// CustomArgument is a keyword no declaration recognized. It is rendered
// as-is, which makes it the escape hatch for extension options.
type CustomArgument struct {
	name    string
	value   any
	inverse bool
}

// NewCustomArgument parses name as an identifier optionally followed by
// a single "__not" suffix.
func NewCustomArgument(name string, value any) (*CustomArgument, error) {
	parts := strings.Split(name, suffixSeparator)
	if !identifierRegex.MatchString(parts[0]) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedName, name)
	}

	arg := &CustomArgument{name: parts[0], value: value}
	switch len(parts) {
	case 1:
	case 2:
		if parts[1] != inverseMarker {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnsupportedSuffix, parts[1], name)
		}
		arg.inverse = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrMalformedName, name)
	}

	switch value.(type) {
	case nil, string, []string, int:
	default:
		return nil, fmt.Errorf("%w: %s got %T", ErrInvalidType, flagName(arg.name), value)
	}
	return arg, nil
}

func (a *CustomArgument) Name() string   { return a.name }
func (a *CustomArgument) Inverted() bool { return a.inverse }
func (a *CustomArgument) Value() any     { return a.value }
func (a *CustomArgument) argument()      {}

func (a *CustomArgument) HasName(name string) bool {
	return strings.ReplaceAll(name, "-", "_") == strings.ReplaceAll(a.name, "-", "_")
}

func (a *CustomArgument) Render() string {
	return renderFlag(a.name, a.inverse, a.value)
}

func (a *CustomArgument) String() string { return a.Render() }

func renderFlag(name string, inverse bool, value any) string {
	var b strings.Builder
	if inverse {
		b.WriteString("! ")
	}
	b.WriteString(flagName(name))
	if v := FormatValue(value); v != "" {
		b.WriteByte(' ')
		b.WriteString(v)
	}
	return b.String()
}

// flagName turns a keyword name into its command line form: "i" -> "-i",
// "in_interface" -> "--in-interface".
func flagName(name string) string {
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) == 1 {
		return "-" + name
	}
	return "--" + name
}

// FormatValue renders an argument value. Double quotes are escaped and
// values containing whitespace are quoted; list elements are formatted
// individually and joined by spaces.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil, bool:
		return ""
	case string:
		return quoteValue(v)
	case int:
		return strconv.Itoa(v)
	case []string:
		parts := make([]string, 0, len(v))
		for _, s := range v {
			parts = append(parts, quoteValue(s))
		}
		return strings.Join(parts, " ")
	default:
		return quoteValue(fmt.Sprint(v))
	}
}

func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return `"` + s + `"`
	}
	return s
}
