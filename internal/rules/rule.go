package rules

import (
	"strings"
)

// Renderable is anything a chain can hold. The set of implementations
// is closed: every variant embeds Base.
type Renderable interface {
	// Statements renders the rule body, one statement per line, without
	// the "-A <chain>" prefix.
	Statements() ([]string, error)
	Comment() string
	Origin() Origin

	base() *Base
}

// Base carries the comment and creation label shared by all rule
// variants.
type Base struct {
	comment string
	origin  Origin
}

// NewBase returns a Base for rule variants defined outside this package.
func NewBase(comment string, origin Origin) Base {
	return Base{comment: comment, origin: origin}
}

func (b *Base) Comment() string { return b.comment }
func (b *Base) Origin() Origin  { return b.origin }
func (b *Base) base() *Base     { return b }

// Header returns the "# Rule:" line written above a rule's statements.
func Header(r Renderable) string {
	h := "# Rule:"
	if c := r.Comment(); c != "" {
		h += " " + strings.ReplaceAll(c, "\n", " ")
	}
	if o := r.Origin(); !o.IsZero() {
		h += " (" + o.String() + ")"
	}
	return h
}

// Option configures a rule at construction or derivation.
type Option func(*options)

type options struct {
	comment string
	origin  Origin
	nested  []*ArgumentList
}

// WithComment sets the rule comment. An empty comment keeps the comment
// of the rule being derived from.
func WithComment(comment string) Option {
	return func(o *options) { o.comment = comment }
}

// At records where the rule was declared.
func At(origin Origin) Option {
	return func(o *options) { o.origin = origin }
}

// WithArgs appends nested argument lists to the rule.
func WithArgs(lists ...*ArgumentList) Option {
	return func(o *options) { o.nested = append(o.nested, lists...) }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RuleDeclarations are the arguments every Rule recognizes.
var RuleDeclarations = []Declaration{
	{Short: "i", Long: "in_interface", Invertible: true},
	{Short: "o", Long: "out_interface", Invertible: true},
	{Short: "p", Long: "proto", Invertible: true},
	{Short: "s", Long: "source", Invertible: true},
	{Short: "d", Long: "destination", Invertible: true},
	{Short: "f", Long: "fragment", Kind: KindFlag, Invertible: true},
	MatchDeclaration,
	{Short: "j", Long: "jump"},
	{Short: "g", Long: "goto"},
}

// Rule is a single statement built from an ArgumentList.
type Rule struct {
	Base
	args *ArgumentList
}

// New returns a rule resolving kwargs against RuleDeclarations.
func New(kwargs Kwargs, opts ...Option) *Rule {
	o := collect(opts)
	return &Rule{
		Base: Base{comment: o.comment, origin: o.origin},
		args: NewDeclaredList(RuleDeclarations, kwargs, o.nested...),
	}
}

// Derive returns a new rule with kwargs and nested lists merged into a
// copy of r's arguments. The comment and origin default to r's.
func (r *Rule) Derive(kwargs Kwargs, opts ...Option) *Rule {
	o := collect(opts)
	d := &Rule{
		Base: r.Base,
		args: r.args.Derive(kwargs, o.nested...),
	}
	if o.comment != "" {
		d.comment = o.comment
	}
	if !o.origin.IsZero() {
		d.origin = o.origin
	}
	return d
}

// Arguments returns the rule's argument list.
func (r *Rule) Arguments() *ArgumentList {
	return r.args
}

func (r *Rule) Statements() ([]string, error) {
	s, err := r.args.Render()
	if err != nil {
		return nil, err
	}
	return []string{withComment(s, r.comment)}, nil
}

func (r *Rule) String() string {
	return renderString(r)
}

// CustomRule renders a literal statement, bypassing argument
// resolution.
type CustomRule struct {
	Base
	text string
}

// NewCustom returns a rule rendering text verbatim.
func NewCustom(text string, opts ...Option) *CustomRule {
	o := collect(opts)
	return &CustomRule{Base: Base{comment: o.comment, origin: o.origin}, text: text}
}

func (r *CustomRule) Text() string { return r.text }

func (r *CustomRule) Statements() ([]string, error) {
	text := strings.TrimSpace(r.text)
	if text == "" {
		return nil, ErrEmptyRule
	}
	return []string{withComment(text, r.comment)}, nil
}

func (r *CustomRule) String() string {
	return renderString(r)
}

// CompositeRule renders the statements of several rules in order.
type CompositeRule struct {
	Base
	rules []Renderable
}

// Compose groups rules under one header.
func Compose(rules []Renderable, opts ...Option) *CompositeRule {
	o := collect(opts)
	return &CompositeRule{
		Base:  Base{comment: o.comment, origin: o.origin},
		rules: append([]Renderable(nil), rules...),
	}
}

func (c *CompositeRule) Rules() []Renderable {
	return append([]Renderable(nil), c.rules...)
}

func (c *CompositeRule) Statements() ([]string, error) {
	var out []string
	for _, r := range c.rules {
		st, err := r.Statements()
		if err != nil {
			return nil, err
		}
		out = append(out, st...)
	}
	return out, nil
}

func (c *CompositeRule) String() string {
	return renderString(c)
}

var commentEscaper = strings.NewReplacer(`"`, `\"`, "\r\n", " ", "\n", " ", "\r", " ")

// CommentMatch renders the comment match extension for text. Line
// breaks become spaces since a restore statement is a single line.
func CommentMatch(text string) string {
	return `-m comment --comment "` + commentEscaper.Replace(text) + `"`
}

func withComment(statement, comment string) string {
	if comment == "" {
		return statement
	}
	if statement == "" {
		return CommentMatch(comment)
	}
	return statement + " " + CommentMatch(comment)
}

func renderString(r Renderable) string {
	st, err := r.Statements()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return strings.Join(st, "\n")
}
