package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Argument validation and lookup errors.
var (
	ErrNameMismatch      = errors.New("name does not match declaration")
	ErrUnsupportedSuffix = errors.New("only 'not' is supported as an argument suffix")
	ErrNotInvertible     = errors.New("argument is not invertible")
	ErrInvalidType       = errors.New("argument value has the wrong type")
	ErrMalformedName     = errors.New("badly formatted argument name")
	ErrArgumentNotFound  = errors.New("argument not in list")
	ErrEmptyRule         = errors.New("custom rule text is empty")
)

// PathError annotates a rendering failure with the containers it
// propagated through, outermost first.
type PathError struct {
	Path []string
	Err  error
}

func (e *PathError) Error() string {
	var b strings.Builder
	b.WriteString("iptables error at:\n")
	for _, elem := range e.Path {
		for i, line := range strings.Split(elem, "\n") {
			if i == 0 {
				b.WriteString("    ")
			} else {
				b.WriteString("        ")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nError message: ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// WithPath prepends elem to the path carried by err, wrapping err in a
// PathError if it is not one already. A nil err stays nil.
func WithPath(err error, elem string) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PathError); ok {
		path := make([]string, 0, len(pe.Path)+1)
		path = append(path, elem)
		path = append(path, pe.Path...)
		return &PathError{Path: path, Err: pe.Err}
	}
	return &PathError{Path: []string{elem}, Err: err}
}

// DescribeRule returns the path element used for r in a PathError.
func DescribeRule(r Renderable) string {
	created := "unknown"
	if o := r.Origin(); !o.IsZero() {
		created = o.String()
	}
	return fmt.Sprintf("Rule:\ncreated: %s\ncomment: %s", created, r.Comment())
}
