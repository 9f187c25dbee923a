package rules

import (
	"fmt"
)

// Origin labels where a rule or container was declared. It is echoed
// into generated comments and error paths so a rendered statement can be
// traced back to its declaration.
type Origin struct {
	File  string
	Line  int
	Label string
}

// Label returns an Origin carrying only a free-form label.
func Label(label string) Origin {
	return Origin{Label: label}
}

// IsZero reports whether no creation context was supplied.
func (o Origin) IsZero() bool {
	return o.File == "" && o.Line == 0 && o.Label == ""
}

func (o Origin) String() string {
	loc := o.File
	if o.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, o.Line)
	}
	switch {
	case loc != "" && o.Label != "":
		return loc + " " + o.Label
	case loc != "":
		return loc
	default:
		return o.Label
	}
}
