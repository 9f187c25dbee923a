package rules

// Standard targets.
const (
	TargetAccept   = "ACCEPT"
	TargetDrop     = "DROP"
	TargetReject   = "REJECT"
	TargetReturn   = "RETURN"
	TargetRedirect = "REDIRECT"
	TargetLog      = "LOG"
	TargetMark     = "MARK"
)

// Built-in terminal rules. Derive from them; they are never modified.
var (
	Accept   = New(Kwargs{"jump": TargetAccept})
	Drop     = New(Kwargs{"jump": TargetDrop})
	Reject   = New(Kwargs{"jump": TargetReject})
	Return   = New(Kwargs{"jump": TargetReturn})
	Redirect = New(Kwargs{"jump": TargetRedirect})
	Log      = New(Kwargs{"jump": TargetLog})
)

// Jump returns a rule jumping to target, usually a user chain.
func Jump(target string, kwargs Kwargs, opts ...Option) *Rule {
	kw := kwargs.Clone()
	kw["jump"] = target
	return New(kw, opts...)
}

// Goto returns a rule continuing processing in target without
// returning to the calling chain.
func Goto(target string, kwargs Kwargs, opts ...Option) *Rule {
	kw := kwargs.Clone()
	kw["goto"] = target
	return New(kw, opts...)
}
