package rules

// MatchDeclaration recognizes the match extension selector.
var MatchDeclaration = Declaration{Short: "m", Long: "match"}

// Match returns a list selecting the named match extension, rendered as
// "-m <name>" followed by the extension's options.
func Match(name string, kwargs Kwargs, nested ...*ArgumentList) *ArgumentList {
	kw := kwargs.Clone()
	kw["match"] = name
	return NewDeclaredList([]Declaration{MatchDeclaration}, kw, nested...)
}
