// Package rules models iptables-restore rule statements.
//
// An ArgumentList resolves keyword arguments against a table of
// Declarations: names that match a declaration become DeclaredArguments
// (typed, possibly inverted with a "__not" suffix), everything else is
// passed through as a CustomArgument. Rules wrap an ArgumentList with an
// optional comment and creation Origin, and are derived rather than
// mutated: Derive always returns a new value and leaves the receiver
// untouched.
//
//	ssh := rules.Accept.Derive(rules.Kwargs{"proto": "tcp"},
//		rules.WithComment("ssh"),
//		rules.WithArgs(rules.Match("multiport", rules.Kwargs{"dports": "22"})))
//	lines, err := ssh.Statements()
//	// -p tcp -j ACCEPT -m multiport --dports 22 -m comment --comment "ssh"
package rules
