// Package firewall applies rendered rulesets to the kernel.
//
// # Overview
//
// A firewall definition is loaded, compiled into [tables.Tables] and
// rendered as one iptables-restore script. The script is applied in a
// single restore call so the kernel never sees a partial ruleset.
//
// # Architecture
//
//	Config → Compile → tables.Tables → Render → Restorer → Kernel
//
// # Key Types
//
//   - [Ruleset]: a loaded definition together with its compiled tables
//   - [Restorer]: runs iptables-restore and iptables-save, retrying while
//     the xtables lock is held
//   - [RollbackManager]: saves a checkpoint before applying and restores
//     it when the apply or its verification fails
//   - [CommandRunner]: the process boundary, mocked in tests
//
// # Verification
//
// After an apply every chain of the ruleset is checked with
// go-iptables ([VerifyChains]); [MissingInterfaces] reports zone
// interfaces that do not exist on the host.
package firewall
