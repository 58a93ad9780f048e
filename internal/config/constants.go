// Package config collects the small named constants the evaluator and
// its surrounding tooling share, instead of scattering magic strings and
// numbers through the packages that use them.
package config

// IsTestMode, when true, makes cmd/txscript print its result lines
// without color codes even on a terminal. It defaults to false, and
// nothing in this module sets it.
var IsTestMode = false

// MaxExpressionDepth is the largest number of nodes a single Eval or
// Resolve call will schedule before refusing to continue; it counts
// every node visited, not nesting depth alone. It turns an adversarial, effectively
// infinite tree into a diagnostic instead of an out-of-memory condition;
// spec.md's depth invariant (§8.6) requires succeeding comfortably below
// this ceiling.
const MaxExpressionDepth = 1_000_000

// TX field selector names, as they appear in ast.TxField and in
// diagnostics/fixtures referring to them by name.
const (
	FieldID        = "Id"
	FieldType      = "Type"
	FieldSenderPK  = "SenderPk"
	FieldBodyBytes = "BodyBytes"
	FieldProof     = "Proof"
)

// MaxProofIndex is the largest proof slot a TX_FIELD Proof(i) selector
// may reference, mirroring the proof-list bound used by the chains this
// spec is distilled from.
const MaxProofIndex = 7
