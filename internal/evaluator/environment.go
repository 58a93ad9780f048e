// Package evaluator implements the two phases spec.md describes: static
// type resolution (Resolve) and evaluation to a concrete value (Eval).
// Both are written as explicit-stack trampolines (rMachine in resolve.go,
// eMachine in eval.go) so
// that expression trees of unbounded depth never grow Go's native call
// stack proportionally to that depth.
package evaluator

import (
	"github.com/vaultchain/txscript/internal/types"
	"github.com/vaultchain/txscript/internal/values"
)

// Binding is what an Environment maps a name to: a statically resolved
// type, and — once evaluation has actually bound a value — the value
// itself. Value is nil while only the type is known, which is the case
// throughout Resolve (spec.md §3: "the slot may be absent during
// type-only resolution").
type Binding struct {
	Type  types.Type
	Value values.Value
}

// Environment is an immutable, persistent association list from name to
// Binding. Extending an environment never mutates the parent: Extend
// returns a new node whose parent pointer is the receiver, so sibling
// scopes built from the same parent never observe each other's
// bindings. Lookup walks outward, so the innermost (most recent)
// binding for a name always wins — and so that a LET nested inside
// another BLOCK can see (and must not shadow) names bound by any
// enclosing BLOCK, not just its immediate parent.
type Environment struct {
	parent  *Environment
	name    string
	binding Binding
}

// Lookup finds the nearest binding for name, searching this scope and
// then every enclosing one. A nil *Environment (the empty environment)
// always misses.
func (e *Environment) Lookup(name string) (Binding, bool) {
	for env := e; env != nil; env = env.parent {
		if env.name == name {
			return env.binding, true
		}
	}
	return Binding{}, false
}

// Bound reports whether name is already bound anywhere in this
// environment chain — the check spec.md §3's shadowing prohibition
// requires before a BLOCK's LET may introduce it.
func (e *Environment) Bound(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Extend returns a new environment with name bound to binding, leaving
// e itself untouched.
func (e *Environment) Extend(name string, binding Binding) *Environment {
	return &Environment{parent: e, name: name, binding: binding}
}
