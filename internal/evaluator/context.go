package evaluator

import "github.com/vaultchain/txscript/internal/domain"

// Context is spec.md §2's "domain view plus a definition environment":
// everything Eval needs besides the expression itself. Both fields are
// immutable for the duration of an evaluation; extending the
// environment (BLOCK with a LET) produces a new Context sharing the
// same Domain rather than mutating this one.
type Context struct {
	Domain domain.Context
	Env    *Environment
}

// NewContext builds a Context with an empty environment.
func NewContext(d domain.Context) *Context {
	return &Context{Domain: d}
}

// WithEnv returns a Context sharing d's Domain but using env in place of
// d's current environment.
func (c *Context) WithEnv(env *Environment) *Context {
	return &Context{Domain: c.Domain, Env: env}
}
