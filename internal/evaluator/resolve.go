package evaluator

import (
	"github.com/vaultchain/txscript/internal/ast"
	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/diagnostics"
	"github.com/vaultchain/txscript/internal/types"
)

// rCont and rErr are the two continuations resolveInto ever calls: one on
// a resolved type, one on failure. Keeping failure a distinct
// continuation (rather than a single (Type, *Diagnostic) return) is what
// lets GET and SOME rewrap an inner failure's message while every other
// node forwards it unchanged.
type rCont func(types.Type)
type rErr func(*diagnostics.Diagnostic)

// rMachine is Resolve's explicit work stack. resolveInto never resolves a
// node by calling resolveStep directly; it always pushes a thunk and
// returns, so run's loop — not Go's call stack — is what grows with the
// size of the expression tree.
type rMachine struct {
	stack []func()
	steps int
	err   *diagnostics.Diagnostic
}

func (m *rMachine) fail(d *diagnostics.Diagnostic) {
	if m.err == nil {
		m.err = d
	}
	m.stack = nil
}

func (m *rMachine) run() {
	for len(m.stack) > 0 && m.err == nil {
		n := len(m.stack) - 1
		f := m.stack[n]
		m.stack[n] = nil
		m.stack = m.stack[:n]
		f()
	}
}

// resolveInto schedules expr's type resolution. It is the only way
// resolveStep is ever invoked, so every recursive reference to a subterm
// goes through this function and therefore through the stack, never
// through a direct Go call.
func resolveInto(m *rMachine, env *Environment, expr ast.Expr, ok rCont, fail rErr) {
	if m.err != nil {
		return
	}
	m.steps++
	if m.steps > config.MaxExpressionDepth {
		m.fail(diagnostics.Execf("expression exceeds the maximum allowed size"))
		return
	}
	m.stack = append(m.stack, func() { resolveStep(m, env, expr, ok, fail) })
}

// wrapTypeErr rewraps an inner resolution failure the way GET and SOME
// are required to: the inner message becomes the suffix of a fresh
// "Typecheck failed: ..." diagnostic, even when the inner message already
// started with that same prefix.
func wrapTypeErr(d *diagnostics.Diagnostic) *diagnostics.Diagnostic {
	return diagnostics.Typef(": %s", d.Error())
}

func resolveStep(m *rMachine, env *Environment, expr ast.Expr, ok rCont, fail rErr) {
	switch e := expr.(type) {
	// These leaves have no subterms, so PredefinedType's fixed result is
	// the whole story.
	case ast.ConstInt, ast.ConstBytevector, ast.BoolConst, ast.None, ast.Height, ast.TxField:
		t, _ := expr.PredefinedType()
		ok(t)

	case ast.Ref:
		b, found := env.Lookup(e.Name)
		if !found {
			fail(diagnostics.Typef(": Cannot resolve type of %s", e.Name))
			return
		}
		ok(b.Type)

	case ast.Some:
		resolveInto(m, env, e.Inner,
			func(t types.Type) { ok(types.Option(t)) },
			func(d *diagnostics.Diagnostic) { fail(wrapTypeErr(d)) })

	// SUM/GE/GT/AND/OR/IS_DEFINED/SIG_VERIFY have a fixed result type
	// (see their PredefinedType), but that does not excuse checking their
	// operands: an ill-typed operand must resolve to a diagnostic here so
	// that a successful Resolve is a genuine guarantee that Eval cannot
	// panic on it.
	case ast.Sum:
		resolveBinaryIntOp(m, env, e.A, e.B, "SUM", types.Int, ok, fail)

	case ast.Ge:
		resolveBinaryIntOp(m, env, e.A, e.B, "GE", types.Boolean, ok, fail)

	case ast.Gt:
		resolveBinaryIntOp(m, env, e.A, e.B, "GT", types.Boolean, ok, fail)

	case ast.And:
		resolveBinaryBoolOp(m, env, e.A, e.B, "AND", ok, fail)

	case ast.Or:
		resolveBinaryBoolOp(m, env, e.A, e.B, "OR", ok, fail)

	case ast.IsDefined:
		resolveInto(m, env, e.Opt, func(t types.Type) {
			if _, isOption := t.(types.OptionType); !isOption {
				fail(diagnostics.Typef(": IS_DEFINED called on %s, but only call on OPTION[_] is allowed", t.String()))
				return
			}
			ok(types.Boolean)
		}, fail)

	case ast.SigVerify:
		resolveExpect(m, env, e.Msg, "SIG_VERIFY", "msg", types.ByteVector, func() {
			resolveExpect(m, env, e.Sig, "SIG_VERIFY", "sig", types.ByteVector, func() {
				resolveExpect(m, env, e.PK, "SIG_VERIFY", "pk", types.ByteVector, func() {
					ok(types.Boolean)
				}, fail)
			}, fail)
		}, fail)

	case ast.Eq:
		resolveInto(m, env, e.A, func(ta types.Type) {
			resolveInto(m, env, e.B, func(tb types.Type) {
				if _, unified := types.Unify(ta, tb); !unified {
					fail(diagnostics.Typef(" for EQ: RType(%s) differs from LType(%s)", tb.String(), ta.String()))
					return
				}
				ok(types.Boolean)
			}, fail)
		}, fail)

	case ast.If:
		resolveInto(m, env, e.Then, func(lt types.Type) {
			resolveInto(m, env, e.Else, func(rt types.Type) {
				unified, matched := types.Unify(lt, rt)
				if !matched {
					fail(diagnostics.Typef(" for IF: RType(%s) differs from LType(%s)", rt.String(), lt.String()))
					return
				}
				ok(unified)
			}, fail)
		}, fail)

	case ast.Get:
		resolveInto(m, env, e.Opt, func(t types.Type) {
			opt, isOption := t.(types.OptionType)
			if !isOption {
				fail(diagnostics.Typef(": GET called on %s, but only call on OPTION[_] is allowed", t.String()))
				return
			}
			ok(opt.Inner)
		}, func(d *diagnostics.Diagnostic) { fail(wrapTypeErr(d)) })

	case ast.Block:
		if e.Let == nil {
			resolveInto(m, env, e.Body, ok, fail)
			return
		}
		resolveInto(m, env, e.Let.Value, func(t types.Type) {
			// The resolver never enforces the shadowing prohibition
			// (spec §4.2): it only needs e.Let.Name's type in scope to
			// resolve Body, so it always extends env here regardless of
			// whether name is already bound. Evaluation is what rejects a
			// shadowing LET.
			inner := env.Extend(e.Let.Name, Binding{Type: t})
			resolveInto(m, inner, e.Body, ok, fail)
		}, fail)

	default:
		fail(diagnostics.Typef(": Cannot resolve type of expression"))
	}
}

// resolveExpect resolves expr and requires its type equal want, calling
// ok with no argument on success (the result type at this slot is
// already fixed by the caller) or failing with a diagnostic naming op,
// slot and the type actually found.
func resolveExpect(m *rMachine, env *Environment, expr ast.Expr, op, slot string, want types.Type, ok func(), fail rErr) {
	resolveInto(m, env, expr, func(t types.Type) {
		if !types.Equal(t, want) {
			fail(diagnostics.Typef(": %s's %s operand must be %s, got %s", op, slot, want.String(), t.String()))
			return
		}
		ok()
	}, fail)
}

func resolveBinaryIntOp(m *rMachine, env *Environment, a, b ast.Expr, op string, result types.Type, ok rCont, fail rErr) {
	resolveExpect(m, env, a, op, "left", types.Int, func() {
		resolveExpect(m, env, b, op, "right", types.Int, func() {
			ok(result)
		}, fail)
	}, fail)
}

func resolveBinaryBoolOp(m *rMachine, env *Environment, a, b ast.Expr, op string, ok rCont, fail rErr) {
	resolveExpect(m, env, a, op, "left", types.Boolean, func() {
		resolveExpect(m, env, b, op, "right", types.Boolean, func() {
			ok(types.Boolean)
		}, fail)
	}, fail)
}

// Resolve returns expr's static type under env, or the diagnostic
// explaining why no type could be assigned.
func Resolve(env *Environment, expr ast.Expr) (types.Type, *diagnostics.Diagnostic) {
	m := &rMachine{}
	var result types.Type
	resolveInto(m, env, expr,
		func(t types.Type) { result = t },
		func(d *diagnostics.Diagnostic) { m.fail(d) })
	m.run()
	if m.err != nil {
		return nil, m.err
	}
	return result, nil
}
