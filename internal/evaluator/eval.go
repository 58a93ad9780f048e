package evaluator

import (
	"crypto/ed25519"

	"github.com/vaultchain/txscript/internal/ast"
	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/diagnostics"
	"github.com/vaultchain/txscript/internal/types"
	"github.com/vaultchain/txscript/internal/values"
)

// eCont and eErr mirror rCont/rErr from resolve.go for the evaluation
// phase: a continuation on a value, and a distinct one on failure.
type eCont func(values.Value)
type eErr func(*diagnostics.Diagnostic)

// eMachine is Eval's explicit work stack, the same trampoline shape as
// rMachine. evalInto never calls evalStep directly; it always pushes and
// returns, so a script with ten thousand nested BLOCKs unwinds through
// run's loop rather than through ten thousand native stack frames.
type eMachine struct {
	stack []func()
	steps int
	err   *diagnostics.Diagnostic
}

func (m *eMachine) fail(d *diagnostics.Diagnostic) {
	if m.err == nil {
		m.err = d
	}
	m.stack = nil
}

func (m *eMachine) run() {
	for len(m.stack) > 0 && m.err == nil {
		n := len(m.stack) - 1
		f := m.stack[n]
		m.stack[n] = nil
		m.stack = m.stack[:n]
		f()
	}
}

func evalInto(m *eMachine, ctx *Context, expr ast.Expr, ok eCont, fail eErr) {
	if m.err != nil {
		return
	}
	m.steps++
	if m.steps > config.MaxExpressionDepth {
		m.fail(diagnostics.Execf("expression exceeds the maximum allowed size"))
		return
	}
	m.stack = append(m.stack, func() { evalStep(m, ctx, expr, ok, fail) })
}

func evalStep(m *eMachine, ctx *Context, expr ast.Expr, ok eCont, fail eErr) {
	switch e := expr.(type) {
	case ast.ConstInt:
		ok(values.Int(e.Value))

	case ast.ConstBytevector:
		ok(values.Bytes(e.Value))

	case ast.BoolConst:
		ok(values.Bool(e.Value))

	case ast.None:
		ok(values.None(types.Nothing))

	case ast.Height:
		ok(values.Int(ctx.Domain.Height()))

	case ast.TxField:
		ok(evalTxField(ctx, e.Selector))

	case ast.Ref:
		b, found := ctx.Env.Lookup(e.Name)
		if !found {
			fail(diagnostics.Execf("Definition '%s' not found", e.Name))
			return
		}
		ok(b.Value)

	case ast.Some:
		evalInto(m, ctx, e.Inner, func(v values.Value) { ok(values.Some(v)) }, fail)

	case ast.IsDefined:
		evalInto(m, ctx, e.Opt, func(v values.Value) {
			opt, isOpt := expectOption(v, "IS_DEFINED", fail)
			if !isOpt {
				return
			}
			ok(values.Bool(opt.IsDefined()))
		}, fail)

	case ast.Get:
		evalInto(m, ctx, e.Opt, func(v values.Value) {
			opt, isOpt := expectOption(v, "GET", fail)
			if !isOpt {
				return
			}
			if !opt.IsDefined() {
				fail(diagnostics.Execf("get(NONE)"))
				return
			}
			ok(opt.Value)
		}, fail)

	case ast.Sum:
		evalInto(m, ctx, e.A, func(va values.Value) {
			na, okA := expectInt(va, "SUM", "left", fail)
			if !okA {
				return
			}
			evalInto(m, ctx, e.B, func(vb values.Value) {
				nb, okB := expectInt(vb, "SUM", "right", fail)
				if !okB {
					return
				}
				ok(values.Int(int64(na) + int64(nb)))
			}, fail)
		}, fail)

	case ast.Ge:
		evalInto(m, ctx, e.A, func(va values.Value) {
			na, okA := expectInt(va, "GE", "left", fail)
			if !okA {
				return
			}
			evalInto(m, ctx, e.B, func(vb values.Value) {
				nb, okB := expectInt(vb, "GE", "right", fail)
				if !okB {
					return
				}
				ok(values.Bool(int64(na) >= int64(nb)))
			}, fail)
		}, fail)

	case ast.Gt:
		evalInto(m, ctx, e.A, func(va values.Value) {
			na, okA := expectInt(va, "GT", "left", fail)
			if !okA {
				return
			}
			evalInto(m, ctx, e.B, func(vb values.Value) {
				nb, okB := expectInt(vb, "GT", "right", fail)
				if !okB {
					return
				}
				ok(values.Bool(int64(na) > int64(nb)))
			}, fail)
		}, fail)

	case ast.Eq:
		evalInto(m, ctx, e.A, func(va values.Value) {
			evalInto(m, ctx, e.B, func(vb values.Value) {
				if _, unified := types.Unify(va.Type(), vb.Type()); !unified {
					fail(diagnostics.Typef(" for EQ: RType(%s) differs from LType(%s)", vb.Type().String(), va.Type().String()))
					return
				}
				ok(values.Bool(values.Equal(va, vb)))
			}, fail)
		}, fail)

	case ast.And:
		evalInto(m, ctx, e.A, func(va values.Value) {
			ba, okA := expectBool(va, "AND", "left", fail)
			if !okA {
				return
			}
			if !bool(ba) {
				ok(values.Bool(false))
				return
			}
			evalInto(m, ctx, e.B, func(vb values.Value) {
				bb, okB := expectBool(vb, "AND", "right", fail)
				if !okB {
					return
				}
				ok(values.Bool(bb))
			}, fail)
		}, fail)

	case ast.Or:
		evalInto(m, ctx, e.A, func(va values.Value) {
			ba, okA := expectBool(va, "OR", "left", fail)
			if !okA {
				return
			}
			if bool(ba) {
				ok(values.Bool(true))
				return
			}
			evalInto(m, ctx, e.B, func(vb values.Value) {
				bb, okB := expectBool(vb, "OR", "right", fail)
				if !okB {
					return
				}
				ok(values.Bool(bb))
			}, fail)
		}, fail)

	case ast.If:
		thenType, d := Resolve(ctx.Env, e.Then)
		if d != nil {
			fail(d)
			return
		}
		elseType, d := Resolve(ctx.Env, e.Else)
		if d != nil {
			fail(d)
			return
		}
		if _, unified := types.Unify(thenType, elseType); !unified {
			fail(diagnostics.Typef(" for IF: RType(%s) differs from LType(%s)", elseType.String(), thenType.String()))
			return
		}
		evalInto(m, ctx, e.Cond, func(vc values.Value) {
			bc, okC := expectBool(vc, "IF", "cond", fail)
			if !okC {
				return
			}
			if bool(bc) {
				evalInto(m, ctx, e.Then, ok, fail)
			} else {
				evalInto(m, ctx, e.Else, ok, fail)
			}
		}, fail)

	case ast.Block:
		if e.Let == nil {
			evalInto(m, ctx, e.Body, ok, fail)
			return
		}
		if ctx.Env.Bound(e.Let.Name) {
			fail(diagnostics.Execf("Value '%s' already defined in the scope", e.Let.Name))
			return
		}
		evalInto(m, ctx, e.Let.Value, func(v values.Value) {
			nextEnv := ctx.Env.Extend(e.Let.Name, Binding{Type: v.Type(), Value: v})
			evalInto(m, ctx.WithEnv(nextEnv), e.Body, ok, fail)
		}, fail)

	case ast.SigVerify:
		evalInto(m, ctx, e.Msg, func(vm values.Value) {
			msg, okM := expectBytes(vm, "SIG_VERIFY", "msg", fail)
			if !okM {
				return
			}
			evalInto(m, ctx, e.Sig, func(vs values.Value) {
				sig, okS := expectBytes(vs, "SIG_VERIFY", "sig", fail)
				if !okS {
					return
				}
				evalInto(m, ctx, e.PK, func(vpk values.Value) {
					pk, okPK := expectBytes(vpk, "SIG_VERIFY", "pk", fail)
					if !okPK {
						return
					}
					ok(values.Bool(verifyEd25519([]byte(pk), []byte(msg), []byte(sig))))
				}, fail)
			}, fail)
		}, fail)

	default:
		fail(diagnostics.Execf("cannot evaluate expression"))
	}
}

// expectInt, expectBool, expectBytes and expectOption are evalStep's
// checked replacement for a bare type assertion: every operand of a
// composite node reaches Eval already past Resolve's own operand check
// in the ordinary pipeline (see Evaluate), but Eval must still refuse to
// panic when called directly on a tree Resolve never saw, so each of
// these fails with a diagnostic rather than letting a failed assertion
// reach the caller as a runtime panic.
func expectInt(v values.Value, op, slot string, fail eErr) (values.Int, bool) {
	n, isInt := v.(values.Int)
	if !isInt {
		fail(diagnostics.Typef(": %s's %s operand must be Int, got %s", op, slot, v.Type().String()))
		return 0, false
	}
	return n, true
}

func expectBool(v values.Value, op, slot string, fail eErr) (values.Bool, bool) {
	b, isBool := v.(values.Bool)
	if !isBool {
		fail(diagnostics.Typef(": %s's %s operand must be Boolean, got %s", op, slot, v.Type().String()))
		return false, false
	}
	return b, true
}

func expectBytes(v values.Value, op, slot string, fail eErr) (values.Bytes, bool) {
	b, isBytes := v.(values.Bytes)
	if !isBytes {
		fail(diagnostics.Typef(": %s's %s operand must be ByteVector, got %s", op, slot, v.Type().String()))
		return nil, false
	}
	return b, true
}

func expectOption(v values.Value, op string, fail eErr) (values.Option, bool) {
	o, isOption := v.(values.Option)
	if !isOption {
		fail(diagnostics.Typef(": %s called on %s, but only call on OPTION[_] is allowed", op, v.Type().String()))
		return values.Option{}, false
	}
	return o, true
}

func evalTxField(ctx *Context, sel ast.FieldSelector) values.Value {
	switch sel.Name {
	case config.FieldID:
		return values.Bytes(ctx.Domain.ID())
	case config.FieldSenderPK:
		return values.Bytes(ctx.Domain.SenderPK())
	case config.FieldBodyBytes:
		return values.Bytes(ctx.Domain.BodyBytes())
	case config.FieldType:
		return values.Int(ctx.Domain.Type())
	case config.FieldProof:
		proof, ok := ctx.Domain.Proof(sel.ProofIndex)
		if !ok {
			return values.None(types.ByteVector)
		}
		return values.Some(values.Bytes(proof))
	default:
		return values.None(types.Nothing)
	}
}

// verifyEd25519 reports whether sig is pk's valid Ed25519 signature over
// msg. A malformed key or signature encoding is a false result, never a
// diagnostic: spec's SIG_VERIFY never fails typed-correct BYTEVECTOR
// inputs, it only ever returns a BOOLEAN.
func verifyEd25519(pk, msg, sig []byte) bool {
	if len(pk) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig)
}

// Eval evaluates expr to a value under ctx, or returns the diagnostic
// explaining why it could not.
func Eval(ctx *Context, expr ast.Expr) (values.Value, *diagnostics.Diagnostic) {
	m := &eMachine{}
	var result values.Value
	evalInto(m, ctx, expr,
		func(v values.Value) { result = v },
		func(d *diagnostics.Diagnostic) { m.fail(d) })
	m.run()
	if m.err != nil {
		return nil, m.err
	}
	return result, nil
}

// Evaluate is the public entry point spec.md §6 describes as
// evaluate<T>(ctx, expr): it resolves expr's static type first, and only
// proceeds to Eval once that type unifies with want. Pass nil for want
// when the caller has no expected type of its own and simply wants
// whatever the script resolves to. Running Resolve first statically
// checks every operand except an IF's condition, whose BOOLEAN type Eval
// checks when it evaluates it. A mismatch
// against a non-nil want is reported as a diagnostic, never a panic.
func Evaluate(ctx *Context, expr ast.Expr, want types.Type) (values.Value, *diagnostics.Diagnostic) {
	got, d := Resolve(ctx.Env, expr)
	if d != nil {
		return nil, d
	}
	if want != nil {
		if _, unified := types.Unify(got, want); !unified {
			return nil, diagnostics.Typef(" for caller: expected %s, got %s", want.String(), got.String())
		}
	}
	return Eval(ctx, expr)
}
