package evaluator

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"testing"

	"github.com/vaultchain/txscript/internal/ast"
	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/domain"
	"github.com/vaultchain/txscript/internal/types"
	"github.com/vaultchain/txscript/internal/values"
)

func newTestContext() *Context {
	return NewContext(&domain.Static{
		HeightValue:    100,
		IDValue:        []byte{0x01},
		TypeValue:      4,
		SenderPKValue:  []byte{0x02},
		BodyBytesValue: []byte{0x03},
		Proofs:         [][]byte{{0xaa}, nil, {0xbb}},
	})
}

func mustEval(t *testing.T, ctx *Context, expr ast.Expr) values.Value {
	t.Helper()
	v, d := Eval(ctx, expr)
	if d != nil {
		t.Fatalf("Eval(%#v) failed: %s", expr, d.Error())
	}
	return v
}

func TestEvalConstants(t *testing.T) {
	ctx := newTestContext()
	if v := mustEval(t, ctx, ast.ConstInt{Value: 7}); v != values.Int(7) {
		t.Errorf("ConstInt: got %v", v)
	}
	if v := mustEval(t, ctx, ast.True()); v != values.Bool(true) {
		t.Errorf("TRUE: got %v", v)
	}
	if v := mustEval(t, ctx, ast.False()); v != values.Bool(false) {
		t.Errorf("FALSE: got %v", v)
	}
	v := mustEval(t, ctx, ast.None{})
	opt := v.(values.Option)
	if opt.IsDefined() {
		t.Errorf("NONE should not be defined")
	}
}

func TestEvalSumGeGt(t *testing.T) {
	ctx := newTestContext()
	if v := mustEval(t, ctx, ast.Sum{A: ast.ConstInt{Value: 2}, B: ast.ConstInt{Value: 3}}); v != values.Int(5) {
		t.Errorf("SUM(2,3) = %v, want 5", v)
	}
	if v := mustEval(t, ctx, ast.Ge{A: ast.ConstInt{Value: 3}, B: ast.ConstInt{Value: 3}}); v != values.Bool(true) {
		t.Errorf("GE(3,3) = %v, want true", v)
	}
	if v := mustEval(t, ctx, ast.Gt{A: ast.ConstInt{Value: 3}, B: ast.ConstInt{Value: 3}}); v != values.Bool(false) {
		t.Errorf("GT(3,3) = %v, want false", v)
	}
}

func TestEvalAndOrShortCircuit(t *testing.T) {
	ctx := newTestContext()
	// AND(FALSE, GET(NONE)) must short-circuit and never evaluate B.
	expr := ast.And{A: ast.False(), B: ast.Get{Opt: ast.None{}}}
	if v := mustEval(t, ctx, expr); v != values.Bool(false) {
		t.Errorf("AND short-circuit: got %v, want false", v)
	}

	// OR(TRUE, GET(NONE)) must short-circuit and never evaluate B.
	orExpr := ast.Or{A: ast.True(), B: ast.Get{Opt: ast.None{}}}
	if v := mustEval(t, ctx, orExpr); v != values.Bool(true) {
		t.Errorf("OR short-circuit: got %v, want true", v)
	}
}

func TestEvalIfTakesOnlySelectedBranch(t *testing.T) {
	ctx := newTestContext()
	// IF(TRUE, 1, GET(NONE)) must not evaluate the untaken Else branch.
	expr := ast.If{Cond: ast.True(), Then: ast.ConstInt{Value: 1}, Else: ast.Get{Opt: ast.None{}}}
	if v := mustEval(t, ctx, expr); v != values.Int(1) {
		t.Errorf("IF: got %v, want 1", v)
	}
}

func TestEvalIfBranchTypeMismatch(t *testing.T) {
	ctx := newTestContext()
	expr := ast.If{Cond: ast.True(), Then: ast.ConstInt{Value: 1}, Else: ast.True()}
	_, d := Eval(ctx, expr)
	if d == nil {
		t.Fatal("expected a type error for mismatched IF branches")
	}
	if !strings.Contains(d.Error(), "Typecheck failed for IF") {
		t.Errorf("unexpected message: %s", d.Error())
	}
}

func TestEvalEqMismatch(t *testing.T) {
	ctx := newTestContext()
	expr := ast.Eq{A: ast.ConstInt{Value: 1}, B: ast.True()}
	_, d := Eval(ctx, expr)
	if d == nil {
		t.Fatal("expected a type error for mismatched EQ operands")
	}
	if !strings.Contains(d.Error(), "Typecheck failed for EQ") {
		t.Errorf("unexpected message: %s", d.Error())
	}
}

func TestEvalGetNone(t *testing.T) {
	ctx := newTestContext()
	_, d := Eval(ctx, ast.Get{Opt: ast.None{}})
	if d == nil || d.Error() != "get(NONE)" {
		t.Fatalf("expected diagnostic %q, got %v", "get(NONE)", d)
	}
}

func TestEvalRefNotFound(t *testing.T) {
	ctx := newTestContext()
	_, d := Eval(ctx, ast.Ref{Name: "x"})
	if d == nil || d.Error() != "Definition 'x' not found" {
		t.Fatalf("expected definition-not-found diagnostic, got %v", d)
	}
}

func TestEvalBlockLetShadowingIsRejected(t *testing.T) {
	ctx := newTestContext()
	// BLOCK(LET(x,1), BLOCK(LET(x,2), REF(x))) — a LET may not rebind a
	// name already bound by an enclosing BLOCK.
	expr := ast.Block{
		Let: &ast.Let{Name: "x", Value: ast.ConstInt{Value: 1}},
		Body: ast.Block{
			Let:  &ast.Let{Name: "x", Value: ast.ConstInt{Value: 2}},
			Body: ast.Ref{Name: "x"},
		},
	}
	_, d := Eval(ctx, expr)
	want := "Value 'x' already defined in the scope"
	if d == nil || d.Error() != want {
		t.Fatalf("expected %q, got %v", want, d)
	}
}

func TestEvalBlockLetLookup(t *testing.T) {
	ctx := newTestContext()
	expr := ast.Block{
		Let:  &ast.Let{Name: "x", Value: ast.ConstInt{Value: 41}},
		Body: ast.Sum{A: ast.Ref{Name: "x"}, B: ast.ConstInt{Value: 1}},
	}
	if v := mustEval(t, ctx, expr); v != values.Int(42) {
		t.Errorf("BLOCK(LET(x,41), SUM(x,1)) = %v, want 42", v)
	}
}

func TestEvalHeightAndTxField(t *testing.T) {
	ctx := newTestContext()
	if v := mustEval(t, ctx, ast.Height{}); v != values.Int(100) {
		t.Errorf("HEIGHT = %v, want 100", v)
	}
	idField := ast.TxField{Selector: ast.FieldSelector{Name: config.FieldID}}
	if v := mustEval(t, ctx, idField); string(v.(values.Bytes)) != "\x01" {
		t.Errorf("TX_FIELD(Id) = %v", v)
	}
	presentProof := ast.TxField{Selector: ast.FieldSelector{Name: config.FieldProof, ProofIndex: 0}}
	v := mustEval(t, ctx, presentProof)
	if !v.(values.Option).IsDefined() {
		t.Errorf("TX_FIELD(Proof(0)) should be defined")
	}
	absentProof := ast.TxField{Selector: ast.FieldSelector{Name: config.FieldProof, ProofIndex: 1}}
	v = mustEval(t, ctx, absentProof)
	if v.(values.Option).IsDefined() {
		t.Errorf("TX_FIELD(Proof(1)) should be absent")
	}
}

func TestEvalSigVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("hello")
	sig := ed25519.Sign(priv, msg)

	ctx := newTestContext()
	expr := ast.SigVerify{
		Msg: ast.ConstBytevector{Value: msg},
		Sig: ast.ConstBytevector{Value: sig},
		PK:  ast.ConstBytevector{Value: pub},
	}
	if v := mustEval(t, ctx, expr); v != values.Bool(true) {
		t.Errorf("SIG_VERIFY with valid signature = %v, want true", v)
	}

	badExpr := ast.SigVerify{
		Msg: ast.ConstBytevector{Value: []byte("tampered")},
		Sig: ast.ConstBytevector{Value: sig},
		PK:  ast.ConstBytevector{Value: pub},
	}
	if v := mustEval(t, ctx, badExpr); v != values.Bool(false) {
		t.Errorf("SIG_VERIFY with tampered message = %v, want false", v)
	}

	malformedExpr := ast.SigVerify{
		Msg: ast.ConstBytevector{Value: msg},
		Sig: ast.ConstBytevector{Value: []byte{0x01}},
		PK:  ast.ConstBytevector{Value: pub},
	}
	if v := mustEval(t, ctx, malformedExpr); v != values.Bool(false) {
		t.Errorf("SIG_VERIFY with malformed signature = %v, want false", v)
	}
}

// TestEvalRejectsIllTypedOperandsWithoutPanicking drives Eval directly
// (bypassing Resolve, the way cmd/txscript and internal/validator used
// to) on operands whose concrete runtime shape does not match what the
// node expects, and asserts a diagnostic comes back rather than an
// interface-conversion panic.
func TestEvalRejectsIllTypedOperandsWithoutPanicking(t *testing.T) {
	ctx := newTestContext()
	cases := []struct {
		name string
		expr ast.Expr
	}{
		{"SUM", ast.Sum{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"GE", ast.Ge{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"GT", ast.Gt{A: ast.ConstInt{Value: 1}, B: ast.True()}},
		{"AND", ast.And{A: ast.ConstInt{Value: 1}, B: ast.True()}},
		{"AND-right", ast.And{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"OR", ast.Or{A: ast.ConstInt{Value: 1}, B: ast.True()}},
		{"IS_DEFINED", ast.IsDefined{Opt: ast.ConstInt{Value: 1}}},
		{"GET", ast.Get{Opt: ast.ConstInt{Value: 1}}},
		{"IF-cond", ast.If{Cond: ast.ConstInt{Value: 1}, Then: ast.ConstInt{Value: 1}, Else: ast.ConstInt{Value: 2}}},
		{"SIG_VERIFY-msg", ast.SigVerify{Msg: ast.ConstInt{Value: 1}, Sig: ast.ConstBytevector{Value: []byte{1}}, PK: ast.ConstBytevector{Value: []byte{2}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, d := Eval(ctx, c.expr)
			if d == nil {
				t.Fatalf("expected a diagnostic, Eval did not panic but also did not fail")
			}
		})
	}
}

func TestEvaluateChecksCallerExpectedType(t *testing.T) {
	ctx := newTestContext()
	expr := ast.Sum{A: ast.ConstInt{Value: 2}, B: ast.ConstInt{Value: 3}}

	v, d := Evaluate(ctx, expr, types.Int)
	if d != nil {
		t.Fatalf("Evaluate with matching want failed: %s", d.Error())
	}
	if v != values.Int(5) {
		t.Errorf("Evaluate(SUM) = %v, want 5", v)
	}

	_, d = Evaluate(ctx, expr, types.Boolean)
	if d == nil {
		t.Fatal("expected a diagnostic for a mismatched caller-expected type")
	}
	if !strings.Contains(d.Error(), "Typecheck failed") {
		t.Errorf("unexpected message: %s", d.Error())
	}
}

func TestEvaluateWithNilWantAcceptsResolvedType(t *testing.T) {
	ctx := newTestContext()
	v, d := Evaluate(ctx, ast.True(), nil)
	if d != nil {
		t.Fatalf("Evaluate(nil want) failed: %s", d.Error())
	}
	if v != values.Bool(true) {
		t.Errorf("Evaluate(TRUE, nil) = %v, want true", v)
	}
}

func TestEvaluateRunsResolveBeforeEval(t *testing.T) {
	ctx := newTestContext()
	// AND(FALSE, 1): Eval alone short-circuits to false without looking
	// at the ill-typed right operand, so a diagnostic here can only come
	// from Resolve having run before Eval.
	expr := ast.And{A: ast.False(), B: ast.ConstInt{Value: 1}}
	_, d := Evaluate(ctx, expr, nil)
	if d == nil {
		t.Fatal("expected a diagnostic")
	}
	if !strings.Contains(d.Error(), "Typecheck failed") {
		t.Errorf("unexpected message: %s", d.Error())
	}
}

func TestResolveBasic(t *testing.T) {
	env := (*Environment)(nil)
	ty, d := Resolve(env, ast.Sum{A: ast.ConstInt{Value: 1}, B: ast.ConstInt{Value: 2}})
	if d != nil {
		t.Fatalf("Resolve failed: %s", d.Error())
	}
	if !types.Equal(ty, types.Int) {
		t.Errorf("Resolve(SUM) = %s, want Int", ty)
	}
}

func TestResolveRefUnbound(t *testing.T) {
	env := (*Environment)(nil)
	_, d := Resolve(env, ast.Ref{Name: "missing"})
	want := "Typecheck failed: Cannot resolve type of missing"
	if d == nil || d.Error() != want {
		t.Fatalf("expected %q, got %v", want, d)
	}
}

func TestResolveGetWrapsInnerFailure(t *testing.T) {
	env := (*Environment)(nil)
	// GET(REF(x)): REF(x) fails to resolve, GET must rewrap the message.
	_, d := Resolve(env, ast.Get{Opt: ast.Ref{Name: "x"}})
	want := "Typecheck failed: Typecheck failed: Cannot resolve type of x"
	if d == nil || d.Error() != want {
		t.Fatalf("expected %q, got %v", want, d)
	}
}

func TestResolveRejectsIllTypedOperands(t *testing.T) {
	env := (*Environment)(nil)
	cases := []struct {
		name string
		expr ast.Expr
	}{
		{"SUM", ast.Sum{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"GE", ast.Ge{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"AND", ast.And{A: ast.ConstInt{Value: 1}, B: ast.True()}},
		{"OR", ast.Or{A: ast.True(), B: ast.ConstInt{Value: 1}}},
		{"IS_DEFINED", ast.IsDefined{Opt: ast.ConstInt{Value: 1}}},
		{"SIG_VERIFY", ast.SigVerify{Msg: ast.ConstInt{Value: 1}, Sig: ast.ConstBytevector{Value: []byte{1}}, PK: ast.ConstBytevector{Value: []byte{2}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, d := Resolve(env, c.expr)
			if d == nil {
				t.Fatalf("expected a type error for an ill-typed operand")
			}
			if !strings.Contains(d.Error(), "Typecheck failed") {
				t.Errorf("unexpected message: %s", d.Error())
			}
		})
	}
}

func TestResolveDoesNotEnforceShadowing(t *testing.T) {
	env := (*Environment)(nil)
	// The resolver never rejects shadowing; only Eval does (spec §4.2).
	expr := ast.Block{
		Let: &ast.Let{Name: "x", Value: ast.ConstInt{Value: 1}},
		Body: ast.Block{
			Let:  &ast.Let{Name: "x", Value: ast.True()},
			Body: ast.Ref{Name: "x"},
		},
	}
	ty, d := Resolve(env, expr)
	if d != nil {
		t.Fatalf("Resolve should not enforce shadowing, got error: %s", d.Error())
	}
	if !types.Equal(ty, types.Boolean) {
		t.Errorf("Resolve should resolve the innermost x, got %s", ty)
	}
}

// TestDeepBlockChainDoesNotOverflowStack builds a right-leaning chain of
// nested BLOCKs far past any plausible native call-stack depth, using a
// loop rather than recursion in the test itself, and asserts the
// evaluator handles it without panicking — the concrete form of spec.md
// §8's depth invariant.
func TestDeepBlockChainDoesNotOverflowStack(t *testing.T) {
	const depth = 20000

	var expr ast.Expr = ast.ConstInt{Value: 0}
	for i := 0; i < depth; i++ {
		expr = ast.Block{Body: expr}
	}

	ctx := newTestContext()
	v, d := Eval(ctx, expr)
	if d != nil {
		t.Fatalf("deep BLOCK chain failed: %s", d.Error())
	}
	if v != values.Int(0) {
		t.Errorf("deep BLOCK chain result = %v, want 0", v)
	}
}

func TestDeepBlockChainWithLetBindings(t *testing.T) {
	const depth = 3000

	var expr ast.Expr = ast.ConstInt{Value: 1}
	for i := 0; i < depth; i++ {
		expr = ast.Block{
			Let:  &ast.Let{Name: fmt.Sprintf("v%d", i), Value: ast.ConstInt{Value: int64(i)}},
			Body: expr,
		}
	}

	ctx := newTestContext()
	_, d := Eval(ctx, expr)
	if d != nil {
		t.Fatalf("deep BLOCK/LET chain failed: %s", d.Error())
	}
}
