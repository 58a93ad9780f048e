// Package ast implements the closed expression grammar of the
// transaction scripting language: the fixed set of terms listed in
// spec.md's data model table, and nothing else — there are no
// user-defined callables, no loops, no extensible node kinds.
package ast

import (
	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/types"
)

// Expr is the closed interface every script term implements. There is
// no external implementation of Expr: the evaluator's dispatch is a
// type switch over the concrete node types in this file, whose default
// arm turns any node it does not handle into a diagnostic; the Go
// compiler does not check that switch for exhaustiveness.
type Expr interface {
	exprNode()
	// PredefinedType returns the node's type and true when that type does
	// not depend on subterms or the environment (spec.md §4.1). Nodes
	// whose type is context-dependent (REF, BLOCK, IF, EQ, GET, SOME)
	// return (nil, false); the resolver handles those.
	PredefinedType() (types.Type, bool)
}

// ConstInt is CONST_INT(n).
type ConstInt struct{ Value int64 }

func (ConstInt) exprNode() {}
func (ConstInt) PredefinedType() (types.Type, bool) { return types.Int, true }

// ConstBytevector is CONST_BYTEVECTOR(b).
type ConstBytevector struct{ Value []byte }

func (ConstBytevector) exprNode() {}
func (ConstBytevector) PredefinedType() (types.Type, bool) { return types.ByteVector, true }

// BoolConst is TRUE or FALSE, distinguished by Value.
type BoolConst struct{ Value bool }

func (BoolConst) exprNode() {}
func (BoolConst) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// True builds the TRUE leaf term.
func True() Expr { return BoolConst{Value: true} }

// False builds the FALSE leaf term.
func False() Expr { return BoolConst{Value: false} }

// None is the NONE leaf term, of type OPTION(NOTHING).
type None struct{}

func (None) exprNode() {}
func (None) PredefinedType() (types.Type, bool) { return types.Option(types.Nothing), true }

// Some is SOME(e); its type, OPTION(typeof(e)), depends on the inner
// expression and so is resolved rather than predefined.
type Some struct{ Inner Expr }

func (Some) exprNode()                            {}
func (Some) PredefinedType() (types.Type, bool)   { return nil, false }

// Ref is REF(name); its type comes from the environment.
type Ref struct{ Name string }

func (Ref) exprNode()                          {}
func (Ref) PredefinedType() (types.Type, bool) { return nil, false }

// Sum is SUM(a, b): both operands INT, result INT.
type Sum struct{ A, B Expr }

func (Sum) exprNode() {}
func (Sum) PredefinedType() (types.Type, bool) { return types.Int, true }

// Ge is GE(a, b): both operands INT, result BOOLEAN.
type Ge struct{ A, B Expr }

func (Ge) exprNode() {}
func (Ge) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// Gt is GT(a, b): both operands INT, result BOOLEAN.
type Gt struct{ A, B Expr }

func (Gt) exprNode() {}
func (Gt) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// Eq is EQ(a, b); well-typed only when a and b's types unify, so its
// type is resolved rather than predefined even though the result is
// always BOOLEAN once that check passes.
type Eq struct{ A, B Expr }

func (Eq) exprNode()                          {}
func (Eq) PredefinedType() (types.Type, bool) { return nil, false }

// And is AND(a, b): both operands BOOLEAN, short-circuiting on b.
type And struct{ A, B Expr }

func (And) exprNode() {}
func (And) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// Or is OR(a, b): both operands BOOLEAN, short-circuiting on b.
type Or struct{ A, B Expr }

func (Or) exprNode() {}
func (Or) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// If is IF(cond, then, else); cond must be BOOLEAN and then/else must
// unify, so the type is resolved rather than predefined.
type If struct {
	Cond, Then, Else Expr
}

func (If) exprNode()                          {}
func (If) PredefinedType() (types.Type, bool) { return nil, false }

// IsDefined is IS_DEFINED(o): o must be an OPTION(_), result BOOLEAN.
type IsDefined struct{ Opt Expr }

func (IsDefined) exprNode() {}
func (IsDefined) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// Get is GET(o): o must be an OPTION(T), result T (resolved, since T
// depends on o).
type Get struct{ Opt Expr }

func (Get) exprNode()                          {}
func (Get) PredefinedType() (types.Type, bool) { return nil, false }

// Let is the binding form accepted only as the optional first slot of a
// Block: LET(name, value). It is not itself a standalone expression —
// evaluating or resolving a bare Let outside a Block is a programmer
// error in the caller building the tree, not a script-level failure.
type Let struct {
	Name  string
	Value Expr
}

// Block is BLOCK(letOpt, body): letOpt is nil for BLOCK(None, body).
type Block struct {
	Let  *Let // nil means BLOCK(None, body)
	Body Expr
}

func (Block) exprNode()                          {}
func (Block) PredefinedType() (types.Type, bool) { return nil, false }

// SigVerify is SIG_VERIFY(msg, sig, pk): all three BYTEVECTOR, result
// BOOLEAN. Malformed sig/pk encodings yield false, never a diagnostic.
type SigVerify struct {
	Msg, Sig, PK Expr
}

func (SigVerify) exprNode() {}
func (SigVerify) PredefinedType() (types.Type, bool) { return types.Boolean, true }

// Height is the HEIGHT leaf term, read from the domain.
type Height struct{}

func (Height) exprNode() {}
func (Height) PredefinedType() (types.Type, bool) { return types.Int, true }

// FieldSelector names which domain projection a TxField reads.
type FieldSelector struct {
	// Name is one of config.FieldID, FieldType, FieldSenderPK,
	// FieldBodyBytes, FieldProof.
	Name string
	// ProofIndex is meaningful only when Name == config.FieldProof.
	ProofIndex uint8
}

// TxField is TX_FIELD(selector); its predefined type depends only on
// the selector, not on any subterm or environment, so it is context
// independent despite varying by selector.
type TxField struct{ Selector FieldSelector }

func (TxField) exprNode() {}

func (t TxField) PredefinedType() (types.Type, bool) {
	switch t.Selector.Name {
	case config.FieldID, config.FieldSenderPK, config.FieldBodyBytes:
		return types.ByteVector, true
	case config.FieldType:
		return types.Int, true
	case config.FieldProof:
		return types.Option(types.ByteVector), true
	default:
		return nil, false
	}
}
