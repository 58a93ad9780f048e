// Package values implements the tagged-union runtime representation of
// a script's result: the evaluator asserts the variant the resolver
// predicted and never hands a caller a value of the wrong shape.
package values

import (
	"bytes"
	"fmt"

	"github.com/vaultchain/txscript/internal/types"
)

// Value is the runtime counterpart of types.Type: every successful Eval
// call returns exactly one of these variants.
type Value interface {
	Type() types.Type
	valueNode()
}

// Int is a signed 64-bit integer value.
type Int int64

func (Int) Type() types.Type { return types.Int }
func (Int) valueNode()       {}

// Bool is a boolean value.
type Bool bool

func (Bool) Type() types.Type { return types.Boolean }
func (Bool) valueNode()       {}

// Bytes is an immutable byte vector. The backing array must never be
// mutated after construction; callers that need to retain a slice
// should copy it first.
type Bytes []byte

func (Bytes) Type() types.Type { return types.ByteVector }
func (Bytes) valueNode()       {}

// Option is zero-or-one of an inner value. None has Value == nil; Some
// has a non-nil Value. InnerType records the statically resolved inner
// type so that Type() is correct even for None (whose Value carries no
// runtime type information of its own).
type Option struct {
	InnerType types.Type
	Value     Value // nil means None
}

func (o Option) Type() types.Type { return types.Option(o.InnerType) }
func (Option) valueNode()         {}

// Some wraps v as a defined option of v's own type.
func Some(v Value) Option {
	return Option{InnerType: v.Type(), Value: v}
}

// None builds an absent option of the given inner type.
func None(inner types.Type) Option {
	return Option{InnerType: inner, Value: nil}
}

// IsDefined reports whether o holds a value.
func (o Option) IsDefined() bool { return o.Value != nil }

// Equal reports whether two values of the same resolved type compare
// equal under spec EQ semantics: numeric/boolean by value, byte vectors
// byte-wise, options structurally (None == None, Some(x) == Some(y) iff
// x == y).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case Option:
		bv, ok := b.(Option)
		if !ok {
			return false
		}
		if av.IsDefined() != bv.IsDefined() {
			return false
		}
		if !av.IsDefined() {
			return true
		}
		return Equal(av.Value, bv.Value)
	default:
		return false
	}
}

// String renders a value for diagnostics and CLI output. It is not part
// of the evaluator's contract.
func String(v Value) string {
	switch x := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(x))
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case Bytes:
		return fmt.Sprintf("0x%x", []byte(x))
	case Option:
		if !x.IsDefined() {
			return "None"
		}
		return "Some(" + String(x.Value) + ")"
	default:
		return "<unknown>"
	}
}
