// Package types implements the closed value-type algebra of the
// transaction scripting language: INT, BOOLEAN, BYTEVECTOR and the
// recursive OPTION(T), plus the unification rule that decides when two
// types describe the same value.
package types

// Type is the closed set of value types a script expression can resolve
// to. It is a marker interface over the leaf and OPTION constructors
// below; there is no user-extensible case.
type Type interface {
	String() string
	typeNode()
}

// IntType is the type of CONST_INT, SUM, HEIGHT and the integer-valued
// TX_FIELD selectors.
type IntType struct{}

func (IntType) String() string { return "Int" }
func (IntType) typeNode()      {}

// BooleanType is the type of TRUE, FALSE, GE, GT, AND, OR, IS_DEFINED and
// SIG_VERIFY.
type BooleanType struct{}

func (BooleanType) String() string { return "Boolean" }
func (BooleanType) typeNode()      {}

// ByteVectorType is the type of CONST_BYTEVECTOR and the byte-valued
// TX_FIELD selectors.
type ByteVectorType struct{}

func (ByteVectorType) String() string { return "ByteVector" }
func (ByteVectorType) typeNode()      {}

// NothingType is the inner type of NONE's OPTION(NOTHING), and the type
// GET(NONE) resolves to. It unifies with any type, yielding that type.
type NothingType struct{}

func (NothingType) String() string { return "Nothing" }
func (NothingType) typeNode()      {}

// OptionType is OPTION(Inner), recursively: Inner may itself be an
// OptionType.
type OptionType struct {
	Inner Type
}

func (o OptionType) String() string { return "Option[" + o.Inner.String() + "]" }
func (o OptionType) typeNode()      {}

// Int, Boolean and ByteVector are the canonical leaf type values; callers
// should use these rather than constructing new IntType{} literals so
// that equality checks via == behave as expected for the leaf cases.
var (
	Int        Type = IntType{}
	Boolean    Type = BooleanType{}
	ByteVector Type = ByteVectorType{}
	Nothing    Type = NothingType{}
)

// Option builds OPTION(inner).
func Option(inner Type) Type {
	return OptionType{Inner: inner}
}

// Equal reports whether t1 and t2 describe the same type, comparing
// OPTION inner types recursively. It does not perform the
// NOTHING-absorbing unification rule; use Unify for that.
func Equal(t1, t2 Type) bool {
	switch a := t1.(type) {
	case IntType:
		_, ok := t2.(IntType)
		return ok
	case BooleanType:
		_, ok := t2.(BooleanType)
		return ok
	case ByteVectorType:
		_, ok := t2.(ByteVectorType)
		return ok
	case NothingType:
		_, ok := t2.(NothingType)
		return ok
	case OptionType:
		b, ok := t2.(OptionType)
		if !ok {
			return false
		}
		return Equal(a.Inner, b.Inner)
	default:
		return false
	}
}

// Unify decides whether t1 and t2 are compatible and, if so, returns the
// more specific common type. NOTHING unifies with any type, yielding the
// other type. Otherwise two leaves unify iff they are the same leaf, and
// two options unify if their inner types unify, with NOTHING absorbing
// into any option's inner type (OPTION(NOTHING) unifies with OPTION(T)
// as OPTION(T), for any T). Unify is symmetric.
func Unify(t1, t2 Type) (Type, bool) {
	if _, isNothing := t1.(NothingType); isNothing {
		return t2, true
	}
	if _, isNothing := t2.(NothingType); isNothing {
		return t1, true
	}
	o1, ok1 := t1.(OptionType)
	o2, ok2 := t2.(OptionType)
	switch {
	case ok1 && ok2:
		if _, isNothing := o1.Inner.(NothingType); isNothing {
			return OptionType{Inner: o2.Inner}, true
		}
		if _, isNothing := o2.Inner.(NothingType); isNothing {
			return OptionType{Inner: o1.Inner}, true
		}
		inner, ok := Unify(o1.Inner, o2.Inner)
		if !ok {
			return nil, false
		}
		return OptionType{Inner: inner}, true
	case ok1 != ok2:
		return nil, false
	default:
		if Equal(t1, t2) {
			return t1, true
		}
		return nil, false
	}
}
