package registry

import (
	"testing"

	"github.com/vaultchain/txscript/internal/ast"
)

func TestRegisterIsIdempotentByShape(t *testing.T) {
	reg := New()
	a := ast.Sum{A: ast.ConstInt{Value: 1}, B: ast.ConstInt{Value: 2}}
	b := ast.Sum{A: ast.ConstInt{Value: 1}, B: ast.ConstInt{Value: 2}} // distinct value, same shape

	id1 := reg.Register(a)
	id2 := reg.Register(b)
	if id1 != id2 {
		t.Errorf("two structurally identical trees got different IDs: %s != %s", id1, id2)
	}

	expr, found := reg.Lookup(id1)
	if !found {
		t.Fatal("expected lookup to find the registered script")
	}
	if _, ok := expr.(ast.Sum); !ok {
		t.Errorf("unexpected looked-up type %T", expr)
	}
}

func TestEncodeDistinguishesDifferentTrees(t *testing.T) {
	a := ast.ConstInt{Value: 1}
	b := ast.ConstInt{Value: 2}
	if Encode(a) == Encode(b) {
		t.Error("different literals hashed to the same ScriptID")
	}
}

func TestScriptIDRoundTripsThroughString(t *testing.T) {
	id := Encode(ast.True())
	parsed, err := ParseScriptID(id.String())
	if err != nil {
		t.Fatalf("ParseScriptID: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseScriptID(id.String()) = %s, want %s", parsed, id)
	}
}

func TestParseScriptIDRejectsWrongLength(t *testing.T) {
	if _, err := ParseScriptID("deadbeef"); err == nil {
		t.Error("expected an error for a too-short script id")
	}
}
