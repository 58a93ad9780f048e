// Package registry names scripts. Parsing source text is out of scope
// (spec.md §1), so a script is a Go-level ast.Expr built by a fixture
// loader or a Go caller; registry gives that tree a stable, content-
// addressed name so it can cross a process boundary (a gRPC request to
// the validator service) without serializing the tree itself.
package registry

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/vaultchain/txscript/internal/ast"
)

// ScriptID is the SHA-256 digest of a script's canonical encoding.
type ScriptID [32]byte

func (id ScriptID) String() string { return hex.EncodeToString(id[:]) }

// ParseScriptID decodes a hex string produced by ScriptID.String.
func ParseScriptID(s string) (ScriptID, error) {
	var id ScriptID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("registry: script id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Registry maps script IDs to the trees they name. It is safe for
// concurrent use, since the validator service looks up scripts from
// concurrently served RPCs.
type Registry struct {
	mu      sync.RWMutex
	scripts map[ScriptID]ast.Expr
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{scripts: make(map[ScriptID]ast.Expr)}
}

// Register computes expr's ScriptID and stores it, returning the ID.
// Registering the same tree twice (by encoding, not by Go identity)
// yields the same ID and does not create a second entry.
func (r *Registry) Register(expr ast.Expr) ScriptID {
	id := Encode(expr)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[id] = expr
	return id
}

// Lookup returns the tree registered under id, if any.
func (r *Registry) Lookup(id ScriptID) (ast.Expr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.scripts[id]
	return e, ok
}

// Encode computes expr's ScriptID without registering it: the SHA-256 of
// a deterministic pre-order encoding of the tree. Two trees with the same
// shape and literal values always hash identically, regardless of Go
// pointer identity.
func Encode(expr ast.Expr) ScriptID {
	h := sha256.New()
	writeExpr(h, expr)
	var id ScriptID
	copy(id[:], h.Sum(nil))
	return id
}

// writeExpr appends a tag byte identifying the node kind followed by its
// fields, recursing into subexpressions in a fixed order. The tag values
// are an internal encoding detail, not a wire format spec.md constrains.
func writeExpr(h interface{ Write([]byte) (int, error) }, expr ast.Expr) {
	switch e := expr.(type) {
	case ast.ConstInt:
		writeTag(h, 1)
		writeInt(h, e.Value)
	case ast.ConstBytevector:
		writeTag(h, 2)
		writeBytes(h, e.Value)
	case ast.BoolConst:
		writeTag(h, 3)
		if e.Value {
			writeTag(h, 1)
		} else {
			writeTag(h, 0)
		}
	case ast.None:
		writeTag(h, 4)
	case ast.Some:
		writeTag(h, 5)
		writeExpr(h, e.Inner)
	case ast.Ref:
		writeTag(h, 6)
		writeString(h, e.Name)
	case ast.Sum:
		writeTag(h, 7)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.Ge:
		writeTag(h, 8)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.Gt:
		writeTag(h, 9)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.Eq:
		writeTag(h, 10)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.And:
		writeTag(h, 11)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.Or:
		writeTag(h, 12)
		writeExpr(h, e.A)
		writeExpr(h, e.B)
	case ast.If:
		writeTag(h, 13)
		writeExpr(h, e.Cond)
		writeExpr(h, e.Then)
		writeExpr(h, e.Else)
	case ast.IsDefined:
		writeTag(h, 14)
		writeExpr(h, e.Opt)
	case ast.Get:
		writeTag(h, 15)
		writeExpr(h, e.Opt)
	case ast.Block:
		writeTag(h, 16)
		if e.Let == nil {
			writeTag(h, 0)
		} else {
			writeTag(h, 1)
			writeString(h, e.Let.Name)
			writeExpr(h, e.Let.Value)
		}
		writeExpr(h, e.Body)
	case ast.SigVerify:
		writeTag(h, 17)
		writeExpr(h, e.Msg)
		writeExpr(h, e.Sig)
		writeExpr(h, e.PK)
	case ast.Height:
		writeTag(h, 18)
	case ast.TxField:
		writeTag(h, 19)
		writeString(h, e.Selector.Name)
		writeTag(h, e.Selector.ProofIndex)
	default:
		panic(fmt.Sprintf("registry: unknown expression node %T", expr))
	}
}

func writeTag(h interface{ Write([]byte) (int, error) }, b byte) { h.Write([]byte{b}) }

func writeInt(h interface{ Write([]byte) (int, error) }, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

func writeBytes(h interface{ Write([]byte) (int, error) }, b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
}

func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	writeBytes(h, []byte(s))
}
