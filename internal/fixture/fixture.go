// Package fixture loads YAML documents describing a domain and a set of
// named scripts, the way the teacher's internal/ext/config.go loads its
// own YAML-based configuration with gopkg.in/yaml.v3. Since parsing
// script source text is out of scope (spec.md §1), a fixture's "expr"
// nodes are a small structured tree encoding — not the scripting
// language's surface syntax — built directly into ast.Expr values.
package fixture

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaultchain/txscript/internal/ast"
	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/domain"
	"github.com/vaultchain/txscript/internal/registry"
)

// File is the top-level shape of a fixture YAML document.
type File struct {
	Domain  domainDoc   `yaml:"domain"`
	Scripts []scriptDoc `yaml:"scripts"`
}

type domainDoc struct {
	Height     int64    `yaml:"height"`
	ID         string   `yaml:"id"`
	Type       int64    `yaml:"type"`
	SenderPK   string   `yaml:"sender_pk"`
	BodyBytes  string   `yaml:"body_bytes"`
	Proofs     []string `yaml:"proofs"`
}

type scriptDoc struct {
	Name string  `yaml:"name"`
	Expr exprDoc `yaml:"expr"`
}

// exprDoc is a node in the structured tree encoding: Op names the term,
// the remaining fields are interpreted according to Op.
type exprDoc struct {
	Op         string   `yaml:"op"`
	Value      *int64   `yaml:"value"`
	Bytes      string   `yaml:"bytes"`
	Name       string   `yaml:"name"`
	ProofIndex uint8    `yaml:"proof_index"`
	A          *exprDoc `yaml:"a"`
	B          *exprDoc `yaml:"b"`
	Cond       *exprDoc `yaml:"cond"`
	Then       *exprDoc `yaml:"then"`
	Else       *exprDoc `yaml:"else"`
	Opt        *exprDoc `yaml:"opt"`
	Inner      *exprDoc `yaml:"inner"`
	Msg        *exprDoc `yaml:"msg"`
	Sig        *exprDoc `yaml:"sig"`
	PK         *exprDoc `yaml:"pk"`
	Let        *letDoc  `yaml:"let"`
	Body       *exprDoc `yaml:"body"`
}

type letDoc struct {
	Name  string  `yaml:"name"`
	Value exprDoc `yaml:"value"`
}

// Fixture is a loaded, ready-to-run file: a domain.Static and every
// script registered under its content-addressed ScriptID.
type Fixture struct {
	Domain  *domain.Static
	Scripts []NamedScript
}

// NamedScript pairs a fixture's human-readable script name with its
// registered ID and tree.
type NamedScript struct {
	Name string
	ID   registry.ScriptID
	Expr ast.Expr
}

// Load reads and decodes the fixture at path, registering every script
// it declares into reg.
func Load(path string, reg *registry.Registry) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	d, err := buildDomain(f.Domain)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: domain: %w", path, err)
	}
	scripts := make([]NamedScript, 0, len(f.Scripts))
	for _, sd := range f.Scripts {
		expr, err := buildExpr(sd.Expr)
		if err != nil {
			return nil, fmt.Errorf("fixture: %s: script %q: %w", path, sd.Name, err)
		}
		id := reg.Register(expr)
		scripts = append(scripts, NamedScript{Name: sd.Name, ID: id, Expr: expr})
	}
	return &Fixture{Domain: d, Scripts: scripts}, nil
}

func buildDomain(d domainDoc) (*domain.Static, error) {
	id, err := decodeHex(d.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	senderPK, err := decodeHex(d.SenderPK)
	if err != nil {
		return nil, fmt.Errorf("sender_pk: %w", err)
	}
	bodyBytes, err := decodeHex(d.BodyBytes)
	if err != nil {
		return nil, fmt.Errorf("body_bytes: %w", err)
	}
	proofs := make([][]byte, len(d.Proofs))
	for i, p := range d.Proofs {
		if p == "" {
			continue
		}
		b, err := decodeHex(p)
		if err != nil {
			return nil, fmt.Errorf("proofs[%d]: %w", i, err)
		}
		if i > config.MaxProofIndex {
			return nil, fmt.Errorf("proofs[%d]: exceeds max proof index %d", i, config.MaxProofIndex)
		}
		proofs[i] = b
	}
	return &domain.Static{
		HeightValue:    d.Height,
		IDValue:        id,
		TypeValue:      d.Type,
		SenderPKValue:  senderPK,
		BodyBytesValue: bodyBytes,
		Proofs:         proofs,
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func buildExpr(d exprDoc) (ast.Expr, error) {
	switch d.Op {
	case "CONST_INT":
		if d.Value == nil {
			return nil, fmt.Errorf("CONST_INT: missing value")
		}
		return ast.ConstInt{Value: *d.Value}, nil
	case "CONST_BYTEVECTOR":
		b, err := decodeHex(d.Bytes)
		if err != nil {
			return nil, fmt.Errorf("CONST_BYTEVECTOR: %w", err)
		}
		return ast.ConstBytevector{Value: b}, nil
	case "TRUE":
		return ast.True(), nil
	case "FALSE":
		return ast.False(), nil
	case "NONE":
		return ast.None{}, nil
	case "SOME":
		inner, err := requireChild(d.Inner, "SOME", "inner")
		if err != nil {
			return nil, err
		}
		return ast.Some{Inner: inner}, nil
	case "REF":
		if d.Name == "" {
			return nil, fmt.Errorf("REF: missing name")
		}
		return ast.Ref{Name: d.Name}, nil
	case "SUM", "GE", "GT", "EQ", "AND", "OR":
		a, err := requireChild(d.A, d.Op, "a")
		if err != nil {
			return nil, err
		}
		b, err := requireChild(d.B, d.Op, "b")
		if err != nil {
			return nil, err
		}
		return binaryNode(d.Op, a, b), nil
	case "IF":
		cond, err := requireChild(d.Cond, "IF", "cond")
		if err != nil {
			return nil, err
		}
		then, err := requireChild(d.Then, "IF", "then")
		if err != nil {
			return nil, err
		}
		els, err := requireChild(d.Else, "IF", "else")
		if err != nil {
			return nil, err
		}
		return ast.If{Cond: cond, Then: then, Else: els}, nil
	case "IS_DEFINED":
		opt, err := requireChild(d.Opt, "IS_DEFINED", "opt")
		if err != nil {
			return nil, err
		}
		return ast.IsDefined{Opt: opt}, nil
	case "GET":
		opt, err := requireChild(d.Opt, "GET", "opt")
		if err != nil {
			return nil, err
		}
		return ast.Get{Opt: opt}, nil
	case "BLOCK":
		body, err := requireChild(d.Body, "BLOCK", "body")
		if err != nil {
			return nil, err
		}
		if d.Let == nil {
			return ast.Block{Body: body}, nil
		}
		letValue, err := buildExpr(d.Let.Value)
		if err != nil {
			return nil, fmt.Errorf("BLOCK: let.value: %w", err)
		}
		return ast.Block{Let: &ast.Let{Name: d.Let.Name, Value: letValue}, Body: body}, nil
	case "SIG_VERIFY":
		msg, err := requireChild(d.Msg, "SIG_VERIFY", "msg")
		if err != nil {
			return nil, err
		}
		sig, err := requireChild(d.Sig, "SIG_VERIFY", "sig")
		if err != nil {
			return nil, err
		}
		pk, err := requireChild(d.PK, "SIG_VERIFY", "pk")
		if err != nil {
			return nil, err
		}
		return ast.SigVerify{Msg: msg, Sig: sig, PK: pk}, nil
	case "HEIGHT":
		return ast.Height{}, nil
	case "TX_FIELD":
		if d.Name == "" {
			return nil, fmt.Errorf("TX_FIELD: missing name")
		}
		return ast.TxField{Selector: ast.FieldSelector{Name: d.Name, ProofIndex: d.ProofIndex}}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", d.Op)
	}
}

func requireChild(d *exprDoc, op, field string) (ast.Expr, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: missing %s", op, field)
	}
	return buildExpr(*d)
}

func binaryNode(op string, a, b ast.Expr) ast.Expr {
	switch op {
	case "SUM":
		return ast.Sum{A: a, B: b}
	case "GE":
		return ast.Ge{A: a, B: b}
	case "GT":
		return ast.Gt{A: a, B: b}
	case "EQ":
		return ast.Eq{A: a, B: b}
	case "AND":
		return ast.And{A: a, B: b}
	case "OR":
		return ast.Or{A: a, B: b}
	default:
		panic("fixture: unreachable binary op " + op)
	}
}
