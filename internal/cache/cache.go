// Package cache memoizes Eval results keyed by (script ID, domain
// fingerprint), backed by modernc.org/sqlite — the same pure-Go, no-cgo
// driver choice the teacher makes for its own "db" builtins. The package
// never calls the evaluator: on a miss Get reports found == false, and
// evaluating and Put-ing the result is the caller's job. Nothing here is
// part of the evaluator's pure contract (SPEC_FULL.md §4.7).
package cache

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vaultchain/txscript/internal/diagnostics"
	"github.com/vaultchain/txscript/internal/types"
	"github.com/vaultchain/txscript/internal/values"
)

const schema = `
CREATE TABLE IF NOT EXISTS verifications (
	script_id   TEXT NOT NULL,
	domain_fp   TEXT NOT NULL,
	ok          INTEGER NOT NULL,
	value_type  TEXT NOT NULL DEFAULT '',
	value_repr  TEXT NOT NULL DEFAULT '',
	diagnostic  TEXT NOT NULL DEFAULT '',
	verified_at TEXT NOT NULL,
	PRIMARY KEY (script_id, domain_fp)
);`

// Store is a SQLite-backed verification cache. The zero value is not
// usable; construct one with Open.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a cache database at path. Pass
// ":memory:" for an ephemeral, process-local cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Result is what Get/Put store: exactly one of Value or Diagnostic is
// set, mirroring evaluator.Eval's own (Value, *Diagnostic) return shape.
type Result struct {
	Value      values.Value
	Diagnostic *diagnostics.Diagnostic
}

// Get returns the cached result for (scriptID, domainFP), if present.
func (s *Store) Get(scriptID, domainFP string) (Result, bool, error) {
	row := s.db.QueryRow(
		`SELECT ok, value_type, value_repr, diagnostic FROM verifications WHERE script_id = ? AND domain_fp = ?`,
		scriptID, domainFP)
	var ok int
	var valueType, valueRepr, diag string
	if err := row.Scan(&ok, &valueType, &valueRepr, &diag); err != nil {
		if err == sql.ErrNoRows {
			return Result{}, false, nil
		}
		return Result{}, false, fmt.Errorf("cache: get: %w", err)
	}
	if ok == 0 {
		kind := diagnostics.ExecError
		if strings.HasPrefix(diag, "Typecheck failed") {
			kind = diagnostics.TypeError
		}
		return Result{Diagnostic: &diagnostics.Diagnostic{Kind: kind, Message: diag}}, true, nil
	}
	v, err := decodeValue(valueType, valueRepr)
	if err != nil {
		return Result{}, false, fmt.Errorf("cache: decode cached value: %w", err)
	}
	return Result{Value: v}, true, nil
}

// Put stores an evaluator result for (scriptID, domainFP), overwriting
// any prior entry for that pair.
func (s *Store) Put(scriptID, domainFP, verifiedAt string, result Result) error {
	if result.Diagnostic != nil {
		_, err := s.db.Exec(
			`INSERT INTO verifications (script_id, domain_fp, ok, diagnostic, verified_at) VALUES (?, ?, 0, ?, ?)
			 ON CONFLICT(script_id, domain_fp) DO UPDATE SET ok=0, diagnostic=excluded.diagnostic, verified_at=excluded.verified_at, value_type='', value_repr=''`,
			scriptID, domainFP, result.Diagnostic.Error(), verifiedAt)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO verifications (script_id, domain_fp, ok, value_type, value_repr, verified_at) VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT(script_id, domain_fp) DO UPDATE SET ok=1, value_type=excluded.value_type, value_repr=excluded.value_repr, verified_at=excluded.verified_at, diagnostic=''`,
		scriptID, domainFP, result.Value.Type().String(), values.String(result.Value), verifiedAt)
	return err
}

// decodeValue reconstructs a values.Value from the (type, repr) pair
// values.String/Type.String produce. It exists only so the cache can
// round-trip the small closed set of runtime shapes Eval can return.
func decodeValue(typeTag, repr string) (values.Value, error) {
	t, err := parseType(typeTag)
	if err != nil {
		return nil, err
	}
	return decodeValueAs(t, repr)
}

func decodeValueAs(t types.Type, repr string) (values.Value, error) {
	switch tt := t.(type) {
	case types.IntType:
		n, err := strconv.ParseInt(repr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int repr %q: %w", repr, err)
		}
		return values.Int(n), nil
	case types.BooleanType:
		return values.Bool(repr == "true"), nil
	case types.ByteVectorType:
		if !strings.HasPrefix(repr, "0x") {
			return nil, fmt.Errorf("bytevector repr %q: missing 0x prefix", repr)
		}
		b, err := hex.DecodeString(repr[2:])
		if err != nil {
			return nil, fmt.Errorf("bytevector repr %q: %w", repr, err)
		}
		return values.Bytes(b), nil
	case types.OptionType:
		if repr == "None" {
			return values.None(tt.Inner), nil
		}
		if !strings.HasPrefix(repr, "Some(") || !strings.HasSuffix(repr, ")") {
			return nil, fmt.Errorf("option repr %q: malformed", repr)
		}
		inner, err := decodeValueAs(tt.Inner, repr[len("Some(") :len(repr)-1])
		if err != nil {
			return nil, err
		}
		return values.Some(inner), nil
	default:
		return nil, fmt.Errorf("cache: cannot decode type %s", t.String())
	}
}

// parseType inverts types.Type.String() for the shapes Eval can return.
func parseType(s string) (types.Type, error) {
	switch {
	case s == "Int":
		return types.Int, nil
	case s == "Boolean":
		return types.Boolean, nil
	case s == "ByteVector":
		return types.ByteVector, nil
	case s == "Nothing":
		return types.Nothing, nil
	case strings.HasPrefix(s, "Option[") && strings.HasSuffix(s, "]"):
		inner, err := parseType(s[len("Option[") : len(s)-1])
		if err != nil {
			return nil, err
		}
		return types.Option(inner), nil
	default:
		return nil, fmt.Errorf("cache: unrecognized type %q", s)
	}
}

