// Package domain defines the read-only transaction/chain view the
// evaluator consumes for HEIGHT, TX_FIELD and SIG_VERIFY — spec.md §6's
// "Domain interface" — plus a concrete in-memory implementation used by
// fixtures, tests, and the CLI.
package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Context is the domain view a script is evaluated against. It is
// opaque, read-only data as far as the evaluator is concerned: no
// method here has a side effect, and nothing in the evaluator package
// calls any method more than once with an expectation that the result
// might differ.
type Context interface {
	// Height is the current block height, backing HEIGHT.
	Height() int64
	// ID is the transaction id, backing TX_FIELD(Id).
	ID() []byte
	// Type is the transaction type tag, backing TX_FIELD(Type).
	Type() int64
	// SenderPK is the sender's public key, backing TX_FIELD(SenderPk).
	SenderPK() []byte
	// BodyBytes is the transaction's signed body encoding, backing
	// TX_FIELD(BodyBytes).
	BodyBytes() []byte
	// Proof returns the i-th proof slot, backing TX_FIELD(Proof(i)).
	// Absent slots (ok == false) evaluate to NONE, never a diagnostic.
	Proof(i uint8) (proof []byte, ok bool)
}

// Static is a plain-data Context: every field is supplied up front by
// the caller (a fixture file, a test, or a validator-service request)
// rather than derived from a live chain.
type Static struct {
	HeightValue    int64
	IDValue        []byte
	TypeValue      int64
	SenderPKValue  []byte
	BodyBytesValue []byte
	Proofs         [][]byte // Proofs[i] == nil means slot i is absent
}

func (s *Static) Height() int64      { return s.HeightValue }
func (s *Static) ID() []byte         { return s.IDValue }
func (s *Static) Type() int64        { return s.TypeValue }
func (s *Static) SenderPK() []byte   { return s.SenderPKValue }
func (s *Static) BodyBytes() []byte  { return s.BodyBytesValue }

func (s *Static) Proof(i uint8) ([]byte, bool) {
	if int(i) >= len(s.Proofs) || s.Proofs[i] == nil {
		return nil, false
	}
	return s.Proofs[i], true
}

// Fingerprint returns a hex digest of c's field values. It exists purely
// as a cache key (internal/cache): the evaluator never calls it, and two
// Contexts with equal Fingerprints are not guaranteed interchangeable by
// anything other than the cache.
func Fingerprint(c Context) string {
	h := sha256.New()
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], uint64(c.Height()))
	h.Write(heightBuf[:])
	h.Write(c.ID())
	var typeBuf [8]byte
	binary.BigEndian.PutUint64(typeBuf[:], uint64(c.Type()))
	h.Write(typeBuf[:])
	h.Write(c.SenderPK())
	h.Write(c.BodyBytes())
	for i := 0; i <= 255; i++ {
		proof, ok := c.Proof(uint8(i))
		if !ok {
			continue
		}
		h.Write([]byte{uint8(i)})
		h.Write(proof)
	}
	return hex.EncodeToString(h.Sum(nil))
}
