// Package journal keeps a hash-chained audit log of governance operations.
package journal

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte chain link.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText encodes the hash as hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hex hash.
func (h *Hash) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(h) {
		return fmt.Errorf("hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return nil
}

// Entry is what the caller records.
type Entry struct {
	Time   int64
	Op     string
	Signer string
	Code   int
	Detail string
}

// Event is a recorded entry linked to its predecessor.
type Event struct {
	Seq      uint64 `json:"seq"`
	Time     int64  `json:"time"`
	Op       string `json:"op"`
	Signer   string `json:"signer,omitempty"`
	Code     int    `json:"code"`
	Detail   string `json:"detail,omitempty"`
	PrevHash Hash   `json:"prev_hash"`
	Hash     Hash   `json:"hash"`
}

// ComputeHash derives the hash of e from its fields and PrevHash.
func (e *Event) ComputeHash() Hash {
	h := blake3.New()
	var buf [8]byte

	h.Write(e.PrevHash[:])
	binary.BigEndian.PutUint64(buf[:], e.Seq)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(e.Time))
	h.Write(buf[:])
	for _, field := range []string{e.Op, e.Signer} {
		writeString(h, field)
	}
	binary.BigEndian.PutUint64(buf[:], uint64(int64(e.Code)))
	h.Write(buf[:])
	writeString(h, e.Detail)

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func writeString(h *blake3.Hasher, s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

// ChainError identifies the first event that does not link correctly.
type ChainError struct {
	Seq    uint64
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("journal chain broken at seq %d: %s", e.Seq, e.Reason)
}

// VerifyChain checks that events form an unbroken chain starting after
// prev. Pass the zero hash and seq 0 to verify from the beginning.
func VerifyChain(prev Hash, prevSeq uint64, events []Event) error {
	for i := range events {
		e := &events[i]
		switch {
		case e.Seq != prevSeq+1:
			return &ChainError{Seq: e.Seq, Reason: fmt.Sprintf("expected seq %d", prevSeq+1)}
		case e.PrevHash != prev:
			return &ChainError{Seq: e.Seq, Reason: "previous hash mismatch"}
		case e.ComputeHash() != e.Hash:
			return &ChainError{Seq: e.Seq, Reason: "hash mismatch"}
		}
		prev = e.Hash
		prevSeq = e.Seq
	}
	return nil
}
