package fingerprint

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// Hash is a fixed width bit string, most significant bit first.
type Hash []byte

// String returns the hex form stored in the database.
func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// Bits is the width of the hash in bits.
func (h Hash) Bits() int {
	return len(h) * 8
}

// ParseHash decodes the hex form produced by String.
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return Hash(b), nil
}

// Distance counts the differing bits of two equal width hashes.
func Distance(a, b Hash) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hash width mismatch: %d != %d bits", a.Bits(), b.Bits())
	}
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d, nil
}

// HexDistance is Distance over hex encoded hashes. It is registered as the
// hamming_distance scalar function of the store.
func HexDistance(a, b string) (int, error) {
	ha, err := ParseHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := ParseHash(b)
	if err != nil {
		return 0, err
	}
	return Distance(ha, hb)
}

// packBits packs booleans MSB first.
func packBits(bools []bool) Hash {
	h := make(Hash, (len(bools)+7)/8)
	for i, set := range bools {
		if set {
			h[i/8] |= 0x80 >> (i % 8)
		}
	}
	return h
}
