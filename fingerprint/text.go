package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies compatibility decomposition, full case folding and
// removes every whitespace rune. "LOL", "lol" and "l o l" normalize alike.
func NormalizeText(s string) string {
	s = norm.NFKD.String(s)
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// TextDigest is the hex encoded 128 bit digest of the normalized text.
// It is used for equality only.
func TextDigest(s string) string {
	sum := md5.Sum([]byte(NormalizeText(s)))
	return hex.EncodeToString(sum[:])
}
