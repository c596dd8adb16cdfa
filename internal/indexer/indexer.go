// Package indexer derives the alphabet browsing key of a dictionary term.
package indexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DigraphNG is the bucket of terms starting with the Wolof digraph "ng".
const DigraphNG = "NG"

// upper is the fixed Wolof/French case table. Letters outside of it fall back
// to unicode.ToUpper.
var upper = map[rune]rune{
	'a': 'A', 'à': 'À', 'á': 'Á', 'ä': 'Ä',
	'b': 'B', 'c': 'C', 'ç': 'Ç', 'd': 'D',
	'e': 'E', 'é': 'É', 'è': 'È', 'ë': 'Ë',
	'f': 'F', 'g': 'G', 'h': 'H', 'i': 'I',
	'j': 'J', 'k': 'K', 'l': 'L', 'm': 'M',
	'n': 'N', 'ñ': 'Ñ', 'ŋ': 'Ŋ',
	'o': 'O', 'ó': 'Ó', 'ö': 'Ö',
	'p': 'P', 'q': 'Q', 'r': 'R', 's': 'S',
	't': 'T', 'u': 'U', 'v': 'V', 'w': 'W',
	'x': 'X', 'y': 'Y', 'z': 'Z',
}

// alphabet is the browse order of the buckets shown in the letter index.
var alphabet = []string{
	"A", "À", "Ä", "B", "C", "D", "E", "É", "Ë", "F", "G", "I", "J", "K", "L", "M",
	"N", DigraphNG, "Ñ", "Ŋ", "O", "Ó", "Ö", "P", "Q", "R", "S", "T", "U", "W", "X", "Y",
}

func toUpper(r rune) rune {
	if u, ok := upper[r]; ok {
		return u
	}

	return unicode.ToUpper(r)
}

// Normalize trims term and composes it to NFC, the form terms are stored in.
func Normalize(term string) string {
	return norm.NFC.String(strings.TrimSpace(term))
}

// BucketOf returns the bucket key of term: "NG" when the term starts with the
// digraph, otherwise its first letter in upper case. Combining sequences are
// composed first, so "N" + U+0303 lands in the same bucket as "Ñ".
//
// An empty term has no bucket and yields "".
func BucketOf(term string) string {
	runes := []rune(norm.NFC.String(term))
	if len(runes) == 0 {
		return ""
	}

	first := toUpper(runes[0])
	if len(runes) > 1 && first == 'N' && toUpper(runes[1]) == 'G' {
		return DigraphNG
	}

	return string(first)
}

// Alphabet returns the ordered list of known buckets.
func Alphabet() []string {
	out := make([]string, len(alphabet))
	copy(out, alphabet)
	return out
}

// Rank orders bucket keys by the alphabet, unknown keys sort after the known
// ones.
func Rank(bucket string) int {
	for i, b := range alphabet {
		if b == bucket {
			return i
		}
	}

	return len(alphabet)
}
