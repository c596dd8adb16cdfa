package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		term   string
		bucket string
	}{
		{"Ngor", "NG"},
		{"ngoor", "NG"},
		{"NGONE", "NG"},
		{"Aada", "A"},
		{"aada", "A"},
		{"Ñaan", "Ñ"},
		{"ñaan", "Ñ"},
		{"N\u0303aan", "Ñ"},
		{"ëttu", "Ë"},
		{"e\u0308ttu", "Ë"},
		{"ŋaam", "Ŋ"},
		{"nit", "N"},
		{"N", "N"},
		{"n", "N"},
		{"ng", "NG"},
		{"àll", "À"},
		{"öö", "Ö"},
		{"xale", "X"},
		{"1er", "1"},
		{"'ayda", "'"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.bucket, BucketOf(tt.term))
		})
	}
}

func TestBucketOfIsIdempotent(t *testing.T) {
	for _, term := range []string{"Ngor", "Ñaan", "aada", "ŋaam", "Ëlëg", "z"} {
		b := BucketOf(term)
		assert.Equal(t, b, BucketOf(b), term)
		assert.Equal(t, b, BucketOf(term), term)
	}
}

func TestRank(t *testing.T) {
	assert.Less(t, Rank("N"), Rank(DigraphNG))
	assert.Less(t, Rank(DigraphNG), Rank("Ñ"))
	assert.Equal(t, len(Alphabet()), Rank("1"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Ñaan", Normalize("  Ñaan "))
	assert.Equal(t, "Ngor", Normalize("Ngor"))
	assert.Equal(t, "", Normalize("   "))
}
