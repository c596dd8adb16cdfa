package cache

import (
	"context"

	"github.com/emrgen/lexicon/internal/model"
)

// WordCache is a read cache for words. A miss is (nil, nil).
type WordCache interface {
	// GetWord gets a word from the cache.
	GetWord(ctx context.Context, id string) (*model.Word, error)
	// SetWord sets a word in the cache unless a newer version of it has
	// already been committed, see ExpireWord.
	SetWord(ctx context.Context, word *model.Word) error
	// ExpireWord evicts a word after a commit at version. Later SetWord calls
	// carrying an older version are ignored.
	ExpireWord(ctx context.Context, id string, version int64) error
	// DeleteWords evicts words from the cache.
	DeleteWords(ctx context.Context, ids ...string) error
}

var _ WordCache = Nop{}

// Nop is used when no cache is configured.
type Nop struct{}

func (Nop) GetWord(context.Context, string) (*model.Word, error) { return nil, nil }

func (Nop) SetWord(context.Context, *model.Word) error { return nil }

func (Nop) ExpireWord(context.Context, string, int64) error { return nil }

func (Nop) DeleteWords(context.Context, ...string) error { return nil }
