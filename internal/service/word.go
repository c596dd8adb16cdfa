package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/indexer"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/sirupsen/logrus"
)

type WordInput struct {
	Term          string `json:"term"`
	Definition    string `json:"definition"`
	PartOfSpeech  string `json:"partOfSpeech"`
	Pronunciation string `json:"pronunciation"`
}

// WordPatch holds the fields to change, nil fields are left as they are.
type WordPatch struct {
	Term          *string `json:"term"`
	Definition    *string `json:"definition"`
	PartOfSpeech  *string `json:"partOfSpeech"`
	Pronunciation *string `json:"pronunciation"`
}

// LetterCount is one entry of the alphabet index.
type LetterCount struct {
	Letter string `json:"letter"`
	Count  int64  `json:"count"`
}

// CreateWord creates a pending word. Its initial letter is derived from the
// term.
func (s *ModerationService) CreateWord(ctx context.Context, actor moderation.Actor, in WordInput) (*model.Word, error) {
	term := indexer.Normalize(in.Term)
	if term == "" {
		return nil, fmt.Errorf("%w: term is required", apperr.ErrValidation)
	}

	word := &model.Word{
		Term:          term,
		InitialLetter: indexer.BucketOf(term),
		Definition:    in.Definition,
		PartOfSpeech:  in.PartOfSpeech,
		Pronunciation: in.Pronunciation,
	}

	err := s.create(ctx, actor, word, func(ctx context.Context, tx store.Store) error {
		return checkTermFree(ctx, tx, term, "")
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("word %q created in bucket %s by %s", word.Term, word.InitialLetter, actor.ID)

	return word, nil
}

// UpdateWord edits a word. Any edit sends the word back to pending and the
// initial letter is recomputed from the resulting term.
func (s *ModerationService) UpdateWord(ctx context.Context, actor moderation.Actor, id string, version int64, patch WordPatch) (*model.Word, error) {
	e, err := s.update(ctx, actor, EntityRef{Type: model.EntityWord, ID: id}, version, func(ctx context.Context, tx store.Store, e model.Moderatable) (bool, error) {
		return patchWord(ctx, tx, e.(*model.Word), patch)
	})
	if err != nil {
		return nil, err
	}

	return e.(*model.Word), nil
}

func patchWord(ctx context.Context, tx store.Store, w *model.Word, p WordPatch) (bool, error) {
	changed := false

	if p.Term != nil {
		term := indexer.Normalize(*p.Term)
		if term == "" {
			return false, fmt.Errorf("%w: term is required", apperr.ErrValidation)
		}
		if term != w.Term {
			if err := checkTermFree(ctx, tx, term, w.ID); err != nil {
				return false, err
			}
			w.Term = term
			changed = true
		}
	}

	changed = set(&w.Definition, p.Definition) || changed
	changed = set(&w.PartOfSpeech, p.PartOfSpeech) || changed
	changed = set(&w.Pronunciation, p.Pronunciation) || changed

	w.InitialLetter = indexer.BucketOf(w.Term)

	return changed, nil
}

// GetWord returns a live word, from the cache when possible.
func (s *ModerationService) GetWord(ctx context.Context, id string) (*model.Word, error) {
	cached, err := s.cache.GetWord(ctx, id)
	if err != nil {
		logrus.Warnf("cache: failed to read word %s: %v", id, err)
	}
	if cached != nil {
		return cached, nil
	}

	e, err := s.store.GetEntity(ctx, model.EntityWord, id)
	if err != nil {
		return nil, err
	}

	word := e.(*model.Word)
	if err = s.cache.SetWord(ctx, word); err != nil {
		logrus.Warnf("cache: failed to store word %s: %v", id, err)
	}

	return word, nil
}

// ListWordsByLetter lists the live words of a bucket. letter may be given in
// any case, "ng" and "NG" both select the digraph bucket.
func (s *ModerationService) ListWordsByLetter(ctx context.Context, letter string, offset, limit int) ([]*model.Word, int64, error) {
	bucket := indexer.BucketOf(indexer.Normalize(letter))
	if bucket == "" {
		return nil, 0, fmt.Errorf("%w: letter is required", apperr.ErrValidation)
	}

	return s.store.ListWordsByLetter(ctx, bucket, offset, pageSize(limit))
}

// LetterIndex returns every known bucket in alphabet order with its live word
// count, followed by any other bucket in use.
func (s *ModerationService) LetterIndex(ctx context.Context) ([]LetterCount, error) {
	counts, err := s.store.LetterCounts(ctx)
	if err != nil {
		return nil, err
	}

	index := make([]LetterCount, 0, len(counts))
	for _, letter := range indexer.Alphabet() {
		index = append(index, LetterCount{Letter: letter, Count: counts[letter]})
		delete(counts, letter)
	}

	var others []string
	for letter := range counts {
		others = append(others, letter)
	}
	sort.Strings(others)
	for _, letter := range others {
		index = append(index, LetterCount{Letter: letter, Count: counts[letter]})
	}

	return index, nil
}

func checkTermFree(ctx context.Context, tx store.EntityStore, term, self string) error {
	existing, err := tx.GetWordByTerm(ctx, term)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == self {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrTermTaken, term)
}

func set(dst *string, v *string) bool {
	if v == nil || *v == *dst {
		return false
	}
	*dst = *v
	return true
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	}
	return limit
}
