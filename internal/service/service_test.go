package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/emrgen/lexicon/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	user = moderation.Actor{ID: "u1"}
	m1   = moderation.Actor{ID: "m1", CanModerate: true}
)

type recordingCache struct {
	mu      sync.Mutex
	words   map[string]*model.Word
	floors  map[string]int64
	evicted []string
}

func (c *recordingCache) GetWord(_ context.Context, id string) (*model.Word, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.words[id], nil
}

func (c *recordingCache) SetWord(_ context.Context, w *model.Word) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.Version < c.floors[w.ID] {
		return nil
	}
	c.words[w.ID] = w
	return nil
}

func (c *recordingCache) ExpireWord(_ context.Context, id string, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.floors == nil {
		c.floors = map[string]int64{}
	}
	if version > c.floors[id] {
		c.floors[id] = version
	}
	delete(c.words, id)
	c.evicted = append(c.evicted, id)
	return nil
}

func (c *recordingCache) DeleteWords(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.words, id)
	}
	c.evicted = append(c.evicted, ids...)
	return nil
}

type recordingQueue struct {
	mu        sync.Mutex
	published []*model.Contribution
	err       error
}

func (q *recordingQueue) Publish(_ context.Context, c *model.Contribution) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, c)
	return nil
}

func (q *recordingQueue) Close() error { return nil }

// failingLedgerStore fails every ledger append, inside transactions too.
type failingLedgerStore struct {
	store.Store
}

func (f failingLedgerStore) CreateContribution(context.Context, *model.Contribution) error {
	return errors.New("ledger unavailable")
}

func (f failingLedgerStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(failingLedgerStore{tx})
	})
}

type harness struct {
	ctx   context.Context
	st    *store.GormStore
	svc   *ModerationService
	cache *recordingCache
	queue *recordingQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ctx:   context.Background(),
		st:    tester.NewStore(t),
		cache: &recordingCache{words: map[string]*model.Word{}},
		queue: &recordingQueue{},
	}

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	h.svc = NewModerationService(h.st, compress.NewGZip(), h.cache, h.queue).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	return h
}

func (h *harness) word(t *testing.T, term string) *model.Word {
	t.Helper()
	w, err := h.svc.CreateWord(h.ctx, user, WordInput{Term: term})
	require.NoError(t, err)
	return w
}

func (h *harness) history(t *testing.T, ref EntityRef) int {
	t.Helper()
	rows, err := h.st.ListContributions(h.ctx, ref.Type, ref.ID)
	require.NoError(t, err)
	return len(rows)
}

func wordRef(w *model.Word) EntityRef {
	return EntityRef{Type: model.EntityWord, ID: w.ID}
}

func TestModerationService_WordLifecycle(t *testing.T) {
	h := newHarness(t)

	word := h.word(t, "Ngor")
	assert.Equal(t, "NG", word.InitialLetter)
	assert.Equal(t, model.StatusPending, word.ValidationStatus)
	assert.Equal(t, int64(1), word.Version)
	assert.Equal(t, "u1", word.CreatedBy)

	validated, err := h.svc.ValidateEntity(h.ctx, m1, wordRef(word), 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, validated.Base().ValidationStatus)
	assert.Equal(t, "m1", *validated.Base().ValidatedBy)
	assert.NotNil(t, validated.Base().ValidationDate)
	assert.Equal(t, 2, h.history(t, wordRef(word)))

	term := "Ngoor"
	updated, err := h.svc.UpdateWord(h.ctx, user, word.ID, 2, WordPatch{Term: &term})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, updated.ValidationStatus)
	assert.Equal(t, "NG", updated.InitialLetter)
	assert.Equal(t, int64(3), updated.Version)
	// the last judgement is kept as history
	require.NotNil(t, updated.ValidatedBy)
	assert.Equal(t, "m1", *updated.ValidatedBy)

	entries, err := h.svc.History(h.ctx, wordRef(word))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []model.Action{model.ActionCreate, model.ActionValidate, model.ActionUpdate},
		[]model.Action{entries[0].Action, entries[1].Action, entries[2].Action})

	var before, after model.Word
	require.NoError(t, json.Unmarshal(entries[2].PreviousValue, &before))
	require.NoError(t, json.Unmarshal(entries[2].NewValue, &after))
	assert.Equal(t, "Ngor", before.Term)
	assert.Equal(t, model.StatusValidated, before.ValidationStatus)
	assert.Equal(t, "Ngoor", after.Term)
	assert.Equal(t, model.StatusPending, after.ValidationStatus)
	assert.Equal(t, int64(3), after.Version)

	stored, err := h.svc.GetWord(h.ctx, word.ID)
	require.NoError(t, err)
	assert.Equal(t, after.Term, stored.Term)
	assert.Equal(t, after.InitialLetter, stored.InitialLetter)
	assert.Equal(t, after.Version, stored.Version)
}

func TestModerationService_EditTwiceStaysPending(t *testing.T) {
	h := newHarness(t)

	word := h.word(t, "Aada")
	_, err := h.svc.ValidateEntity(h.ctx, m1, wordRef(word), AnyVersion)
	require.NoError(t, err)

	for _, def := range []string{"coutume", "tradition"} {
		def := def
		w, err := h.svc.UpdateWord(h.ctx, user, word.ID, AnyVersion, WordPatch{Definition: &def})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, w.ValidationStatus)
	}

	assert.Equal(t, 4, h.history(t, wordRef(word)))
}

func TestModerationService_TermChangesBucket(t *testing.T) {
	h := newHarness(t)

	word := h.word(t, "naan")
	assert.Equal(t, "N", word.InitialLetter)

	term := "  Ñaan "
	updated, err := h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Term: &term})
	require.NoError(t, err)
	assert.Equal(t, "Ñaan", updated.Term)
	assert.Equal(t, "Ñ", updated.InitialLetter)

	words, total, err := h.svc.ListWordsByLetter(h.ctx, "ñ", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, words, 1)
	assert.Equal(t, word.ID, words[0].ID)
}

func TestModerationService_Rejections(t *testing.T) {
	h := newHarness(t)

	word := h.word(t, "jàng")
	other := h.word(t, "jàngale")

	_, err := h.svc.CreateWord(h.ctx, user, WordInput{Term: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.svc.CreateWord(h.ctx, user, WordInput{Term: "jàng"})
	assert.ErrorIs(t, err, ErrTermTaken)

	term := "jàngale"
	_, err = h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Term: &term})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.svc.CreateWord(h.ctx, moderation.Actor{}, WordInput{Term: "dem"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	same := "jàng"
	_, err = h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Term: &same})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = h.svc.ValidateEntity(h.ctx, user, wordRef(word), 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = h.svc.RejectEntity(h.ctx, m1, wordRef(other), 1)
	require.NoError(t, err)
	_, err = h.svc.ValidateEntity(h.ctx, m1, wordRef(other), 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = h.svc.ValidateEntity(h.ctx, m1, EntityRef{Type: "forum", ID: word.ID}, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.svc.ValidateEntity(h.ctx, m1, EntityRef{Type: model.EntityWord, ID: "missing"}, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, 1, h.history(t, wordRef(word)))
	assert.Equal(t, 2, h.history(t, wordRef(other)))
}

func TestModerationService_StaleVersion(t *testing.T) {
	h := newHarness(t)
	word := h.word(t, "lekk")

	def := "manger"
	_, err := h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Definition: &def})
	require.NoError(t, err)

	// a moderator still looking at version 1
	_, err = h.svc.ValidateEntity(h.ctx, m1, wordRef(word), 1)
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)
	assert.Equal(t, "someone else changed this, please refresh", apperr.Message(err))

	got, err := h.svc.GetEntity(h.ctx, wordRef(word))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Base().ValidationStatus)
	assert.Equal(t, 2, h.history(t, wordRef(word)))
}

func TestModerationService_RollbackOnLedgerFailure(t *testing.T) {
	h := newHarness(t)
	word := h.word(t, "xale")

	broken := NewModerationService(failingLedgerStore{h.st}, compress.NewNop(), nil, nil)

	_, err := broken.CreateWord(h.ctx, user, WordInput{Term: "xaleel"})
	assert.Error(t, err)
	_, err = h.st.GetWordByTerm(h.ctx, "xaleel")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	def := "enfant"
	_, err = broken.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Definition: &def})
	assert.Error(t, err)

	other := h.word(t, "gone")
	_, err = h.svc.LinkSynonyms(h.ctx, user, synonym.LinkRequest{WordID: word.ID, SynonymID: other.ID, Strength: 3, Language: model.LanguageWolof})
	require.NoError(t, err)

	err = broken.DeleteEntity(h.ctx, m1, wordRef(word), 1)
	assert.Error(t, err)

	got, err := h.svc.GetEntity(h.ctx, wordRef(word))
	require.NoError(t, err)
	assert.Equal(t, "", got.(*model.Word).Definition)
	assert.Equal(t, int64(1), got.Base().Version)

	neighbors, err := h.svc.Synonyms(h.ctx, word.ID)
	require.NoError(t, err)
	assert.Len(t, neighbors, 1)
	assert.Equal(t, 2, h.history(t, wordRef(word)))
}

func TestModerationService_AfterCommit(t *testing.T) {
	h := newHarness(t)
	word := h.word(t, "suuf")

	_, err := h.svc.GetWord(h.ctx, word.ID)
	require.NoError(t, err)
	assert.Contains(t, h.cache.words, word.ID)

	_, err = h.svc.ValidateEntity(h.ctx, m1, wordRef(word), 1)
	require.NoError(t, err)
	assert.NotContains(t, h.cache.words, word.ID)
	assert.Contains(t, h.cache.evicted, word.ID)
	require.Len(t, h.queue.published, 2)
	assert.Equal(t, model.ActionValidate, h.queue.published[1].Action)

	// a failing queue does not undo the committed operation
	h.queue.err = errors.New("broker down")
	def := "sable"
	_, err = h.svc.UpdateWord(h.ctx, user, word.ID, 2, WordPatch{Definition: &def})
	require.NoError(t, err)
	assert.Equal(t, 3, h.history(t, wordRef(word)))
}

func TestModerationService_StaleReadThrough(t *testing.T) {
	h := newHarness(t)
	word := h.word(t, "xaalis")

	// a reader loads version 1 and is slow to fill the cache
	stale, err := h.st.GetEntity(h.ctx, model.EntityWord, word.ID)
	require.NoError(t, err)

	def := "argent"
	_, err = h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Definition: &def})
	require.NoError(t, err)

	require.NoError(t, h.cache.SetWord(h.ctx, stale.(*model.Word)))
	assert.NotContains(t, h.cache.words, word.ID)

	got, err := h.svc.GetWord(h.ctx, word.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "argent", got.Definition)
	assert.Equal(t, int64(2), h.cache.words[word.ID].Version)
}

func TestModerationService_UpdatedAtFollowsClock(t *testing.T) {
	h := newHarness(t)
	word := h.word(t, "fas")
	assert.True(t, word.CreatedAt.Equal(word.UpdatedAt))

	def := "cheval"
	_, err := h.svc.UpdateWord(h.ctx, user, word.ID, 1, WordPatch{Definition: &def})
	require.NoError(t, err)
	updated, err := h.svc.GetEntity(h.ctx, wordRef(word))
	require.NoError(t, err)

	_, err = h.svc.ValidateEntity(h.ctx, m1, wordRef(word), 2)
	require.NoError(t, err)
	validated, err := h.svc.GetEntity(h.ctx, wordRef(word))
	require.NoError(t, err)

	assert.Equal(t, 2024, validated.Base().UpdatedAt.Year())
	assert.True(t, updated.Base().UpdatedAt.After(word.CreatedAt))
	assert.True(t, validated.Base().UpdatedAt.After(updated.Base().UpdatedAt))
	assert.True(t, validated.Base().UpdatedAt.Equal(*validated.Base().ValidationDate))
	assert.True(t, word.CreatedAt.Equal(validated.Base().CreatedAt))
}

func TestModerationService_LetterIndexAndQueue(t *testing.T) {
	h := newHarness(t)

	ngor := h.word(t, "Ngor")
	h.word(t, "ngelaw")
	h.word(t, "Naq")
	h.word(t, "1xx")

	_, err := h.svc.ValidateEntity(h.ctx, m1, wordRef(ngor), 1)
	require.NoError(t, err)

	index, err := h.svc.LetterIndex(h.ctx)
	require.NoError(t, err)
	counts := map[string]int64{}
	var letters []string
	for _, lc := range index {
		counts[lc.Letter] = lc.Count
		letters = append(letters, lc.Letter)
	}
	assert.Equal(t, int64(2), counts["NG"])
	assert.Equal(t, int64(1), counts["N"])
	assert.Equal(t, int64(0), counts["A"])
	assert.Equal(t, "1", letters[len(letters)-1])

	pending, err := h.svc.ModerationQueue(h.ctx, model.EntityWord, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "ngelaw", pending[0].(*model.Word).Term)

	_, err = h.svc.ModerationQueue(h.ctx, "forum", 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
