package category

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/emrgen/lexicon/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var admin = moderation.Actor{ID: "admin", CanModerate: true}

type fixture struct {
	ctx   context.Context
	st    store.Store
	m     *Manager
	word  *model.Word
	cats  map[string]*model.Category
	clock time.Time
}

func setup(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		st:    tester.NewStore(t),
		cats:  map[string]*model.Category{},
		clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	f.m = NewManager(ledger.NewLedger(compress.NewNop())).WithClock(func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	})

	f.word = &model.Word{
		Entity: model.Entity{ID: uuid.New().String(), ValidationStatus: model.StatusPending, CreatedBy: "seed", Version: 1},
		Term:   "Ngor",
	}
	require.NoError(t, f.st.CreateEntity(f.ctx, f.word))

	for _, name := range names {
		c := &model.Category{ID: uuid.New().String(), Name: name}
		require.NoError(t, f.st.CreateCategory(f.ctx, c))
		f.cats[name] = c
	}

	return f
}

func (f *fixture) assign(name string, main bool) error {
	return f.st.Transaction(f.ctx, func(tx store.Store) error {
		_, _, err := f.m.Assign(f.ctx, tx, f.word.ID, f.cats[name].ID, main, admin)
		return err
	})
}

func (f *fixture) unassign(name string) error {
	return f.st.Transaction(f.ctx, func(tx store.Store) error {
		_, _, err := f.m.Unassign(f.ctx, tx, f.word.ID, f.cats[name].ID, admin)
		return err
	})
}

func (f *fixture) mainName(t *testing.T) string {
	t.Helper()
	main, err := f.m.Main(f.ctx, f.st, f.word.ID)
	require.NoError(t, err)
	for name, c := range f.cats {
		if c.ID == main.CategoryID {
			return name
		}
	}
	return ""
}

func countMain(assignments []*model.WordCategory) int {
	n := 0
	for _, wc := range assignments {
		if wc.IsMainCategory {
			n++
		}
	}
	return n
}

func TestManager_AssignFlipsMain(t *testing.T) {
	f := setup(t, "Culture", "Lieu")

	require.NoError(t, f.assign("Culture", true))
	require.NoError(t, f.assign("Lieu", true))

	assignments, err := f.m.List(f.ctx, f.st, f.word.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, 1, countMain(assignments))
	assert.Equal(t, "Lieu", f.mainName(t))

	history, err := f.st.ListContributions(f.ctx, model.EntityWord, f.word.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var before []model.WordCategory
	require.NoError(t, json.Unmarshal(history[1].PreviousValue, &before))
	require.Len(t, before, 1)
	assert.True(t, before[0].IsMainCategory)
}

func TestManager_FirstAssignmentIsMain(t *testing.T) {
	f := setup(t, "Culture", "Lieu")

	require.NoError(t, f.assign("Culture", false))
	assert.Equal(t, "Culture", f.mainName(t))

	require.NoError(t, f.assign("Lieu", false))
	assert.Equal(t, "Culture", f.mainName(t))

	history, err := f.st.ListContributions(f.ctx, model.EntityWord, f.word.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "[]", string(history[0].PreviousValue))
}

func TestManager_AssignRepeat(t *testing.T) {
	f := setup(t, "Culture", "Lieu")

	require.NoError(t, f.assign("Culture", true))
	require.NoError(t, f.assign("Lieu", false))

	assert.ErrorIs(t, f.assign("Lieu", false), apperr.ErrDuplicateEdge)
	assert.ErrorIs(t, f.assign("Culture", true), apperr.ErrDuplicateEdge)

	// promoting an existing assignment
	require.NoError(t, f.assign("Lieu", true))
	assert.Equal(t, "Lieu", f.mainName(t))

	history, err := f.st.ListContributions(f.ctx, model.EntityWord, f.word.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.ActionUpdate, history[2].Action)
}

func TestManager_UnassignPromotesOldest(t *testing.T) {
	f := setup(t, "Culture", "Lieu", "Nourriture")

	require.NoError(t, f.assign("Nourriture", true))
	require.NoError(t, f.assign("Lieu", false))
	require.NoError(t, f.assign("Culture", false))

	require.NoError(t, f.unassign("Nourriture"))
	assert.Equal(t, "Lieu", f.mainName(t))

	require.NoError(t, f.unassign("Culture"))
	assert.Equal(t, "Lieu", f.mainName(t))

	require.NoError(t, f.unassign("Lieu"))
	_, err := f.m.Main(f.ctx, f.st, f.word.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, f.unassign("Lieu"), apperr.ErrNotFound)

	violations, err := f.st.MainCategoryViolations(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestManager_DeletedWordAndMissingCategory(t *testing.T) {
	f := setup(t, "Culture")

	err := f.st.Transaction(f.ctx, func(tx store.Store) error {
		_, _, err := f.m.Assign(f.ctx, tx, f.word.ID, uuid.New().String(), true, admin)
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f.word.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	require.NoError(t, f.st.UpdateEntity(f.ctx, f.word, 1))

	assert.ErrorIs(t, f.assign("Culture", true), apperr.ErrEntityNotEligible)
}
