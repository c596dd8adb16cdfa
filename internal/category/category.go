// Package category maintains word to category assignments. A word with at
// least one assignment always has exactly one main category.
package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrNoMainCategory is reported for words breaking the single main category
// rule.
var ErrNoMainCategory = errors.New("word does not have exactly one main category")

type Manager struct {
	ledger *ledger.Ledger
	now    func() time.Time
}

func NewManager(l *ledger.Ledger) *Manager {
	return &Manager{
		ledger: l,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to stamp assignments.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Assign adds categoryID to the word. The first assignment of a word is
// always main. A main assignment demotes the previous main one. Assigning
// an existing pair as main promotes it, any other repeat is a duplicate.
func (m *Manager) Assign(ctx context.Context, tx store.Store, wordID, categoryID string, isMain bool, actor moderation.Actor) ([]*model.WordCategory, *model.Contribution, error) {
	if err := actor.Check(); err != nil {
		return nil, nil, err
	}
	if err := lockLive(ctx, tx, wordID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.GetCategory(ctx, categoryID); err != nil {
		return nil, nil, err
	}

	before, err := tx.ListAssignments(ctx, wordID)
	if err != nil {
		return nil, nil, err
	}

	action := model.ActionCreate
	current, existing := find(before, categoryID), mainOf(before)
	switch {
	case current != nil && (!isMain || current.IsMainCategory):
		return nil, nil, fmt.Errorf("%w: word %s already has category %s", apperr.ErrDuplicateEdge, wordID, categoryID)
	case current != nil:
		action = model.ActionUpdate
	case len(before) == 0:
		isMain = true
	}

	if isMain && existing != nil && existing.CategoryID != categoryID {
		if err = tx.SetMainCategory(ctx, wordID, existing.CategoryID, false); err != nil {
			return nil, nil, err
		}
	}

	if current != nil {
		err = tx.SetMainCategory(ctx, wordID, categoryID, true)
	} else {
		err = tx.CreateAssignment(ctx, &model.WordCategory{
			WordID:         wordID,
			CategoryID:     categoryID,
			IsMainCategory: isMain,
			CreatedAt:      m.now().UTC(),
		})
	}
	if err != nil {
		return nil, nil, err
	}

	after, err := tx.ListAssignments(ctx, wordID)
	if err != nil {
		return nil, nil, err
	}

	contribution, err := m.ledger.Record(ctx, tx, ledger.Record{
		Action:     action,
		EntityType: model.EntityWord,
		EntityID:   wordID,
		Previous:   list(before),
		New:        list(after),
		Metadata:   map[string]any{"relation": "category", "categoryId": categoryID, "isMain": isMain},
		UserID:     actor.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	return after, contribution, nil
}

// Unassign removes categoryID from the word. Removing the main assignment
// promotes the oldest remaining one.
func (m *Manager) Unassign(ctx context.Context, tx store.Store, wordID, categoryID string, actor moderation.Actor) ([]*model.WordCategory, *model.Contribution, error) {
	if err := actor.Check(); err != nil {
		return nil, nil, err
	}
	if err := lockLive(ctx, tx, wordID); err != nil {
		return nil, nil, err
	}

	before, err := tx.ListAssignments(ctx, wordID)
	if err != nil {
		return nil, nil, err
	}

	removed := find(before, categoryID)
	if removed == nil {
		return nil, nil, fmt.Errorf("%w: word %s has no category %s", apperr.ErrNotFound, wordID, categoryID)
	}

	if err = tx.DeleteAssignment(ctx, wordID, categoryID); err != nil {
		return nil, nil, err
	}

	var promoted string
	if removed.IsMainCategory {
		for _, wc := range before {
			if wc.CategoryID == categoryID {
				continue
			}
			// before is ordered by created_at then category_id
			promoted = wc.CategoryID
			if err = tx.SetMainCategory(ctx, wordID, promoted, true); err != nil {
				return nil, nil, err
			}
			break
		}
	}

	after, err := tx.ListAssignments(ctx, wordID)
	if err != nil {
		return nil, nil, err
	}

	metadata := map[string]any{"relation": "category", "categoryId": categoryID}
	if promoted != "" {
		metadata["promoted"] = promoted
		logrus.Debugf("word %s: category %s promoted to main", wordID, promoted)
	}

	contribution, err := m.ledger.Record(ctx, tx, ledger.Record{
		Action:     model.ActionDelete,
		EntityType: model.EntityWord,
		EntityID:   wordID,
		Previous:   list(before),
		New:        list(after),
		Metadata:   metadata,
		UserID:     actor.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	return after, contribution, nil
}

// List returns the assignments of a word, oldest first.
func (m *Manager) List(ctx context.Context, st store.CategoryStore, wordID string) ([]*model.WordCategory, error) {
	return st.ListAssignments(ctx, wordID)
}

// Main returns the main assignment of a word, or ErrNotFound when the word
// has no categories.
func (m *Manager) Main(ctx context.Context, st store.CategoryStore, wordID string) (*model.WordCategory, error) {
	assignments, err := st.ListAssignments(ctx, wordID)
	if err != nil {
		return nil, err
	}

	if main := mainOf(assignments); main != nil {
		return main, nil
	}

	return nil, fmt.Errorf("%w: word %s has no main category", apperr.ErrNotFound, wordID)
}

func lockLive(ctx context.Context, tx store.EntityStore, wordID string) error {
	locked, err := tx.LockWord(ctx, wordID, false)
	if err != nil {
		return err
	}
	if locked {
		return nil
	}

	if _, err = tx.GetEntityUnscoped(ctx, model.EntityWord, wordID); err != nil {
		return err
	}

	return fmt.Errorf("%w: word %s is deleted", apperr.ErrEntityNotEligible, wordID)
}

func find(assignments []*model.WordCategory, categoryID string) *model.WordCategory {
	for _, wc := range assignments {
		if wc.CategoryID == categoryID {
			return wc
		}
	}
	return nil
}

func mainOf(assignments []*model.WordCategory) *model.WordCategory {
	for _, wc := range assignments {
		if wc.IsMainCategory {
			return wc
		}
	}
	return nil
}

func list(assignments []*model.WordCategory) []*model.WordCategory {
	if assignments == nil {
		return []*model.WordCategory{}
	}
	return assignments
}
