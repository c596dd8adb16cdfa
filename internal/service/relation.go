package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LinkSynonyms links two live, non rejected words.
func (s *ModerationService) LinkSynonyms(ctx context.Context, actor moderation.Actor, req synonym.LinkRequest) (*model.Synonym, error) {
	var edge *model.Synonym
	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		edge, contribution, err = s.synonyms.Link(ctx, tx, req, actor)
		return err
	})
	if err != nil {
		return nil, s.fail("link synonyms", err)
	}

	s.afterCommit(ctx, []string{req.WordID, req.SynonymID}, contribution)

	return edge, nil
}

// UnlinkSynonyms removes the edge between two words, in whichever direction
// it was created.
func (s *ModerationService) UnlinkSynonyms(ctx context.Context, actor moderation.Actor, wordID, synonymID string) error {
	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		_, contribution, err = s.synonyms.Unlink(ctx, tx, wordID, synonymID, actor)
		return err
	})
	if err != nil {
		return s.fail("unlink synonyms", err)
	}

	s.afterCommit(ctx, []string{wordID, synonymID}, contribution)

	return nil
}

// Synonyms returns the neighbours of a live word.
func (s *ModerationService) Synonyms(ctx context.Context, wordID string) ([]synonym.Neighbor, error) {
	if _, err := s.store.GetEntity(ctx, model.EntityWord, wordID); err != nil {
		return nil, err
	}
	return s.synonyms.Neighbors(ctx, s.store, wordID)
}

// AssignCategory assigns a category to a live word and returns the word's
// assignments.
func (s *ModerationService) AssignCategory(ctx context.Context, actor moderation.Actor, wordID, categoryID string, isMain bool) ([]*model.WordCategory, error) {
	var assignments []*model.WordCategory
	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		assignments, contribution, err = s.categories.Assign(ctx, tx, wordID, categoryID, isMain, actor)
		return err
	})
	if err != nil {
		return nil, s.fail("assign category", err)
	}

	s.afterCommit(ctx, []string{wordID}, contribution)

	return assignments, nil
}

// UnassignCategory removes a category from a live word and returns the
// word's remaining assignments.
func (s *ModerationService) UnassignCategory(ctx context.Context, actor moderation.Actor, wordID, categoryID string) ([]*model.WordCategory, error) {
	var assignments []*model.WordCategory
	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		assignments, contribution, err = s.categories.Unassign(ctx, tx, wordID, categoryID, actor)
		return err
	})
	if err != nil {
		return nil, s.fail("unassign category", err)
	}

	s.afterCommit(ctx, []string{wordID}, contribution)

	return assignments, nil
}

// Categories returns the assignments of a word, oldest first.
func (s *ModerationService) Categories(ctx context.Context, wordID string) ([]*model.WordCategory, error) {
	if _, err := s.store.GetEntityUnscoped(ctx, model.EntityWord, wordID); err != nil {
		return nil, err
	}
	return s.categories.List(ctx, s.store, wordID)
}

// CreateCategory creates a category. Categories are admin data and are not
// recorded in the ledger.
func (s *ModerationService) CreateCategory(ctx context.Context, actor moderation.Actor, name, description string) (*model.Category, error) {
	if err := actor.Check(); err != nil {
		return nil, err
	}
	if !actor.CanModerate {
		return nil, fmt.Errorf("%w: creating categories requires moderation capability", apperr.ErrInvalidTransition)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", apperr.ErrValidation)
	}

	now := s.now().UTC()
	c := &model.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, s.fail("create category", err)
	}

	logrus.Infof("category %q created by %s", c.Name, actor.ID)

	return c, nil
}

func (s *ModerationService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.store.ListCategories(ctx)
}

