// Package synonym maintains the word to word synonym graph. Each unordered
// pair is stored once, in the direction it was linked, and read back
// symmetrically.
package synonym

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LinkRequest describes a new edge initiated from WordID.
type LinkRequest struct {
	WordID    string
	SynonymID string
	Strength  int
	Language  model.Language
}

func (r LinkRequest) validate() error {
	if r.WordID == "" || r.SynonymID == "" {
		return fmt.Errorf("%w: both word ids are required", apperr.ErrValidation)
	}
	if r.WordID == r.SynonymID {
		return fmt.Errorf("%w: %s", apperr.ErrSelfLoop, r.WordID)
	}
	if r.Strength < model.MinSynonymStrength || r.Strength > model.MaxSynonymStrength {
		return fmt.Errorf("%w: strength %d is outside [%d, %d]", apperr.ErrValidation, r.Strength, model.MinSynonymStrength, model.MaxSynonymStrength)
	}
	if !r.Language.Valid() {
		return fmt.Errorf("%w: unknown language %q", apperr.ErrValidation, r.Language)
	}
	return nil
}

// Neighbor is an edge seen from one of its endpoints.
type Neighbor struct {
	EdgeID    string         `json:"edgeId"`
	WordID    string         `json:"wordId"`
	Strength  int            `json:"strength"`
	Language  model.Language `json:"language"`
	CreatedAt time.Time      `json:"createdAt"`
}

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

// WithClock replaces the clock used to stamp edges.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Link inserts the edge and records a create on the initiating word. tx must
// be a transaction: both words stay locked until it ends.
func (m *Manager) Link(ctx context.Context, tx store.Store, req LinkRequest, actor moderation.Actor) (*model.Synonym, *model.Contribution, error) {
	if err := actor.Check(); err != nil {
		return nil, nil, err
	}
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	// lock in id order so two crossing links cannot deadlock
	ids := []string{req.WordID, req.SynonymID}
	sort.Strings(ids)
	for _, id := range ids {
		if err := lockEligible(ctx, tx, id); err != nil {
			return nil, nil, err
		}
	}

	_, err := tx.FindSynonym(ctx, req.WordID, req.SynonymID)
	if err == nil {
		return nil, nil, fmt.Errorf("%w: %s and %s are already synonyms", apperr.ErrDuplicateEdge, req.WordID, req.SynonymID)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	edge := &model.Synonym{
		ID:        uuid.New().String(),
		WordID:    req.WordID,
		SynonymID: req.SynonymID,
		Strength:  req.Strength,
		Language:  req.Language,
		CreatedBy: actor.ID,
		CreatedAt: m.now().UTC(),
	}
	if err = tx.CreateSynonym(ctx, edge); err != nil {
		return nil, nil, err
	}

	contribution, err := m.ledger.Record(ctx, tx, ledger.Record{
		Action:     model.ActionCreate,
		EntityType: model.EntityWord,
		EntityID:   req.WordID,
		New:        edge,
		Metadata:   map[string]string{"relation": "synonym"},
		UserID:     actor.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	logrus.Debugf("linked synonyms %s <-> %s (strength %d)", edge.WordID, edge.SynonymID, edge.Strength)

	return edge, contribution, nil
}

// Unlink removes the edge between the two words, whichever direction it was
// stored in, and records a delete on wordID.
func (m *Manager) Unlink(ctx context.Context, tx store.Store, wordID, synonymID string, actor moderation.Actor) (*model.Synonym, *model.Contribution, error) {
	if err := actor.Check(); err != nil {
		return nil, nil, err
	}

	edge, err := tx.FindSynonym(ctx, wordID, synonymID)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.DeleteSynonym(ctx, edge.ID); err != nil {
		return nil, nil, err
	}

	contribution, err := m.ledger.Record(ctx, tx, ledger.Record{
		Action:     model.ActionDelete,
		EntityType: model.EntityWord,
		EntityID:   wordID,
		Previous:   edge,
		Metadata:   map[string]string{"relation": "synonym"},
		UserID:     actor.ID,
	})
	if err != nil {
		return nil, nil, err
	}

	return edge, contribution, nil
}

// Neighbors returns every edge touching wordID, presented from wordID's side.
func (m *Manager) Neighbors(ctx context.Context, st store.SynonymStore, wordID string) ([]Neighbor, error) {
	edges, err := st.ListSynonyms(ctx, wordID)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(edges))
	for _, edge := range edges {
		neighbors = append(neighbors, Neighbor{
			EdgeID:    edge.ID,
			WordID:    edge.Other(wordID),
			Strength:  edge.Strength,
			Language:  edge.Language,
			CreatedAt: edge.CreatedAt,
		})
	}

	return neighbors, nil
}

// Prune drops every edge touching wordID and returns them. It does not write
// to the ledger: the caller records the pruned edges with its own row.
func (m *Manager) Prune(ctx context.Context, tx store.SynonymStore, wordID string) ([]*model.Synonym, error) {
	edges, err := tx.ListSynonyms(ctx, wordID)
	if err != nil {
		return nil, err
	}

	for _, edge := range edges {
		if err = tx.DeleteSynonym(ctx, edge.ID); err != nil {
			return nil, err
		}
	}

	if len(edges) > 0 {
		logrus.Debugf("pruned %d synonym edges of word %s", len(edges), wordID)
	}

	return edges, nil
}

func lockEligible(ctx context.Context, tx store.EntityStore, id string) error {
	locked, err := tx.LockWord(ctx, id, true)
	if err != nil {
		return err
	}
	if locked {
		return nil
	}

	// tell a missing word apart from a deleted or rejected one
	if _, err = tx.GetEntityUnscoped(ctx, model.EntityWord, id); err != nil {
		return err
	}

	return fmt.Errorf("%w: word %s is deleted or rejected", apperr.ErrEntityNotEligible, id)
}
