package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
)

// ValidateEntity marks a pending record as validated. The actor needs the
// moderation capability.
func (s *ModerationService) ValidateEntity(ctx context.Context, actor moderation.Actor, ref EntityRef, version int64) (model.Moderatable, error) {
	return s.transition(ctx, actor, ref, version, model.ActionValidate)
}

// RejectEntity marks a pending record as rejected. Rejecting a word drops
// its synonym edges, its categories are kept.
func (s *ModerationService) RejectEntity(ctx context.Context, actor moderation.Actor, ref EntityRef, version int64) (model.Moderatable, error) {
	return s.transition(ctx, actor, ref, version, model.ActionReject)
}

// DeleteEntity soft deletes a record. Deleting a word drops its synonym
// edges, its categories are kept.
func (s *ModerationService) DeleteEntity(ctx context.Context, actor moderation.Actor, ref EntityRef, version int64) error {
	_, err := s.transition(ctx, actor, ref, version, model.ActionDelete)
	return err
}

// GetEntity returns a live record of any kind.
func (s *ModerationService) GetEntity(ctx context.Context, ref EntityRef) (model.Moderatable, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	return s.store.GetEntity(ctx, ref.Type, ref.ID)
}

// ModerationQueue lists pending records of a kind, oldest first.
func (s *ModerationService) ModerationQueue(ctx context.Context, kind model.EntityType, limit int) ([]model.Moderatable, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", apperr.ErrValidation, kind)
	}
	return s.store.ListPending(ctx, kind, pageSize(limit))
}

// History returns the ledger of a record, deleted records included.
func (s *ModerationService) History(ctx context.Context, ref EntityRef) ([]*ledger.Entry, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEntityUnscoped(ctx, ref.Type, ref.ID); err != nil {
		return nil, err
	}

	return s.ledger.History(ctx, s.store, ref.Type, ref.ID)
}

// RevertEntity puts back the content of a previous ledger row of the same
// record, its new value when useNew is set and its previous value otherwise.
// The revert is an ordinary update: it sends the record back to pending and
// is recorded as one.
func (s *ModerationService) RevertEntity(ctx context.Context, actor moderation.Actor, ref EntityRef, contributionID string, useNew bool, version int64) (model.Moderatable, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	entry, err := s.ledger.Get(ctx, s.store, contributionID)
	if err != nil {
		return nil, err
	}
	if entry.EntityType != ref.Type || entry.EntityID != ref.ID {
		return nil, fmt.Errorf("%w: contribution %s belongs to %s/%s", apperr.ErrValidation, entry.ID, entry.EntityType, entry.EntityID)
	}
	if len(entry.Metadata) > 0 {
		var meta map[string]any
		if err = json.Unmarshal(entry.Metadata, &meta); err == nil && meta["relation"] != nil {
			return nil, ErrNotASnapshot
		}
	}

	raw := entry.PreviousValue
	if useNew {
		raw = entry.NewValue
	}
	if len(raw) == 0 {
		return nil, ErrNotASnapshot
	}

	snapshot, err := model.New(ref.Type)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(raw, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotASnapshot, err)
	}

	return s.update(ctx, actor, ref, version, restore(snapshot))
}

// restore builds the change putting back the content fields of snapshot.
func restore(snapshot model.Moderatable) change {
	switch v := snapshot.(type) {
	case *model.Word:
		return func(ctx context.Context, tx store.Store, e model.Moderatable) (bool, error) {
			return patchWord(ctx, tx, e.(*model.Word), WordPatch{
				Term:          &v.Term,
				Definition:    &v.Definition,
				PartOfSpeech:  &v.PartOfSpeech,
				Pronunciation: &v.Pronunciation,
			})
		}
	case *model.Translation:
		return patchTranslation(TranslationPatch{Text: &v.Text, Language: &v.Language})
	case *model.Example:
		return patchExample(ExamplePatch{Text: &v.Text, Translation: &v.Translation})
	case *model.Conjugation:
		return patchConjugation(ConjugationPatch{Tense: &v.Tense, Person: &v.Person, Form: &v.Form})
	case *model.Phrase:
		return patchPhrase(PhrasePatch{Text: &v.Text, Meaning: &v.Meaning})
	}

	return func(context.Context, store.Store, model.Moderatable) (bool, error) {
		return false, ErrNotASnapshot
	}
}
