package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/store"
)

type TranslationInput struct {
	WordID   string         `json:"wordId"`
	Text     string         `json:"text"`
	Language model.Language `json:"language"`
}

type TranslationPatch struct {
	Text     *string         `json:"text"`
	Language *model.Language `json:"language"`
}

type ExampleInput struct {
	WordID      string `json:"wordId"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

type ExamplePatch struct {
	Text        *string `json:"text"`
	Translation *string `json:"translation"`
}

type ConjugationInput struct {
	WordID string `json:"wordId"`
	Tense  string `json:"tense"`
	Person string `json:"person"`
	Form   string `json:"form"`
}

type ConjugationPatch struct {
	Tense  *string `json:"tense"`
	Person *string `json:"person"`
	Form   *string `json:"form"`
}

// PhraseInput creates a phrase, attached to a word when WordID is set.
type PhraseInput struct {
	WordID  *string `json:"wordId"`
	Text    string  `json:"text"`
	Meaning string  `json:"meaning"`
}

type PhrasePatch struct {
	Text    *string `json:"text"`
	Meaning *string `json:"meaning"`
}

func (s *ModerationService) CreateTranslation(ctx context.Context, actor moderation.Actor, in TranslationInput) (*model.Translation, error) {
	t := &model.Translation{WordID: in.WordID, Text: strings.TrimSpace(in.Text), Language: in.Language}
	if err := checkTranslation(t); err != nil {
		return nil, err
	}

	if err := s.create(ctx, actor, t, nil); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ModerationService) UpdateTranslation(ctx context.Context, actor moderation.Actor, id string, version int64, patch TranslationPatch) (*model.Translation, error) {
	e, err := s.update(ctx, actor, EntityRef{Type: model.EntityTranslation, ID: id}, version, patchTranslation(patch))
	if err != nil {
		return nil, err
	}
	return e.(*model.Translation), nil
}

func patchTranslation(p TranslationPatch) change {
	return func(_ context.Context, _ store.Store, e model.Moderatable) (bool, error) {
		t := e.(*model.Translation)
		changed := set(&t.Text, trimmed(p.Text))
		if p.Language != nil && *p.Language != t.Language {
			t.Language = *p.Language
			changed = true
		}
		return changed, checkTranslation(t)
	}
}

func checkTranslation(t *model.Translation) error {
	if t.WordID == "" {
		return fmt.Errorf("%w: word id is required", apperr.ErrValidation)
	}
	if t.Text == "" {
		return fmt.Errorf("%w: translation text is required", apperr.ErrValidation)
	}
	if !t.Language.Valid() {
		return fmt.Errorf("%w: unknown language %q", apperr.ErrValidation, t.Language)
	}
	return nil
}

func (s *ModerationService) CreateExample(ctx context.Context, actor moderation.Actor, in ExampleInput) (*model.Example, error) {
	ex := &model.Example{WordID: in.WordID, Text: strings.TrimSpace(in.Text), Translation: strings.TrimSpace(in.Translation)}
	if err := checkExample(ex); err != nil {
		return nil, err
	}

	if err := s.create(ctx, actor, ex, nil); err != nil {
		return nil, err
	}
	return ex, nil
}

func (s *ModerationService) UpdateExample(ctx context.Context, actor moderation.Actor, id string, version int64, patch ExamplePatch) (*model.Example, error) {
	e, err := s.update(ctx, actor, EntityRef{Type: model.EntityExample, ID: id}, version, patchExample(patch))
	if err != nil {
		return nil, err
	}
	return e.(*model.Example), nil
}

func patchExample(p ExamplePatch) change {
	return func(_ context.Context, _ store.Store, e model.Moderatable) (bool, error) {
		ex := e.(*model.Example)
		changed := set(&ex.Text, trimmed(p.Text))
		changed = set(&ex.Translation, trimmed(p.Translation)) || changed
		return changed, checkExample(ex)
	}
}

func checkExample(ex *model.Example) error {
	if ex.WordID == "" {
		return fmt.Errorf("%w: word id is required", apperr.ErrValidation)
	}
	if ex.Text == "" {
		return fmt.Errorf("%w: example text is required", apperr.ErrValidation)
	}
	return nil
}

func (s *ModerationService) CreateConjugation(ctx context.Context, actor moderation.Actor, in ConjugationInput) (*model.Conjugation, error) {
	c := &model.Conjugation{
		WordID: in.WordID,
		Tense:  strings.TrimSpace(in.Tense),
		Person: strings.TrimSpace(in.Person),
		Form:   strings.TrimSpace(in.Form),
	}
	if err := checkConjugation(c); err != nil {
		return nil, err
	}

	if err := s.create(ctx, actor, c, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ModerationService) UpdateConjugation(ctx context.Context, actor moderation.Actor, id string, version int64, patch ConjugationPatch) (*model.Conjugation, error) {
	e, err := s.update(ctx, actor, EntityRef{Type: model.EntityConjugation, ID: id}, version, patchConjugation(patch))
	if err != nil {
		return nil, err
	}
	return e.(*model.Conjugation), nil
}

func patchConjugation(p ConjugationPatch) change {
	return func(_ context.Context, _ store.Store, e model.Moderatable) (bool, error) {
		c := e.(*model.Conjugation)
		changed := set(&c.Tense, trimmed(p.Tense))
		changed = set(&c.Person, trimmed(p.Person)) || changed
		changed = set(&c.Form, trimmed(p.Form)) || changed
		return changed, checkConjugation(c)
	}
}

func checkConjugation(c *model.Conjugation) error {
	if c.WordID == "" {
		return fmt.Errorf("%w: word id is required", apperr.ErrValidation)
	}
	if c.Tense == "" || c.Person == "" || c.Form == "" {
		return fmt.Errorf("%w: tense, person and form are required", apperr.ErrValidation)
	}
	return nil
}

func (s *ModerationService) CreatePhrase(ctx context.Context, actor moderation.Actor, in PhraseInput) (*model.Phrase, error) {
	p := &model.Phrase{Text: strings.TrimSpace(in.Text), Meaning: strings.TrimSpace(in.Meaning)}
	if in.WordID != nil && *in.WordID != "" {
		id := *in.WordID
		p.WordID = &id
	}
	if err := checkPhrase(p); err != nil {
		return nil, err
	}

	if err := s.create(ctx, actor, p, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ModerationService) UpdatePhrase(ctx context.Context, actor moderation.Actor, id string, version int64, patch PhrasePatch) (*model.Phrase, error) {
	e, err := s.update(ctx, actor, EntityRef{Type: model.EntityPhrase, ID: id}, version, patchPhrase(patch))
	if err != nil {
		return nil, err
	}
	return e.(*model.Phrase), nil
}

func patchPhrase(p PhrasePatch) change {
	return func(_ context.Context, _ store.Store, e model.Moderatable) (bool, error) {
		ph := e.(*model.Phrase)
		changed := set(&ph.Text, trimmed(p.Text))
		changed = set(&ph.Meaning, trimmed(p.Meaning)) || changed
		return changed, checkPhrase(ph)
	}
}

func checkPhrase(p *model.Phrase) error {
	if p.Text == "" {
		return fmt.Errorf("%w: phrase text is required", apperr.ErrValidation)
	}
	return nil
}

// ListChildren lists the live translations, examples, conjugations or
// phrases of a live word.
func (s *ModerationService) ListChildren(ctx context.Context, wordID string, kind model.EntityType) ([]model.Moderatable, error) {
	if kind == model.EntityWord || !kind.Valid() {
		return nil, fmt.Errorf("%w: %q is not a word entry kind", apperr.ErrValidation, kind)
	}
	if _, err := s.store.GetEntity(ctx, model.EntityWord, wordID); err != nil {
		return nil, err
	}

	return s.store.ListChildren(ctx, wordID, kind)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
