package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateEntity(ctx context.Context, e model.Moderatable) error {
	err := g.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s already exists", apperr.ErrValidation, e.Kind())
	}
	return err
}

func (g *GormStore) GetEntity(ctx context.Context, kind model.EntityType, id string) (model.Moderatable, error) {
	return g.getEntity(g.db.WithContext(ctx), kind, id)
}

func (g *GormStore) GetEntityUnscoped(ctx context.Context, kind model.EntityType, id string) (model.Moderatable, error) {
	return g.getEntity(g.db.WithContext(ctx).Unscoped(), kind, id)
}

func (g *GormStore) getEntity(db *gorm.DB, kind model.EntityType, id string) (model.Moderatable, error) {
	e, err := model.New(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	err = db.Where("id = ?", id).First(e).Error
	if err != nil {
		return nil, notFound(err, "%s %s", kind, id)
	}

	return e, nil
}

// UpdateEntity is a compare and swap on the version column. Zero affected
// rows means the record moved on (or was deleted) since it was read.
func (g *GormStore) UpdateEntity(ctx context.Context, e model.Moderatable, expected int64) error {
	base := e.Base()
	base.Version = expected + 1

	res := g.db.WithContext(ctx).
		Model(e).
		Where("version = ?", expected).
		Select("*").
		Omit("CreatedAt").
		Updates(e)
	if res.Error != nil {
		base.Version = expected
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s already exists", apperr.ErrValidation, e.Kind())
		}
		return res.Error
	}

	if res.RowsAffected == 0 {
		base.Version = expected
		return fmt.Errorf("%w: %s %s is no longer at version %d", apperr.ErrConcurrentModification, e.Kind(), base.ID, expected)
	}

	return nil
}

func (g *GormStore) GetWordByTerm(ctx context.Context, term string) (*model.Word, error) {
	var word model.Word
	err := g.db.WithContext(ctx).Unscoped().Where("term = ?", term).First(&word).Error
	if err != nil {
		return nil, notFound(err, "word %q", term)
	}
	return &word, nil
}

func (g *GormStore) ListWordsByLetter(ctx context.Context, letter string, offset, limit int) ([]*model.Word, int64, error) {
	var total int64
	q := g.db.WithContext(ctx).Model(&model.Word{}).Where("initial_letter = ?", letter).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var words []*model.Word
	err := q.Order("term asc").Offset(offset).Limit(limit).Find(&words).Error
	return words, total, err
}

func (g *GormStore) LetterCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		InitialLetter string
		Count         int64
	}

	err := g.db.WithContext(ctx).
		Model(&model.Word{}).
		Select("initial_letter, count(*) as count").
		Group("initial_letter").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.InitialLetter] = row.Count
	}

	return counts, nil
}

func (g *GormStore) ListPending(ctx context.Context, kind model.EntityType, limit int) ([]model.Moderatable, error) {
	q := g.db.WithContext(ctx).
		Where("validation_status = ?", model.StatusPending).
		Order("created_at asc").
		Limit(limit)

	return findEntities(q, kind)
}

func (g *GormStore) ListChildren(ctx context.Context, wordID string, kind model.EntityType) ([]model.Moderatable, error) {
	if kind == model.EntityWord {
		return nil, fmt.Errorf("%w: words have no owner", apperr.ErrValidation)
	}

	q := g.db.WithContext(ctx).
		Where("word_id = ?", wordID).
		Order("created_at asc")

	return findEntities(q, kind)
}

func (g *GormStore) DeleteChildren(ctx context.Context, wordID string, at time.Time) (map[model.EntityType][]string, error) {
	deleted := make(map[model.EntityType][]string)
	for _, kind := range model.ChildTypes() {
		e, err := model.New(kind)
		if err != nil {
			return nil, err
		}

		var ids []string
		err = g.db.WithContext(ctx).
			Model(e).
			Where("word_id = ?", wordID).
			Order("created_at asc").
			Pluck("id", &ids).Error
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}

		err = g.db.WithContext(ctx).
			Model(e).
			Where("id IN ?", ids).
			UpdateColumns(map[string]any{
				"deleted_at": at,
				"updated_at": at,
				"version":    gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return nil, err
		}

		deleted[kind] = ids
	}

	return deleted, nil
}

func (g *GormStore) EachWord(ctx context.Context, batch int, f func(words []*model.Word) error) error {
	var words []*model.Word
	return g.db.WithContext(ctx).FindInBatches(&words, batch, func(tx *gorm.DB, _ int) error {
		return f(words)
	}).Error
}

// LockWord rewrites the version column with itself. The statement takes the
// same row lock a concurrent UpdateEntity needs.
func (g *GormStore) LockWord(ctx context.Context, id string, eligibleOnly bool) (bool, error) {
	q := g.db.WithContext(ctx).Model(&model.Word{}).Where("id = ?", id)
	if eligibleOnly {
		q = q.Where("validation_status <> ?", model.StatusRejected)
	}

	res := q.UpdateColumn("version", gorm.Expr("version"))
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (g *GormStore) CreateCategory(ctx context.Context, c *model.Category) error {
	err := g.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: category %q already exists", apperr.ErrValidation, c.Name)
	}
	return err
}

func (g *GormStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, notFound(err, "category %s", id)
	}
	return &category, nil
}

func (g *GormStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := g.db.WithContext(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

func (g *GormStore) ListAssignments(ctx context.Context, wordID string) ([]*model.WordCategory, error) {
	var assignments []*model.WordCategory
	err := g.db.WithContext(ctx).
		Where("word_id = ?", wordID).
		Order("created_at asc, category_id asc").
		Find(&assignments).Error
	return assignments, err
}

func (g *GormStore) CreateAssignment(ctx context.Context, wc *model.WordCategory) error {
	err := g.db.WithContext(ctx).Create(wc).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: word %s already has category %s", apperr.ErrDuplicateEdge, wc.WordID, wc.CategoryID)
	}
	return err
}

func (g *GormStore) SetMainCategory(ctx context.Context, wordID, categoryID string, main bool) error {
	return g.db.WithContext(ctx).
		Model(&model.WordCategory{}).
		Where("word_id = ? AND category_id = ?", wordID, categoryID).
		Update("is_main_category", main).Error
}

func (g *GormStore) DeleteAssignment(ctx context.Context, wordID, categoryID string) error {
	return g.db.WithContext(ctx).
		Where("word_id = ? AND category_id = ?", wordID, categoryID).
		Delete(&model.WordCategory{}).Error
}

func (g *GormStore) MainCategoryViolations(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).
		Model(&model.WordCategory{}).
		Select("word_id").
		Group("word_id").
		Having("SUM(CASE WHEN is_main_category THEN 1 ELSE 0 END) <> 1").
		Pluck("word_id", &ids).Error
	return ids, err
}

func (g *GormStore) CreateSynonym(ctx context.Context, s *model.Synonym) error {
	s.PairKey = model.PairKey(s.WordID, s.SynonymID)
	err := g.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s and %s are already synonyms", apperr.ErrDuplicateEdge, s.WordID, s.SynonymID)
	}
	return err
}

func (g *GormStore) FindSynonym(ctx context.Context, a, b string) (*model.Synonym, error) {
	var synonym model.Synonym
	err := g.db.WithContext(ctx).Where("pair_key = ?", model.PairKey(a, b)).First(&synonym).Error
	if err != nil {
		return nil, notFound(err, "synonym %s/%s", a, b)
	}
	return &synonym, nil
}

func (g *GormStore) DeleteSynonym(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Synonym{}).Error
}

func (g *GormStore) ListSynonyms(ctx context.Context, wordID string) ([]*model.Synonym, error) {
	var synonyms []*model.Synonym
	err := g.db.WithContext(ctx).
		Where("word_id = ? OR synonym_id = ?", wordID, wordID).
		Order("created_at asc").
		Find(&synonyms).Error
	return synonyms, err
}

func (g *GormStore) DanglingSynonyms(ctx context.Context) ([]*model.Synonym, error) {
	ineligible := func() *gorm.DB {
		return g.db.Unscoped().
			Model(&model.Word{}).
			Select("id").
			Where("deleted_at IS NOT NULL OR validation_status = ?", model.StatusRejected)
	}

	var synonyms []*model.Synonym
	err := g.db.WithContext(ctx).
		Where("word_id IN (?) OR synonym_id IN (?)", ineligible(), ineligible()).
		Order("created_at asc").
		Find(&synonyms).Error
	return synonyms, err
}

func (g *GormStore) CreateContribution(ctx context.Context, c *model.Contribution) error {
	return g.db.WithContext(ctx).Create(c).Error
}

func (g *GormStore) GetContribution(ctx context.Context, id string) (*model.Contribution, error) {
	var contribution model.Contribution
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&contribution).Error
	if err != nil {
		return nil, notFound(err, "contribution %s", id)
	}
	return &contribution, nil
}

func (g *GormStore) ListContributions(ctx context.Context, entityType model.EntityType, entityID string) ([]*model.Contribution, error) {
	var contributions []*model.Contribution
	err := g.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at asc, seq asc").
		Find(&contributions).Error
	return contributions, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func findEntities(q *gorm.DB, kind model.EntityType) ([]model.Moderatable, error) {
	switch kind {
	case model.EntityWord:
		return findAs[model.Word](q)
	case model.EntityTranslation:
		return findAs[model.Translation](q)
	case model.EntityExample:
		return findAs[model.Example](q)
	case model.EntityConjugation:
		return findAs[model.Conjugation](q)
	case model.EntityPhrase:
		return findAs[model.Phrase](q)
	}

	return nil, fmt.Errorf("%w: unknown entity type %q", apperr.ErrValidation, kind)
}

func findAs[T any, P interface {
	*T
	model.Moderatable
}](q *gorm.DB) ([]model.Moderatable, error) {
	var rows []P
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.Moderatable, len(rows))
	for i, row := range rows {
		out[i] = row
	}

	return out, nil
}
