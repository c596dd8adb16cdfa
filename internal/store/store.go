package store

import (
	"context"
	"time"

	"github.com/emrgen/lexicon/internal/model"
)

type Store interface {
	EntityStore
	CategoryStore
	SynonymStore
	ContributionStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type EntityStore interface {
	// CreateEntity inserts a new moderatable record.
	CreateEntity(ctx context.Context, e model.Moderatable) error
	// GetEntity retrieves a live record by kind and ID.
	GetEntity(ctx context.Context, kind model.EntityType, id string) (model.Moderatable, error)
	// GetEntityUnscoped retrieves a record by kind and ID, soft deleted ones included.
	GetEntityUnscoped(ctx context.Context, kind model.EntityType, id string) (model.Moderatable, error)
	// UpdateEntity writes e if the stored version still equals expected.
	// e.Version is set to expected+1 on success.
	UpdateEntity(ctx context.Context, e model.Moderatable, expected int64) error
	// GetWordByTerm retrieves a word by term, soft deleted ones included.
	GetWordByTerm(ctx context.Context, term string) (*model.Word, error)
	// ListWordsByLetter lists live words of a bucket ordered by term.
	ListWordsByLetter(ctx context.Context, letter string, offset, limit int) ([]*model.Word, int64, error)
	// LetterCounts returns the number of live words per bucket.
	LetterCounts(ctx context.Context) (map[string]int64, error)
	// ListPending lists pending live records of a kind, oldest first.
	ListPending(ctx context.Context, kind model.EntityType, limit int) ([]model.Moderatable, error)
	// ListChildren lists the live records of a kind owned by a word.
	ListChildren(ctx context.Context, wordID string, kind model.EntityType) ([]model.Moderatable, error)
	// DeleteChildren soft deletes the live records owned by a word, bumping
	// their versions. It returns the deleted ids per kind.
	DeleteChildren(ctx context.Context, wordID string, at time.Time) (map[model.EntityType][]string, error)
	// EachWord calls f with batches of live words.
	EachWord(ctx context.Context, batch int, f func(words []*model.Word) error) error
	// LockWord takes a row lock on a live word. With eligibleOnly a rejected
	// word is not locked. It reports whether a row was locked.
	LockWord(ctx context.Context, id string, eligibleOnly bool) (bool, error)
}

type CategoryStore interface {
	// CreateCategory creates a new category.
	CreateCategory(ctx context.Context, c *model.Category) error
	// GetCategory retrieves a category by ID.
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	// ListCategories lists all categories ordered by name.
	ListCategories(ctx context.Context) ([]*model.Category, error)
	// ListAssignments lists the category assignments of a word, oldest first.
	ListAssignments(ctx context.Context, wordID string) ([]*model.WordCategory, error)
	// CreateAssignment inserts a word category assignment.
	CreateAssignment(ctx context.Context, wc *model.WordCategory) error
	// SetMainCategory updates the main flag of an assignment.
	SetMainCategory(ctx context.Context, wordID, categoryID string, main bool) error
	// DeleteAssignment removes an assignment.
	DeleteAssignment(ctx context.Context, wordID, categoryID string) error
	// MainCategoryViolations lists words whose assignments do not have exactly one main category.
	MainCategoryViolations(ctx context.Context) ([]string, error)
}

type SynonymStore interface {
	// CreateSynonym inserts a synonym edge.
	CreateSynonym(ctx context.Context, s *model.Synonym) error
	// FindSynonym retrieves the edge between a and b in either direction.
	FindSynonym(ctx context.Context, a, b string) (*model.Synonym, error)
	// DeleteSynonym removes an edge by ID.
	DeleteSynonym(ctx context.Context, id string) error
	// ListSynonyms lists every edge touching wordID, oldest first.
	ListSynonyms(ctx context.Context, wordID string) ([]*model.Synonym, error)
	// DanglingSynonyms lists edges with a deleted or rejected endpoint.
	DanglingSynonyms(ctx context.Context) ([]*model.Synonym, error)
}

type ContributionStore interface {
	// CreateContribution appends a ledger row.
	CreateContribution(ctx context.Context, c *model.Contribution) error
	// GetContribution retrieves a ledger row by ID.
	GetContribution(ctx context.Context, id string) (*model.Contribution, error)
	// ListContributions lists the ledger rows of an entity in write order.
	ListContributions(ctx context.Context, entityType model.EntityType, entityID string) ([]*model.Contribution, error)
}
