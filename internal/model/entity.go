package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EntityType names a moderatable record kind. It is also the entity type of
// ledger rows.
type EntityType string

const (
	EntityWord        EntityType = "word"
	EntityTranslation EntityType = "translation"
	EntityExample     EntityType = "example"
	EntityConjugation EntityType = "conjugation"
	EntityPhrase      EntityType = "phrase"
)

var entityTypes = []EntityType{EntityWord, EntityTranslation, EntityExample, EntityConjugation, EntityPhrase}

// EntityTypes returns all moderatable kinds.
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// ChildTypes returns the kinds that can be owned by a word.
func ChildTypes() []EntityType {
	return []EntityType{EntityTranslation, EntityExample, EntityConjugation, EntityPhrase}
}

func (t EntityType) Valid() bool {
	for _, et := range entityTypes {
		if t == et {
			return true
		}
	}
	return false
}

// ValidationStatus is the moderation state of a record.
type ValidationStatus string

const (
	StatusPending   ValidationStatus = "pending"
	StatusValidated ValidationStatus = "validated"
	StatusRejected  ValidationStatus = "rejected"
)

func (s ValidationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// Language is the language attribute of translations and synonym edges.
type Language string

const (
	LanguageWolof  Language = "wolof"
	LanguageFrench Language = "français"
)

func (l Language) Valid() bool {
	return l == LanguageWolof || l == LanguageFrench
}

// Entity holds the columns shared by every moderatable record.
// Version is the optimistic concurrency token, bumped on every write.
type Entity struct {
	ID               string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ValidationStatus ValidationStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"validationStatus"`
	ValidationDate   *time.Time       `json:"validationDate"`
	CreatedBy        string           `gorm:"not null" json:"createdBy"`
	ValidatedBy      *string          `json:"validatedBy"`
	Version          int64            `gorm:"not null" json:"version"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime:false" json:"updatedAt"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"deletedAt"`
}

func (e *Entity) Base() *Entity {
	return e
}

func (e *Entity) IsDeleted() bool {
	return e.DeletedAt.Valid
}

// Moderatable is implemented by Word, Translation, Example, Conjugation and
// Phrase.
type Moderatable interface {
	Base() *Entity
	Kind() EntityType
	TableName() string
	// OwnerWordID is the word the record belongs to, empty for words and
	// free standing phrases.
	OwnerWordID() string
}

// New returns an empty record of the given kind, ready to be loaded into.
func New(kind EntityType) (Moderatable, error) {
	switch kind {
	case EntityWord:
		return &Word{}, nil
	case EntityTranslation:
		return &Translation{}, nil
	case EntityExample:
		return &Example{}, nil
	case EntityConjugation:
		return &Conjugation{}, nil
	case EntityPhrase:
		return &Phrase{}, nil
	}

	return nil, fmt.Errorf("unknown entity type %q", kind)
}
