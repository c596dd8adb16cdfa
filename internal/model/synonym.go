package model

import "time"

const (
	MinSynonymStrength = 1
	MaxSynonymStrength = 10
)

// Synonym is a synonymy edge, stored in the direction it was created.
// PairKey is the same for both directions and is unique, so a pair has at
// most one row.
type Synonym struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WordID    string    `gorm:"type:varchar(36);not null;index" json:"wordId"`
	SynonymID string    `gorm:"type:varchar(36);not null;index" json:"synonymId"`
	PairKey   string    `gorm:"type:varchar(80);not null;uniqueIndex" json:"-"`
	Strength  int       `gorm:"not null" json:"strength"`
	Language  Language  `gorm:"type:varchar(16);not null" json:"language"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Synonym) TableName() string {
	return "synonyms"
}

// Other returns the endpoint that is not wordID.
func (s *Synonym) Other(wordID string) string {
	if s.WordID == wordID {
		return s.SynonymID
	}
	return s.WordID
}

// PairKey returns the direction independent key of the pair (a, b).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
