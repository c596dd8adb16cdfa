package model

// Translation is a rendering of a word in another language.
type Translation struct {
	Entity
	WordID   string   `gorm:"type:varchar(36);not null;index" json:"wordId"`
	Text     string   `gorm:"not null" json:"text"`
	Language Language `gorm:"type:varchar(16);not null" json:"language"`
}

func (*Translation) TableName() string { return "translations" }

func (*Translation) Kind() EntityType { return EntityTranslation }

func (t *Translation) OwnerWordID() string { return t.WordID }

// Example is a usage sentence with its optional translation.
type Example struct {
	Entity
	WordID      string `gorm:"type:varchar(36);not null;index" json:"wordId"`
	Text        string `gorm:"not null" json:"text"`
	Translation string `json:"translation"`
}

func (*Example) TableName() string { return "examples" }

func (*Example) Kind() EntityType { return EntityExample }

func (e *Example) OwnerWordID() string { return e.WordID }

// Conjugation is one inflected form of a verb.
type Conjugation struct {
	Entity
	WordID string `gorm:"type:varchar(36);not null;index" json:"wordId"`
	Tense  string `gorm:"type:varchar(32);not null" json:"tense"`
	Person string `gorm:"type:varchar(32);not null" json:"person"`
	Form   string `gorm:"not null" json:"form"`
}

func (*Conjugation) TableName() string { return "conjugations" }

func (*Conjugation) Kind() EntityType { return EntityConjugation }

func (c *Conjugation) OwnerWordID() string { return c.WordID }

// Phrase is an idiom or expression, optionally attached to a word.
type Phrase struct {
	Entity
	WordID  *string `gorm:"type:varchar(36);index" json:"wordId"`
	Text    string  `gorm:"not null" json:"text"`
	Meaning string  `json:"meaning"`
}

func (*Phrase) TableName() string { return "phrases" }

func (*Phrase) Kind() EntityType { return EntityPhrase }

func (p *Phrase) OwnerWordID() string {
	if p.WordID == nil {
		return ""
	}
	return *p.WordID
}
