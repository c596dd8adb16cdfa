package model

// Word is a dictionary headword. InitialLetter is derived from Term and is
// never set from user input.
type Word struct {
	Entity
	Term          string `gorm:"not null;uniqueIndex" json:"term"`
	InitialLetter string `gorm:"type:varchar(8);not null;index" json:"initialLetter"`
	Definition    string `json:"definition"`
	PartOfSpeech  string `gorm:"type:varchar(32)" json:"partOfSpeech"`
	Pronunciation string `json:"pronunciation"`
}

func (*Word) TableName() string {
	return "words"
}

func (*Word) Kind() EntityType {
	return EntityWord
}

func (*Word) OwnerWordID() string {
	return ""
}
