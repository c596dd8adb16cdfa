package model

import "time"

// Category is an admin managed thematic category.
type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// WordCategory assigns a category to a word. A word with assignments has
// exactly one of them flagged as main.
type WordCategory struct {
	WordID         string    `gorm:"primaryKey;type:varchar(36)" json:"wordId"`
	CategoryID     string    `gorm:"primaryKey;type:varchar(36);index" json:"categoryId"`
	IsMainCategory bool      `gorm:"not null;default:false" json:"isMainCategory"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (WordCategory) TableName() string {
	return "word_categories"
}
