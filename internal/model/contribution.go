package model

import "time"

// Action is the kind of mutation recorded in the ledger.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionValidate Action = "validate"
	ActionReject   Action = "reject"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionValidate, ActionReject:
		return true
	}
	return false
}

// Contribution is one append-only ledger row. Snapshots are stored encoded
// with the codec named in Compression. Seq breaks ties between rows written
// in the same instant.
type Contribution struct {
	Seq           int64      `gorm:"primaryKey;autoIncrement"`
	ID            string     `gorm:"type:varchar(36);not null;uniqueIndex"`
	Action        Action     `gorm:"type:varchar(16);not null"`
	EntityType    EntityType `gorm:"type:varchar(16);not null;index:idx_contributions_entity,priority:1"`
	EntityID      string     `gorm:"type:varchar(36);not null;index:idx_contributions_entity,priority:2"`
	PreviousValue []byte
	NewValue      []byte
	Compression   string    `gorm:"type:varchar(16);not null"`
	Metadata      string    `gorm:"type:text"`
	UserID        string    `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"not null;index:idx_contributions_entity,priority:3"`
}

func (Contribution) TableName() string {
	return "contributions"
}
