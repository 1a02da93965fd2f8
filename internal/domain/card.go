package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Card is immutable reference data. Matching treats CardID as an opaque key and
// passes the rest through for display.
type Card struct {
	CardID     string         `gorm:"column:card_id;type:varchar(32);primaryKey" json:"card_id"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	SetName    string         `gorm:"column:set_name" json:"set_name"`
	ImageURL   *string        `gorm:"column:image_url" json:"image_url"`
	Attributes datatypes.JSON `gorm:"column:attributes;type:jsonb" json:"attributes"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Card) TableName() string {
	return "Cards"
}
