package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a trading participant. Matching only ever reads it, apart from last_match_check.
type Profile struct {
	ProfileID       uuid.UUID  `gorm:"column:profile_id;type:uuid;primaryKey" json:"profile_id"`
	DisplayName     string     `gorm:"column:display_name;not null" json:"display_name"`
	ContactInfo     string     `gorm:"column:contact_info" json:"contact_info"`
	TradingLocation *string    `gorm:"column:trading_location" json:"trading_location"`
	LastMatchCheck  *time.Time `gorm:"column:last_match_check;index" json:"last_match_check"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "Profiles"
}

// BeforeCreate ensures profile_id is set for DBs without default uuid.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ProfileID == uuid.Nil {
		p.ProfileID = uuid.New()
	}
	return nil
}
