package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchRecord is the persisted, per-owner view of an overlap with one counterpart.
//
// Records are directional: (owner=P1, counterpart=P2) and (owner=P2, counterpart=P1)
// are separate rows with their own count and unread flag. Do not fold them into one
// shared row; each owner acknowledges its own notifications.
type MatchRecord struct {
	MatchID       uuid.UUID `gorm:"column:match_id;type:uuid;primaryKey" json:"match_id"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_match_owner_counterpart" json:"owner_id"`
	CounterpartID uuid.UUID `gorm:"column:counterpart_id;type:uuid;not null;uniqueIndex:idx_match_owner_counterpart" json:"counterpart_id"`
	MatchCount    int       `gorm:"column:match_count;not null" json:"match_count"`
	IsNew         bool      `gorm:"column:is_new;not null" json:"is_new"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`

	Counterpart *Profile `gorm:"foreignKey:CounterpartID;references:ProfileID" json:"counterpart,omitempty"`
}

func (MatchRecord) TableName() string {
	return "Matches"
}

func (m *MatchRecord) BeforeCreate(tx *gorm.DB) error {
	if m.MatchID == uuid.Nil {
		m.MatchID = uuid.New()
	}
	return nil
}

// MatchedCardDetail is one card contributing to a match. Never stored.
type MatchedCardDetail struct {
	CardID       string `json:"card_id"`
	Card         *Card  `json:"card,omitempty"`
	HaveQuantity int    `json:"have_quantity"`
	WantQuantity int    `json:"want_quantity"`
}

// Match is a freshly computed overlap between an owner and one counterpart.
type Match struct {
	CounterpartID uuid.UUID           `json:"counterpart_id"`
	MatchCount    int                 `json:"match_count"`
	MatchedCards  []MatchedCardDetail `json:"matched_cards"`
}
