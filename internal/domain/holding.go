package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HoldingRole says whether a profile offers a card or is looking for it.
type HoldingRole string

const (
	RoleHave HoldingRole = "have"
	RoleWant HoldingRole = "want"
)

// CardHolding is one entry of a profile's have or want list.
// The card_id index is what lets matching look up every profile touching a card
// without scanning the whole population.
type CardHolding struct {
	HoldingID uuid.UUID   `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	ProfileID uuid.UUID   `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:idx_holding_profile_card_role" json:"profile_id"`
	CardID    string      `gorm:"column:card_id;type:varchar(32);not null;index:idx_holding_card;uniqueIndex:idx_holding_profile_card_role" json:"card_id"`
	Role      HoldingRole `gorm:"column:role;type:varchar(8);not null;uniqueIndex:idx_holding_profile_card_role" json:"role"`
	Quantity  int         `gorm:"column:quantity;not null;default:1" json:"quantity"`
	CreatedAt time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time   `gorm:"column:updated_at" json:"updated_at"`
}

func (CardHolding) TableName() string {
	return "CardHoldings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *CardHolding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}

// Quantities maps card id to quantity.
type Quantities map[string]int

// SortedIDs returns the card ids in ascending order.
func (q Quantities) SortedIDs() []string {
	ids := make([]string, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Holdings is a read-only snapshot of one profile's have and want lists.
type Holdings struct {
	Have Quantities `json:"have"`
	Want Quantities `json:"want"`
}

// NewHoldings returns an empty snapshot with both maps allocated.
func NewHoldings() Holdings {
	return Holdings{Have: Quantities{}, Want: Quantities{}}
}

// Empty reports whether the profile neither has nor wants anything.
func (h Holdings) Empty() bool {
	return len(h.Have) == 0 && len(h.Want) == 0
}

// CardIDs returns the sorted union of have and want card ids.
func (h Holdings) CardIDs() []string {
	seen := make(map[string]struct{}, len(h.Have)+len(h.Want))
	ids := make([]string, 0, len(h.Have)+len(h.Want))
	for _, q := range []Quantities{h.Have, h.Want} {
		for id := range q {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Add records a holding row into the snapshot. Quantities below 1 count as 1.
func (h Holdings) Add(cardID string, role HoldingRole, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	switch role {
	case RoleHave:
		h.Have[cardID] = quantity
	case RoleWant:
		h.Want[cardID] = quantity
	}
}

// ProfileHoldings pairs a snapshot with the profile it belongs to.
type ProfileHoldings struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Holdings
}
