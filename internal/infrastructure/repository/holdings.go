package repository

import (
	"context"
	"fmt"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// cardChunk bounds the IN list per query; Postgres caps bind parameters per statement.
const cardChunk = 1000

// HoldingsRepository implements domain.HoldingsRepository using GORM.
type HoldingsRepository struct {
	DB *gorm.DB
}

var _ domain.HoldingsRepository = (*HoldingsRepository)(nil)

// GetHoldings loads every have/want row of one profile.
func (r *HoldingsRepository) GetHoldings(ctx context.Context, profileID uuid.UUID) (domain.Holdings, error) {
	var rows []domain.CardHolding
	if err := r.DB.WithContext(ctx).Where("profile_id = ?", profileID).Find(&rows).Error; err != nil {
		return domain.Holdings{}, fmt.Errorf("%w: profile %s: %w", domain.ErrHoldingsFetch, profileID, err)
	}
	h := domain.NewHoldings()
	for _, row := range rows {
		h.Add(row.CardID, row.Role, row.Quantity)
	}
	return h, nil
}

// ListAllProfilesWithHoldings is the population scan: the first limit profiles (by id) that hold anything.
func (r *HoldingsRepository) ListAllProfilesWithHoldings(ctx context.Context, excludeProfileID uuid.UUID, limit int) ([]domain.ProfileHoldings, error) {
	var ids []uuid.UUID
	q := r.DB.WithContext(ctx).Model(&domain.CardHolding{}).
		Distinct("profile_id").
		Where("profile_id <> ?", excludeProfileID).
		Order("profile_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("profile_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: list profiles: %w", domain.ErrHoldingsFetch, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []domain.CardHolding
	if err := r.DB.WithContext(ctx).
		Where("profile_id IN ?", ids).
		Order("profile_id, card_id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list population: %w", domain.ErrHoldingsFetch, err)
	}
	return groupByProfile(rows), nil
}

// ListHoldingsForCards reads the card_id index: only rows on the owner's cards come back.
func (r *HoldingsRepository) ListHoldingsForCards(ctx context.Context, excludeProfileID uuid.UUID, cardIDs []string) ([]domain.ProfileHoldings, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}
	var rows []domain.CardHolding
	for start := 0; start < len(cardIDs); start += cardChunk {
		end := start + cardChunk
		if end > len(cardIDs) {
			end = len(cardIDs)
		}
		var chunk []domain.CardHolding
		if err := r.DB.WithContext(ctx).
			Where("card_id IN ? AND profile_id <> ?", cardIDs[start:end], excludeProfileID).
			Order("profile_id, card_id").
			Find(&chunk).Error; err != nil {
			return nil, fmt.Errorf("%w: cards lookup: %w", domain.ErrHoldingsFetch, err)
		}
		rows = append(rows, chunk...)
	}
	return groupByProfile(rows), nil
}

// groupByProfile folds rows into one snapshot per profile, keeping first-seen order.
func groupByProfile(rows []domain.CardHolding) []domain.ProfileHoldings {
	index := make(map[uuid.UUID]int)
	out := make([]domain.ProfileHoldings, 0)
	for _, row := range rows {
		i, ok := index[row.ProfileID]
		if !ok {
			i = len(out)
			index[row.ProfileID] = i
			out = append(out, domain.ProfileHoldings{ProfileID: row.ProfileID, Holdings: domain.NewHoldings()})
		}
		out[i].Add(row.CardID, row.Role, row.Quantity)
	}
	return out
}
