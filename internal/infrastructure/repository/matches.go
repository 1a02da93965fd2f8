package repository

import (
	"context"
	"errors"
	"fmt"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository implements domain.MatchRepository using GORM.
type MatchRepository struct {
	DB *gorm.DB
}

var _ domain.MatchRepository = (*MatchRepository)(nil)

func (r *MatchRepository) GetMatchRecords(ctx context.Context, ownerID uuid.UUID) ([]domain.MatchRecord, error) {
	var records []domain.MatchRecord
	if err := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load matches for %s: %w", ownerID, err)
	}
	return records, nil
}

// InsertMatchRecords upserts on the (owner_id, counterpart_id) unique index. A row that
// already exists takes the incoming count and unread flag only when the count changed, so a
// run working from an outdated snapshot leaves an identical (possibly read) row alone.
// Returns the number of rows inserted or rewritten.
func (r *MatchRepository) InsertMatchRecords(ctx context.Context, records []domain.MatchRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "counterpart_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"match_count", "is_new", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: `"Matches".match_count <> excluded.match_count`},
		}},
	}).Create(&records)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: insert: %w", domain.ErrMatchPersist, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *MatchRepository) UpdateMatchRecord(ctx context.Context, matchID uuid.UUID, matchCount int, isNew bool) error {
	result := r.DB.WithContext(ctx).Model(&domain.MatchRecord{}).
		Where("match_id = ?", matchID).
		Updates(map[string]interface{}{"match_count": matchCount, "is_new": isNew})
	if result.Error != nil {
		return fmt.Errorf("%w: update %s: %w", domain.ErrMatchPersist, matchID, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepository) DeleteMatchRecords(ctx context.Context, matchIDs []uuid.UUID) error {
	if len(matchIDs) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).Where("match_id IN ?", matchIDs).Delete(&domain.MatchRecord{}).Error; err != nil {
		return fmt.Errorf("%w: delete: %w", domain.ErrMatchPersist, err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID uuid.UUID) (*domain.MatchRecord, error) {
	var m domain.MatchRecord
	if err := r.DB.WithContext(ctx).Where("match_id = ?", matchID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepository) CountUnread(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&domain.MatchRecord{}).
		Where("owner_id = ? AND is_new = ?", ownerID, true).
		Count(&n).Error
	return n, err
}

// ListWithCounterpart orders newest first; rows written in one batch share created_at,
// so the stronger match wins the tie.
func (r *MatchRepository) ListWithCounterpart(ctx context.Context, ownerID uuid.UUID) ([]domain.MatchRecord, error) {
	var records []domain.MatchRecord
	err := r.DB.WithContext(ctx).
		Preload("Counterpart").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, match_count DESC, counterpart_id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MatchRepository) MarkRead(ctx context.Context, matchID uuid.UUID) error {
	result := r.DB.WithContext(ctx).Model(&domain.MatchRecord{}).
		Where("match_id = ?", matchID).
		Update("is_new", false)
	if result.Error != nil {
		return fmt.Errorf("%w: mark read: %w", domain.ErrMatchPersist, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepository) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&domain.MatchRecord{}).
		Where("owner_id = ? AND is_new = ?", ownerID, true).
		Update("is_new", false)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: mark all read: %w", domain.ErrMatchPersist, result.Error)
	}
	return result.RowsAffected, nil
}
