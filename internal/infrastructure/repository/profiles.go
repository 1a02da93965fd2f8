package repository

import (
	"context"
	"errors"
	"time"

	"riftmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository implements domain.ProfileRepository using GORM.
type ProfileRepository struct {
	DB *gorm.DB
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetByID(ctx context.Context, profileID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.DB.WithContext(ctx).Where("profile_id = ?", profileID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) TouchLastMatchCheck(ctx context.Context, profileID uuid.UUID, at time.Time) error {
	result := r.DB.WithContext(ctx).Model(&domain.Profile{}).
		Where("profile_id = ?", profileID).
		Update("last_match_check", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// Update applies column updates and returns the fresh row.
func (r *ProfileRepository) Update(ctx context.Context, profileID uuid.UUID, fields map[string]interface{}) (*domain.Profile, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Profile{}).
		Where("profile_id = ?", profileID).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrProfileNotFound
	}
	return r.GetByID(ctx, profileID)
}

func (r *ProfileRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]domain.Profile, error) {
	var profiles []domain.Profile
	q := r.DB.WithContext(ctx).
		Where("last_match_check IS NULL OR last_match_check < ?", before).
		Order("last_match_check ASC NULLS FIRST, profile_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Delete cascades in one transaction: holdings, matches in both directions, then the profile.
func (r *ProfileRepository) Delete(ctx context.Context, profileID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&domain.CardHolding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ? OR counterpart_id = ?", profileID, profileID).Delete(&domain.MatchRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("profile_id = ?", profileID).Delete(&domain.Profile{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrProfileNotFound
		}
		return nil
	})
}
