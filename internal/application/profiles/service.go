package profiles

import (
	"context"
	"errors"
	"strings"

	"riftmarket-backend/internal/domain"
	"riftmarket-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

var (
	ErrInvalidDisplayName = errors.New("Display name must be 1-40 letters, digits, spaces, or - _ ' .")
	ErrInvalidContact     = errors.New("Contact info must be a valid email")
	ErrNoFields           = errors.New("Missing update fields")
)

// Service is the profile self-service surface.
type Service struct {
	Profiles domain.ProfileRepository
	Holdings domain.HoldingsRepository
}

// ProfileView is a profile with its have/want snapshot.
type ProfileView struct {
	Profile  *domain.Profile `json:"profile"`
	Holdings domain.Holdings `json:"holdings"`
}

// UpdateProfileInput carries the editable fields; nil means unchanged.
type UpdateProfileInput struct {
	DisplayName     *string `json:"display_name"`
	ContactInfo     *string `json:"contact_info"`
	TradingLocation *string `json:"trading_location"`
}

func (s *Service) View(ctx context.Context, profileID uuid.UUID) (*ProfileView, error) {
	p, err := s.Profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	h, err := s.Holdings.GetHoldings(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, Holdings: h}, nil
}

// Update validates and applies the given fields. An empty trading location clears it.
func (s *Service) Update(ctx context.Context, profileID uuid.UUID, in UpdateProfileInput) (*domain.Profile, error) {
	fields := map[string]interface{}{}
	if in.DisplayName != nil {
		name := validation.NormalizeSpaces(*in.DisplayName)
		if !validation.IsValidDisplayName(name) {
			return nil, ErrInvalidDisplayName
		}
		fields["display_name"] = name
	}
	if in.ContactInfo != nil {
		contact := strings.ToLower(strings.TrimSpace(*in.ContactInfo))
		if !validation.IsValidEmail(contact) {
			return nil, ErrInvalidContact
		}
		fields["contact_info"] = contact
	}
	if in.TradingLocation != nil {
		loc := validation.NormalizeSpaces(*in.TradingLocation)
		if loc == "" {
			fields["trading_location"] = nil
		} else {
			fields["trading_location"] = loc
		}
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	return s.Profiles.Update(ctx, profileID, fields)
}

// Delete removes the profile with its holdings and every match naming it.
func (s *Service) Delete(ctx context.Context, profileID uuid.UUID) error {
	return s.Profiles.Delete(ctx, profileID)
}
