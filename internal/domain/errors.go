package domain

import "errors"

var (
	ErrHoldingsFetch        = errors.New("Failed to fetch holdings")
	ErrMatchPersist         = errors.New("Failed to persist match")
	ErrUnauthorizedMutation = errors.New("Match does not belong to this profile")
	ErrMatchNotFound        = errors.New("Match not found")
	ErrProfileNotFound      = errors.New("Profile not found")
)
