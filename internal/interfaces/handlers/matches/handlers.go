package matches

import (
	"errors"

	matchsvc "riftmarket-backend/internal/application/matching"
	notifsvc "riftmarket-backend/internal/application/notifications"
	"riftmarket-backend/internal/domain"
	"riftmarket-backend/internal/middleware"
	"riftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serve the profile-view triggers: reconcile on load, live match list, overlap.
type Handlers struct {
	Matching      *matchsvc.Service
	Notifications *notifsvc.Service
}

// Reconcile POST /api/v1/matches/reconcile: refresh the session profile's stored matches.
func (h *Handlers) Reconcile(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	newCount := h.Matching.Reconcile(c.Context(), ownerID)
	unread, err := h.Notifications.UnreadCount(c.Context(), ownerID)
	if err != nil {
		return response.Error(c, "Failed to count notifications", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Matches reconciled", fiber.Map{
		"new_count":    newCount,
		"unread_count": unread,
	}, nil)
}

// List GET /api/v1/matches: freshly computed matches, nothing persisted.
func (h *Handlers) List(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	matches := h.Matching.ComputeMatches(c.Context(), ownerID)
	return response.Success(c, "Matches computed", fiber.Map{"matches": matches}, fiber.Map{"count": len(matches)})
}

// Overlap GET /api/v1/matches/overlap/:profile_id: what the viewer and the viewed profile can trade.
func (h *Handlers) Overlap(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	counterpartID, err := uuid.Parse(c.Params("profile_id"))
	if err != nil {
		return response.BadRequest(c, "Invalid profile ID format (must be a valid UUID)")
	}
	if counterpartID == ownerID {
		return response.BadRequest(c, "Cannot compute overlap with your own profile")
	}

	m, err := h.Matching.ComputeOverlap(c.Context(), ownerID, counterpartID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.Error(c, "Failed to compute overlap", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Overlap computed", fiber.Map{"match": m}, nil)
}
