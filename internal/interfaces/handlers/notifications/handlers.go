package notifications

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

// Handlers back the notification bell.
type Handlers struct {
	Service  *notifsvc.Service
	Matching *matchsvc.Service
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *Handlers) UnreadCount(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	n, err := h.Service.UnreadCount(c.Context(), ownerID)
	if err != nil {
		return response.Error(c, "Failed to count notifications", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Unread count", fiber.Map{"unread_count": n}, nil)
}

// List GET /api/v1/notifications: ?refresh=true reconciles first (bell opened).
func (h *Handlers) List(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	newCount := 0
	if c.QueryBool("refresh") && h.Matching != nil {
		newCount = h.Matching.Reconcile(c.Context(), ownerID)
	}
	records, err := h.Service.ListMatches(c.Context(), ownerID)
	if err != nil {
		return response.Error(c, "Failed to load notifications", fiber.StatusInternalServerError, nil)
	}
	unread := 0
	for _, r := range records {
		if r.IsNew {
			unread++
		}
	}
	return response.Success(c, "Notifications", fiber.Map{"matches": records}, fiber.Map{
		"new_count":    newCount,
		"unread_count": unread,
	})
}

// MarkRead PATCH /api/v1/notifications/:match_id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	matchID, err := uuid.Parse(c.Params("match_id"))
	if err != nil {
		return response.BadRequest(c, "Invalid match ID format (must be a valid UUID)")
	}
	if err := h.Service.MarkRead(c.Context(), matchID, ownerID); err != nil {
		return mapMarkReadError(c, err)
	}
	return response.Success(c, "Notification marked as read", nil, nil)
}

// MarkAllRead PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	ownerID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	n, err := h.Service.MarkAllRead(c.Context(), ownerID)
	if err != nil {
		return response.Error(c, "Failed to update notifications", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "All notifications marked as read", fiber.Map{"updated": n}, nil)
}

func mapMarkReadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorizedMutation):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrMatchNotFound):
		return response.NotFound(c, err.Error())
	default:
		return response.Error(c, "Failed to update notification", fiber.StatusInternalServerError, nil)
	}
}
