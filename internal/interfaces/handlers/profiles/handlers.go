package profiles

import (
	"errors"

	profilesvc "riftmarket-backend/internal/application/profiles"
	"riftmarket-backend/internal/domain"
	"riftmarket-backend/internal/middleware"
	"riftmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers holds the profile service plus what is needed to drop the session on delete.
type Handlers struct {
	Service *profilesvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// ViewProfile GET /api/v1/profiles/me
func (h *Handlers) ViewProfile(c *fiber.Ctx) error {
	profileID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	view, err := h.Service.View(c.Context(), profileID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return response.Success(c, "Profile found", view, nil)
}

// UpdateProfile PATCH /api/v1/profiles/me
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	profileID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req profilesvc.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.Service.Update(c.Context(), profileID, req)
	if err != nil {
		return mapProfileError(c, err)
	}
	return response.Success(c, "Profile updated successfully", fiber.Map{"profile": p}, nil)
}

// DeleteProfile DELETE /api/v1/profiles/me: removes the profile, its holdings and matches, and ends the session.
func (h *Handlers) DeleteProfile(c *fiber.Ctx) error {
	profileID, ok := middleware.ProfileID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := h.Service.Delete(c.Context(), profileID); err != nil {
		return mapProfileError(c, err)
	}

	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		_ = h.Rdb.Del(c.Context(), middleware.SessionRedisPrefix+sid).Err()
	}
	middleware.DestroySession(c)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Profile deleted", nil, nil)
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, profilesvc.ErrInvalidDisplayName),
		errors.Is(err, profilesvc.ErrInvalidContact),
		errors.Is(err, profilesvc.ErrNoFields):
		return response.BadRequest(c, err.Error())
	default:
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
