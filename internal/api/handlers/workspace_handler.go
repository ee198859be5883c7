package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postdeck/internal/service"
)

type WorkspaceHandler struct {
	s service.StatsService
}

func NewWorkspaceHandler(service service.StatsService) *WorkspaceHandler {
	return &WorkspaceHandler{s: service}
}

func (h *WorkspaceHandler) GetStats(c *fiber.Ctx) error {
	userID := GetUserID(c)

	stats, err := h.s.Get(c.Context(), userID)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *WorkspaceHandler) GetUpcoming(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.Upcoming(c.Context(), userID)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *WorkspaceHandler) GetRecentActivity(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.RecentActivity(c.Context(), userID)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
