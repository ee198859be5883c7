package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postdeck/internal/service"
	"github.com/maheshrc27/postdeck/internal/transfer"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to open file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	media, err := h.s.Upload(c.Context(), userID, fileHeader.Filename, data)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(media)
}

func (h *MediaHandler) GenerateUploadURL(c *fiber.Ctx) error {
	userID := GetUserID(c)

	target, err := h.s.GenerateUploadURL(c.Context(), userID)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(target)
}

func (h *MediaHandler) SaveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var mu transfer.MediaUpload
	if err := c.BodyParser(&mu); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	media, err := h.s.Save(c.Context(), userID, &mu)
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(media)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	mediaID := c.QueryInt("id", 0)

	if mediaID != 0 {
		media, err := h.s.Get(c.Context(), userID, int64(mediaID))
		if err != nil {
			return ErrorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(media)
	}

	items, err := h.s.List(c.Context(), userID, c.Query("type"))
	if err != nil {
		return ErrorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(items)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	mediaID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), userID, int64(mediaID)); err != nil {
		return ErrorJSON(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
