package character

import (
	"errors"

	"codex-manager/core/logger"
	"codex-manager/feature/character/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for characters.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the character routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/characters")
	group.Post("/", h.HandleCreateCharacter)
	group.Get("/:id", h.HandleGetCharacter)
	group.Post("/:id/level-up", h.HandleLevelUp)
}

type createCharacterRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// HandleCreateCharacter creates a character.
// @Summary Create Character
// @Description Create a new character record.
// @Tags characters
// @Accept json
// @Produce json
// @Param character body createCharacterRequest true "Character"
// @Success 201 {object} models.Character "Character"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /characters [post]
func (h *Handler) HandleCreateCharacter(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req createCharacterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	row := &models.Character{Name: req.Name, Notes: req.Notes}
	if err := h.service.db.Create(row).Error; err != nil {
		l.Error("Character creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}

// CharacterSheet bundles a character with its recorded progression.
type CharacterSheet struct {
	Character models.Character        `json:"character"`
	Levels    []models.CharacterLevel `json:"levels"`
	Choices   []models.CharacterChoice `json:"choices"`
}

// HandleGetCharacter returns a character with its levels and choices.
// @Summary Get Character
// @Description Get a character record with its level history and choices.
// @Tags characters
// @Accept json
// @Produce json
// @Param id path int true "Character ID"
// @Success 200 {object} CharacterSheet "Character Sheet"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /characters/{id} [get]
func (h *Handler) HandleGetCharacter(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	sheet, err := h.service.Sheet(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	if err != nil {
		l.Error("Character lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sheet)
}

// HandleLevelUp applies a level-up to a character.
// @Summary Level Up
// @Description Apply a level-up with optional choice selections. Choice selections are validated against their prerequisites.
// @Tags characters
// @Accept json
// @Produce json
// @Param id path int true "Character ID"
// @Param levelUp body LevelUpInput true "Level Up"
// @Success 201 {object} models.CharacterLevel "Character Level"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} map[string]string "Prerequisite Failed"
// @Router /characters/{id}/level-up [post]
func (h *Handler) HandleLevelUp(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var input LevelUpInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	input.CharacterID = uint(id)

	row, err := h.service.ApplyLevelUp(input)
	if err != nil {
		l.Warn("Level-up rejected", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}
