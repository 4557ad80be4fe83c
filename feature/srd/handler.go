package srd

import (
	"errors"

	"codex-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles HTTP requests for the rules graph.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the srd routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/srd")
	group.Get("/classes", h.HandleListClasses)
	group.Get("/classes/:key", h.HandleGetClass)
	group.Get("/classes/:key/features", h.HandleClassFeatures)
	group.Get("/classes/:key/spells", h.HandleClassSpells)
	group.Get("/classes/:key/choices", h.HandleClassChoices)
	group.Get("/classes/:key/proficiencies", h.HandleClassProficiencies)
	group.Get("/verify", h.HandleVerify)
	group.Get("/sources/:id/diff", h.HandleSnapshotDiff)
}

func (h *Handler) classOr404(c *fiber.Ctx) (uint, bool) {
	class, err := h.service.ClassByKey(c.Params("key"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "class not found"})
		return 0, false
	}
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		return 0, false
	}
	return class.ID, true
}

// HandleListClasses lists every class.
// @Summary List Classes
// @Description List every normalized class.
// @Tags srd
// @Produce json
// @Success 200 {array} models.Class "Classes"
// @Router /srd/classes [get]
func (h *Handler) HandleListClasses(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	classes, err := h.service.ListClasses()
	if err != nil {
		l.Error("Class listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(classes)
}

// HandleGetClass returns one class by source key.
// @Summary Get Class
// @Description Get a class by its source key.
// @Tags srd
// @Produce json
// @Param key path string true "Class source key (e.g. 'fighter')"
// @Success 200 {object} models.Class "Class"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /srd/classes/{key} [get]
func (h *Handler) HandleGetClass(c *fiber.Ctx) error {
	class, err := h.service.ClassByKey(c.Params("key"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "class not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(class)
}

// HandleClassFeatures returns class features. With ?level=N only the
// features unlocking exactly at that level are returned, otherwise every
// feature up to ?max_level (default 20).
// @Summary Class Features
// @Description Get the features a class unlocks, optionally pinned to one level.
// @Tags srd
// @Produce json
// @Param key path string true "Class source key"
// @Param level query int false "Exact unlock level"
// @Param max_level query int false "Upper level bound (default 20)"
// @Success 200 {array} queries.FeatureView "Features"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /srd/classes/{key}/features [get]
func (h *Handler) HandleClassFeatures(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	classID, ok := h.classOr404(c)
	if !ok {
		return nil
	}

	if level := c.QueryInt("level", -1); level >= 0 {
		views, err := h.service.Queries().ClassFeaturesAtLevel(classID, level)
		if err != nil {
			l.Error("Feature query failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(views)
	}

	result, err := h.service.Queries().AllAvailableFeatures(classID, nil, c.QueryInt("max_level", 20))
	if err != nil {
		l.Error("Feature query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result.ClassFeatures)
}

// HandleClassSpells returns the class spell list.
// @Summary Class Spell List
// @Description Get the spell list for a class, sorted by spell level then name.
// @Tags srd
// @Produce json
// @Param key path string true "Class source key"
// @Success 200 {array} queries.SpellView "Spells"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /srd/classes/{key}/spells [get]
func (h *Handler) HandleClassSpells(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	classID, ok := h.classOr404(c)
	if !ok {
		return nil
	}
	views, err := h.service.Queries().SpellListForClass(classID)
	if err != nil {
		l.Error("Spell list query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(views)
}

// HandleClassChoices returns the class choice groups at a level.
// @Summary Class Choices
// @Description Get the choice groups a class presents at a level, with options.
// @Tags srd
// @Produce json
// @Param key path string true "Class source key"
// @Param level query int false "Level (default 1)"
// @Success 200 {array} queries.ChoiceView "Choice Groups"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /srd/classes/{key}/choices [get]
func (h *Handler) HandleClassChoices(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	classID, ok := h.classOr404(c)
	if !ok {
		return nil
	}
	views, err := h.service.Queries().ChoicesForClassAtLevel(classID, c.QueryInt("level", 1))
	if err != nil {
		l.Error("Choice query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(views)
}

// HandleClassProficiencies returns the proficiency grants at a level.
// @Summary Class Proficiencies
// @Description Get the proficiency grants a class member picks up at a level.
// @Tags srd
// @Produce json
// @Param key path string true "Class source key"
// @Param level query int false "Level (default 1)"
// @Success 200 {array} queries.ProficiencyView "Proficiency Grants"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /srd/classes/{key}/proficiencies [get]
func (h *Handler) HandleClassProficiencies(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	classID, ok := h.classOr404(c)
	if !ok {
		return nil
	}
	views, err := h.service.Queries().GrantedProficienciesForClassLevel(classID, c.QueryInt("level", 1))
	if err != nil {
		l.Error("Proficiency query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(views)
}

// HandleVerify runs the consistency checks.
// @Summary Verify
// @Description Run every consistency check and return the report.
// @Tags srd
// @Produce json
// @Success 200 {object} verify.Report "Report"
// @Router /srd/verify [get]
func (h *Handler) HandleVerify(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	report, err := h.service.Verify()
	if err != nil {
		l.Error("Verification failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleSnapshotDiff compares the two most recent snapshots of a source.
// @Summary Snapshot Diff
// @Description Compare the two most recent snapshots of a source.
// @Tags srd
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} map[string][]string "Changes"
// @Router /srd/sources/{id}/diff [get]
func (h *Handler) HandleSnapshotDiff(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	changes, err := h.service.SnapshotDiff(uint(id))
	if err != nil {
		l.Error("Snapshot diff failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"changes": changes})
}
