package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	appConfiguration "github.com/variantlab/configcore/pkg/app/configuration"
	"github.com/variantlab/configcore/pkg/domain"
)

type getConfigurationHandler struct {
	logger *logrus.Logger
	finder appConfiguration.Finder
}

func NewGetConfigurationHandler(logger *logrus.Logger, finder appConfiguration.Finder) Handler {
	return &getConfigurationHandler{
		logger: logger,
		finder: finder,
	}
}

// Handle @Summary Load a saved configuration
// @Description Returns a persisted configuration with its lines and audit trail
// @Tags Configurations
// @Produce json
// @Param id path int true "Configuration id"
// @Success 200 {object} configuration.Configuration "Configuration"
// @Router /api/v1/configurations/{id} [get]
func (h *getConfigurationHandler) Handle(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid configuration id"})
	}

	entity, err := h.finder.Find(c.Context(), id)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "configuration not found"})
		}
		h.logger.WithError(err).WithField("configuration_id", id).
			Error("failed to load configuration")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load configuration"})
	}

	return c.Status(fiber.StatusOK).JSON(entity)
}
