package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	appConfiguration "github.com/variantlab/configcore/pkg/app/configuration"
	"github.com/variantlab/configcore/pkg/app/pricing"
	"github.com/variantlab/configcore/pkg/types"
)

type saveConfigurationRequest struct {
	types.Submission
	ParentID uint64 `json:"parent_id"`
}

type saveConfigurationHandler struct {
	logger     *logrus.Logger
	calculator pricing.Calculator
	finder     pricing.DeliveryFinder
	saver      appConfiguration.Saver
}

func NewSaveConfigurationHandler(
	logger *logrus.Logger,
	calculator pricing.Calculator,
	finder pricing.DeliveryFinder,
	saver appConfiguration.Saver,
) Handler {
	return &saveConfigurationHandler{
		logger:     logger,
		calculator: calculator,
		finder:     finder,
		saver:      saver,
	}
}

// Handle @Summary Save a configuration
// @Description Prices the submission, looks up delivery time and persists the configuration with its audit trail
// @Tags Configurations
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{} "Saved configuration id"
// @Router /api/v1/configurations [post]
func (h *saveConfigurationHandler) Handle(c *fiber.Ctx) error {
	var req saveConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid configuration payload"})
	}
	if req.Configurator == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "configurator is required"})
	}

	price := h.calculator.Calculate(c.Context(), &req.Submission)
	delivery := h.finder.Find(c.Context(), &req.Submission)

	id, err := h.saver.Save(c.Context(), &req.Submission, price, delivery, req.ParentID)
	if err != nil {
		h.logger.WithError(err).WithField("configurator", req.Configurator).
			Error("failed to save configuration")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save configuration"})
	}
	if id == 0 {
		// Zero price with saving disabled for such configurations.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"configuration_id": 0, "saved": false})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"configuration_id": id, "saved": true})
}
