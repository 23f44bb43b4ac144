package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/app/pricing"
	"github.com/variantlab/configcore/pkg/types"
)

type deliveryTimeHandler struct {
	logger *logrus.Logger
	finder pricing.DeliveryFinder
}

func NewDeliveryTimeHandler(logger *logrus.Logger, finder pricing.DeliveryFinder) Handler {
	return &deliveryTimeHandler{
		logger: logger,
		finder: finder,
	}
}

// Handle @Summary Look up the delivery time of a submission
// @Description Runs the configurator's delivery query against the local store
// @Tags Configurations
// @Accept json
// @Produce json
// @Success 200 {object} types.DeliveryResult "Delivery time"
// @Router /api/v1/configurations/delivery-time [post]
func (h *deliveryTimeHandler) Handle(c *fiber.Ctx) error {
	var submission types.Submission
	if err := c.BodyParser(&submission); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid submission payload"})
	}
	if submission.Configurator == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "configurator is required"})
	}

	delivery := h.finder.Find(c.Context(), &submission)
	return c.Status(fiber.StatusOK).JSON(delivery)
}
