package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/app/pricing"
	"github.com/variantlab/configcore/pkg/types"
)

type calculatePriceHandler struct {
	logger     *logrus.Logger
	calculator pricing.Calculator
}

func NewCalculatePriceHandler(logger *logrus.Logger, calculator pricing.Calculator) Handler {
	return &calculatePriceHandler{
		logger:     logger,
		calculator: calculator,
	}
}

// Handle @Summary Calculate the price of a submission
// @Description Combines external pricing integrations with the local aggregate query
// @Tags Configurations
// @Accept json
// @Produce json
// @Success 200 {object} types.PriceResult "Price"
// @Router /api/v1/configurations/price [post]
func (h *calculatePriceHandler) Handle(c *fiber.Ctx) error {
	var submission types.Submission
	if err := c.BodyParser(&submission); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid submission payload"})
	}
	if submission.Configurator == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "configurator is required"})
	}

	price := h.calculator.Calculate(c.Context(), &submission)
	return c.Status(fiber.StatusOK).JSON(price)
}
