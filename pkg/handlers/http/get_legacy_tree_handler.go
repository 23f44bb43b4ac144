package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/app/tree"
)

type getLegacyTreeHandler struct {
	logger   *logrus.Logger
	resolver tree.LegacyResolver
}

func NewGetLegacyTreeHandler(logger *logrus.Logger, resolver tree.LegacyResolver) Handler {
	return &getLegacyTreeHandler{
		logger:   logger,
		resolver: resolver,
	}
}

// Handle @Summary Resolve the legacy step tree of a configurator
// @Description Returns the flattened step rows with inherited templates resolved
// @Tags Configurators
// @Produce json
// @Param name path string true "Configurator name"
// @Success 200 {array} types.LegacyStepDTO "Steps"
// @Router /api/v1/configurators/{name}/legacy-tree [get]
func (h *getLegacyTreeHandler) Handle(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "configurator name is required"})
	}

	steps, err := h.resolver.Resolve(c.Context(), name)
	if err != nil {
		h.logger.WithError(err).WithField("configurator", name).Error("failed to resolve legacy tree")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve tree"})
	}
	return c.Status(fiber.StatusOK).JSON(steps)
}
