package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/app/tree"
)

type getTreeHandler struct {
	logger       *logrus.Logger
	materializer tree.Materializer
}

func NewGetTreeHandler(logger *logrus.Logger, materializer tree.Materializer) Handler {
	return &getTreeHandler{
		logger:       logger,
		materializer: materializer,
	}
}

// Handle @Summary Resolve the recursive step tree of a configurator
// @Description Returns the configurator with its ordered step nodes and positions
// @Tags Configurators
// @Produce json
// @Param name path string true "Configurator name"
// @Param include_steps query bool false "Include step nodes (default true)"
// @Success 200 {object} types.TreeDTO "Tree"
// @Router /api/v1/configurators/{name}/tree [get]
func (h *getTreeHandler) Handle(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "configurator name is required"})
	}
	includeSteps := c.QueryBool("include_steps", true)

	out, err := h.materializer.Resolve(c.Context(), name, includeSteps)
	if err != nil {
		h.logger.WithError(err).WithField("configurator", name).Error("failed to resolve tree")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve tree"})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
