package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Tree resolution
	GetLegacyTreeHandler Handler
	GetTreeHandler       Handler

	// Pricing
	CalculatePriceHandler Handler
	DeliveryTimeHandler   Handler

	// Persistence
	SaveConfigurationHandler Handler
	GetConfigurationHandler  Handler
}
