package router

import (
	"github.com/gofiber/fiber/v2"
	handlers "github.com/variantlab/configcore/pkg/handlers/http"
	"github.com/variantlab/configcore/pkg/middleware"
)

type apiRouter struct {
	middlewareTransport middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewApiRouter(
	middlewareTransport middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &apiRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *apiRouter) BuildRoutes(router *fiber.App) error {
	router.Use(r.middlewareTransport.PanicRecoverMiddleware.Middleware())

	v1 := router.Group("/api/v1")
	{
		// Configurator tree resolution
		configurators := v1.Group("/configurators")
		{
			configurators.Get("/:name/legacy-tree", r.handlerTransport.GetLegacyTreeHandler.Handle)
			configurators.Get("/:name/tree", r.handlerTransport.GetTreeHandler.Handle)
		}

		// Configuration pricing and persistence
		configurations := v1.Group("/configurations")
		{
			configurations.Post("/price", r.handlerTransport.CalculatePriceHandler.Handle)
			configurations.Post("/delivery-time", r.handlerTransport.DeliveryTimeHandler.Handle)
			configurations.Post("",
				r.middlewareTransport.AuthMiddleware.Middleware(),
				r.handlerTransport.SaveConfigurationHandler.Handle,
			)
			configurations.Get("/:id",
				r.middlewareTransport.AuthMiddleware.Middleware(),
				r.handlerTransport.GetConfigurationHandler.Handle,
			)
		}
	}
	return nil
}
