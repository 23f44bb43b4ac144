package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/config"
	handlers "github.com/variantlab/configcore/pkg/handlers/http"
	"github.com/variantlab/configcore/pkg/middleware"
	"github.com/variantlab/configcore/pkg/server/router"
)

type (
	ApiServerDI struct {
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		Config              *config.Config
		Logger              *logrus.Logger
	}
	ApiServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
		handlerTransport    handlers.HandlerTransport
	}
)

func NewApiServer(di ApiServerDI) *ApiServer {
	return &ApiServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
		handlerTransport:    di.HandlerTransport,
	}
}

func (s *ApiServer) Run() error {
	s.WithRouters(router.NewApiRouter(s.middlewareTransport, s.handlerTransport))
	s.setupHealthCheck()
	s.setupMetricsEndpoint()

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("Starting api server")
	return s.Router.Listen(addr)
}

func (s *ApiServer) Shutdown() error {
	return s.Router.Shutdown()
}
