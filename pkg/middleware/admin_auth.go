package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/common"
	"github.com/variantlab/configcore/pkg/infra/jwt"
)

const bearerScheme = "Bearer"

// adminAuthMiddleware guards the write side of the API, currently the
// configuration save and read-back endpoints. Tree resolution and pricing
// stay public.
type adminAuthMiddleware struct {
	logger     *logrus.Logger
	jwtManager jwt.Manager
}

func NewAdminAuthMiddleware(
	logger *logrus.Logger,
	jwtManager jwt.Manager,
) Middleware {
	return &adminAuthMiddleware{
		logger:     logger,
		jwtManager: jwtManager,
	}
}

func (m *adminAuthMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token, ok := bearerToken(ctx.Get(common.AuthorizationHeader))
		if !ok {
			m.logger.WithFields(logrus.Fields{
				"method": ctx.Method(),
				"path":   ctx.Path(),
			}).Debug("rejected request without a bearer token")
			return unauthorized(ctx, "bearer token required")
		}

		if err := m.jwtManager.ValidateToken(token); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"method": ctx.Method(),
				"path":   ctx.Path(),
			}).Debug("rejected request with an invalid token")
			return unauthorized(ctx, "invalid token")
		}

		return ctx.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
