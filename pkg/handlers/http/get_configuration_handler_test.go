package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/variantlab/configcore/pkg/domain"
	domainConfiguration "github.com/variantlab/configcore/pkg/domain/configuration"
)

// mockConfigurationFinder is a mock for configuration.Finder
type mockConfigurationFinder struct {
	mock.Mock
}

func (m *mockConfigurationFinder) Find(ctx context.Context, id uint64) (*domainConfiguration.Configuration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainConfiguration.Configuration), args.Error(1)
}

func TestGetConfigurationHandler_Handle(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	finder := new(mockConfigurationFinder)
	handler := NewGetConfigurationHandler(logger, finder)

	app := fiber.New()
	app.Get("/api/v1/configurations/:id", handler.Handle)

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/configurations/latest", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		finder.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("returns the stored configuration", func(t *testing.T) {
		finder.On("Find", mock.Anything, uint64(7)).
			Return(&domainConfiguration.Configuration{
				ID:       7,
				ParentID: 3,
				Quantity: 2,
			}, nil).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/configurations/7", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, float64(7), out["id"])
		assert.Equal(t, float64(3), out["parent_id"])
		assert.Equal(t, float64(2), out["quantity"])
	})

	t.Run("unknown configuration returns 404", func(t *testing.T) {
		finder.On("Find", mock.Anything, uint64(404)).
			Return(nil, domain.NewNotFoundError("configuration", "404")).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/configurations/404", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("storage error returns 500", func(t *testing.T) {
		finder.On("Find", mock.Anything, uint64(7)).
			Return(nil, errors.New("connection lost")).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/configurations/7", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}
