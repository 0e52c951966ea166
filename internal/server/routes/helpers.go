package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/factgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/factgraph/pkg/store"

	"github.com/labstack/echo/v4"
)

type claimParams struct {
	ClaimID string `param:"id" validate:"required"`
}

func app(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func bindClaimID(c echo.Context) (string, error) {
	params := new(claimParams)
	if err := (&echo.DefaultBinder{}).BindPathParams(c, params); err != nil {
		return "", err
	}
	if err := c.Validate(params); err != nil {
		return "", err
	}
	return params.ClaimID, nil
}

func invalidParams(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func storeError(c echo.Context, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Claim not found"})
	}
	return internalError(c)
}
