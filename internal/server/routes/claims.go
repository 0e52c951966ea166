package routes

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

func CreateClaimHandler(c echo.Context) error {
	type createClaimBody struct {
		Text    string `json:"text" validate:"required"`
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}

	body := new(createClaimBody)
	if err := c.Bind(body); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(body); err != nil {
		return invalidParams(c)
	}

	ctx := c.Request().Context()
	a := app(c)

	title, summary := body.Title, body.Summary
	if title == "" && summary == "" && a.Summarizer != nil {
		title, summary = a.Summarizer.ClaimTitleAndSummary(ctx, body.Text)
	}

	claim, err := a.Store.CreateClaim(ctx, body.Text, title, summary, "")
	if err != nil {
		return internalError(c)
	}

	return c.JSON(http.StatusCreated, claim)
}

func GetClaimsHandler(c echo.Context) error {
	claims, err := app(c).Store.ListClaims(c.Request().Context())
	if err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusOK, claims)
}

func GetClaimHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	claim, err := app(c).Store.GetClaim(c.Request().Context(), claimID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, claim)
}

func DeleteClaimHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	ctx := c.Request().Context()
	a := app(c)

	if _, err := a.Store.GetClaim(ctx, claimID); err != nil {
		return storeError(c, err)
	}
	if err := a.Store.Clear(ctx, claimID); err != nil {
		return internalError(c)
	}

	removeGraphs(c, claimID)

	return c.JSON(http.StatusOK, map[string]string{"message": "Claim deleted"})
}

// DeleteClaimsHandler wipes every claim together with all rendered graphs.
func DeleteClaimsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	a := app(c)

	claims, err := a.Store.ListClaims(ctx)
	if err != nil {
		return internalError(c)
	}
	if err := a.Store.ClearAll(ctx); err != nil {
		return internalError(c)
	}

	for _, claim := range claims {
		removeGraphs(c, claim.ID)
	}

	return c.JSON(http.StatusOK, map[string]any{"message": "All claims deleted", "deleted": len(claims)})
}

func removeGraphs(c echo.Context, claimID string) {
	a := app(c)
	if a.AssetPath != "" {
		folder := filepath.Join(a.AssetPath, claimID)
		if err := os.RemoveAll(folder); err != nil {
			logger.Warn("[Server][DeleteClaim] Failed to remove graph folder", "folder", folder, "err", err)
		}
	}
	if a.Objects != nil {
		prefix := path.Join("graphs", claimID) + "/"
		if err := a.Objects.DeleteFolder(c.Request().Context(), prefix); err != nil {
			logger.Warn("[Server][DeleteClaim] Failed to remove uploaded graphs", "prefix", prefix, "err", err)
		}
	}
}
