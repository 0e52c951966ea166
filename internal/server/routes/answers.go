package routes

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// CreateAnswerHandler stores an answer. Without graphs_folder the claim's
// render folder below the asset path is recorded.
func CreateAnswerHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	type createAnswerBody struct {
		Answer       string `json:"answer" validate:"required"`
		GraphsFolder string `json:"graphs_folder"`
	}

	body := new(createAnswerBody)
	if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(body); err != nil {
		return invalidParams(c)
	}

	ctx := c.Request().Context()
	a := app(c)

	if _, err := a.Store.GetClaim(ctx, claimID); err != nil {
		return storeError(c, err)
	}

	folder := body.GraphsFolder
	if folder == "" {
		folder = filepath.Join(a.AssetPath, claimID)
	}

	answer, err := a.Store.CreateAnswer(ctx, claimID, body.Answer, folder, "")
	if err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusCreated, answer)
}

func GetAnswersHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	ctx := c.Request().Context()
	a := app(c)

	has, err := a.Store.HasAnswer(ctx, claimID)
	if err != nil {
		return internalError(c)
	}
	answers, err := a.Store.GetAnswers(ctx, claimID)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"has_answer": has,
		"answers":    answers,
	})
}
