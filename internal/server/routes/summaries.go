package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func SummarizeHandler(c echo.Context) error {
	type summarizeBody struct {
		Texts      []string `json:"texts" validate:"required,min=1"`
		CharCutoff int      `json:"char_cutoff" validate:"min=0"`
	}

	body := new(summarizeBody)
	if err := c.Bind(body); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(body); err != nil {
		return invalidParams(c)
	}

	s := app(c).Summarizer
	if s == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Summarization not configured"})
	}

	summaries := s.SummarizeBatch(c.Request().Context(), body.Texts, body.CharCutoff)
	return c.JSON(http.StatusOK, map[string]any{"summaries": summaries})
}

// RephraseHandler turns a claim into a search query. The query is null when
// the model gave no usable answer.
func RephraseHandler(c echo.Context) error {
	type rephraseBody struct {
		Text string `json:"text" validate:"required"`
	}

	body := new(rephraseBody)
	if err := c.Bind(body); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(body); err != nil {
		return invalidParams(c)
	}

	s := app(c).Summarizer
	if s == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Summarization not configured"})
	}

	return c.JSON(http.StatusOK, map[string]any{"query": s.RephraseAsQuery(c.Request().Context(), body.Text)})
}
