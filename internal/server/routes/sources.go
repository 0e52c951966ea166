package routes

import (
	"cmp"
	"io"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/export"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

type sourceBody struct {
	Title    string   `json:"title" validate:"required"`
	URL      string   `json:"url"`
	Site     string   `json:"site"`
	Body     string   `json:"body"`
	Topic    string   `json:"topic"`
	Entities []string `json:"entities"`
}

// AddSourcesHandler expects a JSON array of sources.
func AddSourcesHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	var body []sourceBody
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return invalidParams(c)
	}
	if len(body) == 0 {
		return invalidParams(c)
	}

	inputs := make([]common.SourceInput, 0, len(body))
	for i := range body {
		if err := c.Validate(&body[i]); err != nil {
			return invalidParams(c)
		}
		inputs = append(inputs, common.SourceInput{
			Title:    body[i].Title,
			URL:      body[i].URL,
			Site:     body[i].Site,
			Body:     body[i].Body,
			Topic:    body[i].Topic,
			Entities: body[i].Entities,
		})
	}

	ctx := c.Request().Context()
	a := app(c)

	if _, err := a.Store.GetClaim(ctx, claimID); err != nil {
		return storeError(c, err)
	}
	if err := a.Store.AddSources(ctx, claimID, inputs); err != nil {
		return internalError(c)
	}

	return c.JSON(http.StatusCreated, map[string]any{"claim_id": claimID, "added": len(inputs)})
}

func GetClaimSourcesHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	sources, err := app(c).Store.GetSources(c.Request().Context(), claimID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusOK, sources)
}

func GetSourcesHandler(c echo.Context) error {
	sources, err := app(c).Store.LoadAllSources(c.Request().Context())
	if err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusOK, sources)
}

// ExportSourcesHandler streams every source as CSV.
func ExportSourcesHandler(c echo.Context) error {
	return exportCSV(c, "sources.csv", func(w io.Writer) (int, error) {
		return export.Sources(c.Request().Context(), app(c).Store, w)
	})
}

func ExportClaimsHandler(c echo.Context) error {
	return exportCSV(c, "claims.csv", func(w io.Writer) (int, error) {
		return export.Claims(c.Request().Context(), app(c).Store, w)
	})
}

func exportCSV(c echo.Context, filename string, write func(w io.Writer) (int, error)) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	n, err := write(res)
	if err == nil {
		return nil
	}
	if !res.Committed {
		res.Header().Del(echo.HeaderContentType)
		res.Header().Del(echo.HeaderContentDisposition)
		return internalError(c)
	}
	logger.Error("[Server][Export] Export aborted", "file", filename, "rows", n, "err", err)
	return nil
}

// ScrapeSourcesHandler fetches every URL and stores the pages as sources of
// the claim. Without URLs the web is searched for query, or for the claim's
// title and text, and the hits are scraped. Pages that cannot be fetched are
// reported and skipped.
func ScrapeSourcesHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	type scrapeBody struct {
		URLs  []string `json:"urls" validate:"omitempty,dive,url"`
		Query string   `json:"query"`
		Limit int      `json:"limit" validate:"omitempty,min=1,max=20"`
		Topic string   `json:"topic"`
	}

	body := new(scrapeBody)
	if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(body); err != nil {
		return invalidParams(c)
	}

	ctx := c.Request().Context()
	a := app(c)

	if a.Scraper == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Scraping not configured"})
	}
	claim, err := a.Store.GetClaim(ctx, claimID)
	if err != nil {
		return storeError(c, err)
	}

	var (
		inputs []common.SourceInput
		failed = []string{}
	)
	if len(body.URLs) > 0 {
		for _, u := range body.URLs {
			src, err := a.Scraper.Extract(ctx, u)
			if err != nil {
				failed = append(failed, u)
				continue
			}
			inputs = append(inputs, src)
		}
	} else {
		query := cmp.Or(strings.TrimSpace(body.Query), strings.TrimSpace(claim.Title), strings.TrimSpace(claim.Text))
		if query == "" {
			return invalidParams(c)
		}
		inputs, failed, err = a.Scraper.SearchAndExtract(ctx, query, body.Limit)
		if err != nil {
			logger.Error("[Server][ScrapeSources] Search failed", "claim", claimID, "err", err)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Search failed"})
		}
	}

	for i := range inputs {
		inputs[i].Topic = body.Topic
		if a.Entities != nil {
			inputs[i] = a.Entities.Enrich(ctx, inputs[i])
		}
	}

	if len(inputs) > 0 {
		if err := a.Store.AddSources(ctx, claimID, inputs); err != nil {
			return internalError(c)
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"claim_id": claimID,
		"added":    len(inputs),
		"failed":   failed,
	})
}
