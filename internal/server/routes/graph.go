package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/factgraph/internal/queue"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreateGraphHandler queues a graph job for the claim. The body is optional.
func CreateGraphHandler(c echo.Context) error {
	claimID, err := bindClaimID(c)
	if err != nil {
		return invalidParams(c)
	}

	type createGraphBody struct {
		Summarize bool `json:"summarize"`
	}

	body := new(createGraphBody)
	if c.Request().ContentLength > 0 {
		if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
			return invalidParams(c)
		}
	}

	ctx := c.Request().Context()
	a := app(c)

	if _, err := a.Store.GetClaim(ctx, claimID); err != nil {
		return storeError(c, err)
	}
	if a.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Queue not configured"})
	}

	msg := queue.GraphJobMsg{ClaimID: claimID, Summarize: body.Summarize}
	if err := queue.PublishGraphJob(a.Queue, msg); err != nil {
		logger.Error("[Server][CreateGraph] Failed to publish graph job", "claim_id", claimID, "err", err)
		return internalError(c)
	}

	return c.JSON(http.StatusAccepted, map[string]any{"claim_id": claimID, "queued": true})
}
