package echo

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zensoft-hr/basegate/webhook"
)

// maxWebhookBody caps inbound payloads; the automation platform sends
// small JSON documents.
const maxWebhookBody = 1 << 20

// WebhookLivenessHandler lets the automation platform verify the endpoint
// is reachable before saving a flow.
func (a *PortalAPI) WebhookLivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, webhook.Result{
		Success: true,
		Message: "Webhook endpoint is active",
	})
}

// WebhookHandler receives a tagged payload and routes it through the
// dispatcher. Payload problems are always 400s; 500 is reserved for our
// own faults.
func (a *PortalAPI) WebhookHandler(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		a.logger.Error(c.Request().Context(), "failed to read webhook body", err)
		return c.JSON(http.StatusInternalServerError, webhook.Result{
			Success: false,
			Message: "Failed to read request body",
		})
	}

	result, status := a.dispatcher.Dispatch(c.Request().Context(), body)
	return c.JSON(status, result)
}
