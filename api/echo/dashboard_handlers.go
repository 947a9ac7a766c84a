package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zensoft-hr/basegate/domain"
	"github.com/zensoft-hr/basegate/errors"
	"github.com/zensoft-hr/basegate/internal/basehr"
)

// TimeoffListHandler serves the dashboard's timeoff table data. The
// middleware guarantees a fresh credential on the request context.
func (a *PortalAPI) TimeoffListHandler(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := domain.CredentialFromContext(ctx)
	if !ok {
		// Route misconfiguration: the handler ran without the middleware.
		a.logger.Error(ctx, "timeoff handler invoked without credential", nil)
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("credential missing"))
	}

	query := basehr.Query{
		Status: c.QueryParam("status"),
		SortBy: c.QueryParam("sort"),
		Order:  c.QueryParam("order"),
	}

	records, err := a.hr.ListTimeoff(ctx, cred.AccessToken, query)
	if err != nil {
		a.logger.Error(ctx, "timeoff list fetch failed", err)
		return c.JSON(http.StatusBadGateway, errors.NewUpstreamFailure("failed to fetch timeoff records"))
	}

	return c.JSON(http.StatusOK, map[string]any{"data": records})
}

// MeHandler returns the signed-in user's profile for the header widget.
func (a *PortalAPI) MeHandler(c echo.Context) error {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("identity missing"))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"email":   id.Email,
		"name":    id.Name,
		"picture": id.Picture,
	})
}
