package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fwbench/fwbench/payload"
)

func newEcho(h *Handlers) Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET(PathJSON1K, func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.JSON1K())
	})
	e.GET(PathJSON10K, func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.JSON10K())
	})
	e.GET(PathDB, func(c echo.Context) error {
		users, err := h.Users(c.Request().Context())
		if err != nil {
			h.logError(PathDB, err)

			return c.JSON(http.StatusInternalServerError, errorBody(err))
		}

		return c.JSON(http.StatusOK, users)
	})
	e.GET(PathSlow, func(c echo.Context) error {
		resp, err := h.Slow(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorBody(err))
		}

		return c.JSON(http.StatusOK, resp)
	})
	e.GET(PathNPlus1, func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.NPlus1())
	})
	e.POST(PathItems, func(c echo.Context) error {
		var in payload.NewItem
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody(err))
		}

		item, err := h.CreateItem(in)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody(err))
		}

		return c.JSON(http.StatusCreated, item)
	})
	e.GET(PathVersions, func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.Versions())
	})
	e.GET(PathHealth, func(c echo.Context) error {
		return c.JSON(http.StatusOK, h.Health())
	})

	return newHTTPServer(e)
}
