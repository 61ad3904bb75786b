package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fwbench/fwbench/payload"
)

func newGin(h *Handlers) Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.GET(PathJSON1K, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.JSON1K())
	})
	r.GET(PathJSON10K, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.JSON10K())
	})
	r.GET(PathDB, func(c *gin.Context) {
		users, err := h.Users(c.Request.Context())
		if err != nil {
			h.logError(PathDB, err)
			c.JSON(http.StatusInternalServerError, errorBody(err))

			return
		}

		c.JSON(http.StatusOK, users)
	})
	r.GET(PathSlow, func(c *gin.Context) {
		resp, err := h.Slow(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, errorBody(err))

			return
		}

		c.JSON(http.StatusOK, resp)
	})
	r.GET(PathNPlus1, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.NPlus1())
	})
	r.POST(PathItems, func(c *gin.Context) {
		var in payload.NewItem
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err))

			return
		}

		item, err := h.CreateItem(in)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err))

			return
		}

		c.JSON(http.StatusCreated, item)
	})
	r.GET(PathVersions, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.Versions())
	})
	r.GET(PathHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, h.Health())
	})

	return newHTTPServer(r)
}
