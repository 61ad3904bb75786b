package server

import (
	"context"
	"net"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fwbench/fwbench/payload"
)

// fiberServer runs on fasthttp, so it cannot share httpServer.
type fiberServer struct {
	app *fiber.App
}

func newFiber(h *Handlers) Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get(PathJSON1K, func(c *fiber.Ctx) error {
		return c.JSON(h.JSON1K())
	})
	app.Get(PathJSON10K, func(c *fiber.Ctx) error {
		return c.JSON(h.JSON10K())
	})
	app.Get(PathDB, func(c *fiber.Ctx) error {
		users, err := h.Users(c.UserContext())
		if err != nil {
			h.logError(PathDB, err)

			return c.Status(http.StatusInternalServerError).JSON(errorBody(err))
		}

		return c.JSON(users)
	})
	app.Get(PathSlow, func(c *fiber.Ctx) error {
		resp, err := h.Slow(c.UserContext())
		if err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(errorBody(err))
		}

		return c.JSON(resp)
	})
	app.Get(PathNPlus1, func(c *fiber.Ctx) error {
		return c.JSON(h.NPlus1())
	})
	app.Post(PathItems, func(c *fiber.Ctx) error {
		var in payload.NewItem
		if err := c.BodyParser(&in); err != nil {
			return c.Status(http.StatusBadRequest).JSON(errorBody(err))
		}

		item, err := h.CreateItem(in)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(errorBody(err))
		}

		return c.Status(http.StatusCreated).JSON(item)
	})
	app.Get(PathVersions, func(c *fiber.Ctx) error {
		return c.JSON(h.Versions())
	})
	app.Get(PathHealth, func(c *fiber.Ctx) error {
		return c.JSON(h.Health())
	})

	return &fiberServer{app: app}
}

func (s *fiberServer) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *fiberServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
