package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"meteogram-service/internal/store"
	"meteogram-service/internal/widget"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *widget.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/sources", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sources": service.Sources()})
	})

	v1.Get("/meteogram", func(c *fiber.Ctx) error {
		instance, err := lookupInstance(c, service)
		if err != nil {
			return err
		}

		svg, status, message := instance.Current()
		c.Set(fiber.HeaderContentType, "image/svg+xml; charset=utf-8")
		c.Set("X-Meteogram-Status", string(status))
		if message != "" {
			c.Set("X-Meteogram-Message", message)
		}
		return c.SendString(svg)
	})

	v1.Get("/meteogram/status", func(c *fiber.Ctx) error {
		instance, err := lookupInstance(c, service)
		if err != nil {
			return err
		}
		return c.JSON(instance.Snapshot())
	})

	v1.Get("/meteogram/history", func(c *fiber.Ctx) error {
		q, err := parseSourceQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		renders, err := service.History(q.Src)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, widget.ErrUnknownSource) {
				return fiber.NewError(fiber.StatusNotFound, "no render history for requested source")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch render history")
		}

		return c.JSON(fiber.Map{
			"source":  q.Src,
			"renders": renders,
		})
	})

	v1.Post("/meteogram/refresh", func(c *fiber.Ctx) error {
		instance, err := lookupInstance(c, service)
		if err != nil {
			return err
		}

		if err := instance.Refresh(c.Context()); err != nil {
			if errors.Is(err, widget.ErrInvalidSource) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "refresh failed")
		}
		return c.JSON(instance.Snapshot())
	})
}

// sourceQuery holds query parameters identifying a widget instance.
type sourceQuery struct {
	Src string `validate:"required"`
}

func parseSourceQuery(c *fiber.Ctx) (sourceQuery, error) {
	var q sourceQuery

	q.Src = c.Query("src")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

func lookupInstance(c *fiber.Ctx, service *widget.Service) (*widget.Instance, error) {
	q, err := parseSourceQuery(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	instance, err := service.Instance(q.Src)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "unknown source")
	}
	return instance, nil
}
