package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/actions"
	"github.com/i474232898/weather-compare/internal/weather"
)

// APIPrefix is the path every API route is served under.
const APIPrefix = "/api/v1"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, handler *actions.Handler) {
	v1 := app.Group(APIPrefix)

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return err
		}

		current, err := service.Current(c.UserContext(), q.lat, q.lon)
		if err != nil {
			return err
		}
		return c.JSON(current)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return err
		}

		forecast, err := service.Forecast(c.UserContext(), q.lat, q.lon)
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	})

	v1.Get("/location", func(c *fiber.Ctx) error {
		res, err := service.Search(c.UserContext(), c.Query("search"))
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	v1.Post("/location/actions", func(c *fiber.Ctx) error {
		var req actions.Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid form submission")
		}

		res := handler.Handle(c.UserContext(), req)
		switch res.Kind {
		case actions.KindRedirect:
			return c.Redirect(res.Target, fiber.StatusSeeOther)
		case actions.KindError:
			return c.Status(weather.StatusOf(res.Err)).JSON(res)
		default:
			return c.JSON(res)
		}
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(service.Store().GetAll(c.UserContext()))
	})

	// Registered before /locations/:name so "lookup" is not taken as a name.
	v1.Get("/locations/lookup", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return err
		}

		name, ok := service.Store().FindNameByCoordinates(c.UserContext(), q.lat, q.lon)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no saved location at these coordinates")
		}
		return c.JSON(fiber.Map{"name": name})
	})

	v1.Get("/locations/:name", func(c *fiber.Ctx) error {
		name, err := nameParam(c)
		if err != nil {
			return err
		}

		coords, ok := service.Store().Get(c.UserContext(), name)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}
		return c.JSON(weather.StoredLocation{Name: name, Lat: coords.Lat, Lon: coords.Lon})
	})

	v1.Delete("/locations/:name", func(c *fiber.Ctx) error {
		name, err := nameParam(c)
		if err != nil {
			return err
		}

		removed, err := service.Store().Remove(c.UserContext(), name)
		if err != nil {
			return err
		}
		if !removed {
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/compare/url", func(c *fiber.Ctx) error {
		current, compare, err := actions.ParseCompareQuery(queryGetter(c))
		if err != nil {
			return err
		}

		link, err := actions.BuildCompareURL(APIPrefix, current, compare)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": link})
	})

	v1.Get("/compare", func(c *fiber.Ctx) error {
		current, compare, err := actions.ParseCompareQuery(queryGetter(c))
		if err != nil {
			return err
		}

		res, err := service.Compare(c.UserContext(), current, compare)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})
}

// NewErrorHandler renders every error as {"error": true, "message": ...}.
// Domain errors take their status from weather.StatusOf.
func NewErrorHandler(logger *zap.SugaredLogger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		var we *weather.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.As(err, &we):
			code = weather.StatusOf(err)
			message = weather.Message(err)
		}

		if code >= fiber.StatusInternalServerError {
			logger.Errorw("request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
		})
	}
}

// coordinateQuery holds the raw lat/lon query parameters.
type coordinateQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`

	lat, lon float64
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	q := coordinateQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}

	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters must be valid coordinates")
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}
	return q, nil
}

func nameParam(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || strings.TrimSpace(name) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid location name")
	}
	return name, nil
}

func queryGetter(c *fiber.Ctx) func(string) string {
	return func(key string) string {
		return c.Query(key)
	}
}
