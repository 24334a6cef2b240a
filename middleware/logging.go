package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one zerolog line per request. It expects requestid
// to run before it.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}

		requestID, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		event.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Msg("Request handled")

		return err
	}
}
