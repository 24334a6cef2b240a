package handlers

import (
	"aula-booking/calendar"
	"aula-booking/errors"
	"aula-booking/model"
	"aula-booking/scheduling"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handler serves the booking HTTP API on top of the scheduling service and
// the calendar indexer.
type Handler struct {
	bookings *scheduling.Service
	calendar *calendar.Indexer
	now      func() time.Time
}

func New(bookings *scheduling.Service, indexer *calendar.Indexer) *Handler {
	return &Handler{
		bookings: bookings,
		calendar: indexer,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to pick the default month and day.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

func Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data})
}

// raiseDomainError maps service and calendar errors onto HTTP responses.
func raiseDomainError(c *fiber.Ctx, err error) error {
	var conflict *scheduling.ConflictError
	switch {
	case stderrors.As(err, &conflict):
		return errors.RaiseConflictError(c, fiber.Map{
			"reason":      err.Error(),
			"conflicting": conflict.Booking})
	case stderrors.Is(err, scheduling.ErrNotFound):
		return errors.RaiseNotFoundError(c, err.Error())
	case stderrors.Is(err, model.ErrUnknownHall),
		stderrors.Is(err, scheduling.ErrMissingRequiredField),
		stderrors.Is(err, scheduling.ErrInvalidTimeRange),
		stderrors.Is(err, scheduling.ErrInvalidDate),
		stderrors.Is(err, scheduling.ErrImportParse),
		stderrors.Is(err, calendar.ErrInvalidMonth),
		stderrors.Is(err, calendar.ErrInvalidYear):
		return errors.RaiseBadRequestError(c, err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return errors.RaiseInternalServerError(c, err.Error())
	}
}

// yearMonth reads ?year=&month=, defaulting each to the current one.
func (h *Handler) yearMonth(c *fiber.Ctx) (int, time.Month, error) {
	now := h.now()
	year, month := now.Year(), now.Month()

	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, calendar.ErrInvalidYear
		}
		year = parsed
	}
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, calendar.ErrInvalidMonth
		}
		month = time.Month(parsed)
	}
	return year, month, nil
}

func GetHalls(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, "halls", model.Halls)
}
