package handlers

import (
	"aula-booking/errors"
	"aula-booking/model"
	"aula-booking/scheduling"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// hall resolves the :hallId path parameter, answering 404 for unknown halls.
func hall(c *fiber.Ctx) (model.Hall, bool, error) {
	found, ok := model.FindHall(c.Params("hallId"))
	if !ok {
		return model.Hall{}, false, errors.RaiseNotFoundError(c, fmt.Sprintf("%v: %q", model.ErrUnknownHall, c.Params("hallId")))
	}
	return found, true, nil
}

func (h *Handler) GetCalendar(c *fiber.Ctx) error {
	selected, ok, err := hall(c)
	if !ok {
		return err
	}

	year, month, err := h.yearMonth(c)
	if err != nil {
		return raiseDomainError(c, err)
	}

	cells, err := h.calendar.MonthGrid(selected.Id, year, month)
	if err != nil {
		return raiseDomainError(c, err)
	}

	return success(c, fiber.StatusOK, "calendar", fiber.Map{
		"hall":  selected,
		"year":  year,
		"month": int(month),
		"cells": cells})
}

func (h *Handler) GetBookedDates(c *fiber.Ctx) error {
	selected, ok, err := hall(c)
	if !ok {
		return err
	}

	year, month, err := h.yearMonth(c)
	if err != nil {
		return raiseDomainError(c, err)
	}

	dates, err := h.calendar.BookedDates(selected.Id, year, month)
	if err != nil {
		return raiseDomainError(c, err)
	}

	return success(c, fiber.StatusOK, "booked dates", dates)
}

func (h *Handler) GetDayBookings(c *fiber.Ctx) error {
	selected, ok, err := hall(c)
	if !ok {
		return err
	}

	date := c.Query("date", h.now().Format(model.DateLayout))
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return raiseDomainError(c, fmt.Errorf("%w: %q", scheduling.ErrInvalidDate, date))
	}

	return success(c, fiber.StatusOK, "bookings", fiber.Map{
		"hall":     selected,
		"date":     date,
		"bookings": h.calendar.BookingsOn(selected.Id, date)})
}
