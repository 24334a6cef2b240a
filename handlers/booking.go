package handlers

import (
	"aula-booking/errors"
	"aula-booking/scheduling"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	booking, err := h.bookings.Get(c.Params("bookingId"))
	if err != nil {
		return raiseDomainError(c, err)
	}
	return success(c, fiber.StatusOK, "booking", booking)
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var input scheduling.CreateBookingInput
	if err := c.BodyParser(&input); err != nil {
		return errors.RaiseBadRequestError(c, "request body must be a booking object")
	}

	booking, err := h.bookings.Create(c.UserContext(), input)
	if err != nil {
		return raiseDomainError(c, err)
	}

	return success(c, fiber.StatusCreated, "booking saved", booking)
}

// CancelBooking only acts when the client has confirmed with ?confirm=true.
func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if !confirmed {
		return errors.RaiseBadRequestError(c, "cancellation must be confirmed with confirm=true")
	}

	if err := h.bookings.Cancel(c.UserContext(), c.Params("bookingId")); err != nil {
		return raiseDomainError(c, err)
	}

	return success(c, fiber.StatusOK, "booking cancelled", nil)
}

func (h *Handler) ExportBookings(c *fiber.Ctx) error {
	data, err := h.bookings.Export()
	if err != nil {
		return raiseDomainError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="aula-bookings.json"`)
	return c.Send(data)
}

func (h *Handler) ImportBookings(c *fiber.Ctx) error {
	imported, err := h.bookings.Import(c.UserContext(), c.Body())
	if err != nil {
		return raiseDomainError(c, err)
	}

	return success(c, fiber.StatusOK, "bookings imported", fiber.Map{"imported": imported})
}
