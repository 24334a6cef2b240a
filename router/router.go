package router

import (
	"aula-booking/handlers"
	"aula-booking/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/", recover.New(), requestid.New(), middleware.RequestLogger())
	api.Get("/health", handlers.Health)

	//Halls
	halls := api.Group("/halls")
	halls.Get("/", handlers.GetHalls)
	halls.Get("/:hallId/calendar", h.GetCalendar)
	halls.Get("/:hallId/booked-dates", h.GetBookedDates)
	halls.Get("/:hallId/bookings", h.GetDayBookings)

	//Bookings
	booking := api.Group("/bookings")
	booking.Get("/export", h.ExportBookings)
	booking.Post("/import", h.ImportBookings)
	booking.Get("/:bookingId", h.GetBooking)
	booking.Post("/", h.CreateBooking)
	booking.Delete("/:bookingId", h.CancelBooking)
}
