package scheduling

import (
	"aula-booking/model"
	"aula-booking/timerange"
)

// FindConflict returns the first of existing whose time range overlaps
// [start, end). existing must already be narrowed to one hall and date.
// Bookings with unparsable times cannot be compared and are skipped.
func FindConflict(existing []model.Booking, start, end int) (model.Booking, bool) {
	for _, booking := range existing {
		bookingStart, err := timerange.ToMinutes(booking.Start)
		if err != nil {
			continue
		}
		bookingEnd, err := timerange.ToMinutes(booking.End)
		if err != nil {
			continue
		}
		if timerange.Overlaps(start, end, bookingStart, bookingEnd) {
			return booking, true
		}
	}
	return model.Booking{}, false
}

func HasConflict(existing []model.Booking, start, end int) bool {
	_, found := FindConflict(existing, start, end)
	return found
}
