package calendar

import (
	"aula-booking/model"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	GridWeeks    = 6
	GridCells    = GridWeeks * 7
	PreviewLimit = 3
)

var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year must be between 1 and 9999")
	ErrUnknownHall  = model.ErrUnknownHall
)

// BookingSource is the read side of the booking repository.
type BookingSource interface {
	ByHall(hallId string) []model.Booking
	ByHallAndDate(hallId, date string) []model.Booking
}

// Cell is one day of a month grid. Bookings are ordered by start time;
// Preview holds the first PreviewLimit of them and Overflow the rest's count.
type Cell struct {
	Date           string          `json:"date"`
	Day            int             `json:"day"`
	InCurrentMonth bool            `json:"inCurrentMonth"`
	Count          int             `json:"count"`
	Bookings       []model.Booking `json:"bookings"`
	Preview        []model.Booking `json:"preview"`
	Overflow       int             `json:"overflow"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Indexer derives calendar views from the current bookings on every call.
type Indexer struct {
	source BookingSource
}

func NewIndexer(source BookingSource) *Indexer {
	return &Indexer{source: source}
}

// MonthGrid returns the 6x7 grid for the given month, starting on the
// Sunday on or before the 1st. Days of neighbouring months are included with
// InCurrentMonth set to false and still carry their bookings.
func (ix *Indexer) MonthGrid(hallId string, year int, month time.Month) ([]Cell, error) {
	first, err := firstOfMonth(hallId, year, month)
	if err != nil {
		return nil, err
	}

	byDate := ix.groupByDate(hallId)
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]Cell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		day := gridStart.AddDate(0, 0, i)
		date := day.Format(model.DateLayout)
		bookings := byDate[date]
		if bookings == nil {
			bookings = []model.Booking{}
		}

		preview := bookings
		if len(preview) > PreviewLimit {
			preview = preview[:PreviewLimit]
		}

		cells = append(cells, Cell{
			Date:           date,
			Day:            day.Day(),
			InCurrentMonth: day.Month() == month,
			Count:          len(bookings),
			Bookings:       bookings,
			Preview:        preview,
			Overflow:       len(bookings) - len(preview),
		})
	}

	return cells, nil
}

// BookingsOn lists the bookings of a hall on one date, by start time.
func (ix *Indexer) BookingsOn(hallId, date string) []model.Booking {
	return ix.source.ByHallAndDate(hallId, date)
}

// BookedDates lists the dates of the month that have at least one booking.
func (ix *Indexer) BookedDates(hallId string, year int, month time.Month) ([]DateCount, error) {
	first, err := firstOfMonth(hallId, year, month)
	if err != nil {
		return nil, err
	}
	prefix := first.Format("2006-01-")

	counts := map[string]int{}
	for _, booking := range ix.source.ByHall(hallId) {
		if len(booking.Date) == len(model.DateLayout) && booking.Date[:len(prefix)] == prefix {
			counts[booking.Date]++
		}
	}

	result := make([]DateCount, 0, len(counts))
	for date, count := range counts {
		result = append(result, DateCount{Date: date, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

func (ix *Indexer) groupByDate(hallId string) map[string][]model.Booking {
	byDate := map[string][]model.Booking{}
	for _, booking := range ix.source.ByHall(hallId) {
		byDate[booking.Date] = append(byDate[booking.Date], booking)
	}
	for _, bookings := range byDate {
		sort.SliceStable(bookings, func(i, j int) bool {
			return bookings[i].Start < bookings[j].Start
		})
	}
	return byDate
}

func firstOfMonth(hallId string, year int, month time.Month) (time.Time, error) {
	if _, ok := model.FindHall(hallId); !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownHall, hallId)
	}
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}
