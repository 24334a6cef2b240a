package model

// DateLayout is the layout of Booking.Date.
const DateLayout = "2006-01-02"

// Booking is a reservation of one hall for one contiguous time range on one
// date. The JSON field names are the persisted layout and must not change.
type Booking struct {
	Id      string `json:"id"`
	HallId  string `json:"aulaId"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Purpose string `json:"purpose"`
	Contact string `json:"pic"`
	Note    string `json:"note"`
}

// SortKey orders bookings by date, then start time.
func (b Booking) SortKey() string {
	return b.Date + b.Start
}
