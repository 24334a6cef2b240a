package model

import "errors"

var ErrUnknownHall = errors.New("unknown hall")

type Hall struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Halls is the closed set of bookable halls, in display order.
var Halls = []Hall{
	{Id: "sibayak", Name: "Sibayak"},
	{Id: "sinabung", Name: "Sinabung"},
	{Id: "sibuatan", Name: "Sibuatan"},
	{Id: "sibolangit", Name: "Sibolangit"},
}

func FindHall(hallId string) (Hall, bool) {
	for _, hall := range Halls {
		if hall.Id == hallId {
			return hall, true
		}
	}
	return Hall{}, false
}
