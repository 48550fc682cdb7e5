package repository

import (
	"time"

	"github.com/iliyamo/transit-booking/internal/model"
)

// DemoTripID is the fixture trip whose seats all start AVAILABLE.
const DemoTripID = "demo-trip"

// DemoTrips is the static dataset served when no database is configured.
// cmd/seed writes the same trips to MySQL.
func DemoTrips() []model.Trip {
	at := func(day, hour, min int) time.Time {
		return time.Date(2025, time.December, day, hour, min, 0, 0, time.UTC)
	}
	return []model.Trip{
		{
			ID:            "yangon-mandalay-bus",
			Operator:      "Mandalar Minn",
			Transport:     model.TransportBus,
			Layout:        model.LayoutBusTwoPlusTwo,
			Route:         model.Route{Start: "Yangon", End: "Mandalay"},
			DepartureTime: at(1, 7, 30),
			ArrivalTime:   at(1, 14, 10),
			Price:         42000,
		},
		{
			ID:            "yangon-bagan-train",
			Operator:      "Myanmar Rail",
			Transport:     model.TransportTrain,
			Layout:        model.LayoutTrainTwoPlusOne,
			Route:         model.Route{Start: "Yangon", End: "Bagan"},
			DepartureTime: at(2, 18, 0),
			ArrivalTime:   at(3, 7, 5),
			Price:         36000,
		},
		{
			ID:            "mandalay-taunggyi-bus",
			Operator:      "JJ Express",
			Transport:     model.TransportBus,
			Layout:        model.LayoutBusTwoPlusOne,
			Route:         model.Route{Start: "Mandalay", End: "Taunggyi"},
			DepartureTime: at(3, 9, 15),
			ArrivalTime:   at(3, 14, 30),
			Price:         28000,
		},
		{
			ID:            DemoTripID,
			Operator:      "Demo Express",
			Transport:     model.TransportBus,
			Layout:        model.LayoutBusTwoPlusTwo,
			Route:         model.Route{Start: "Yangon", End: "Nay Pyi Taw"},
			DepartureTime: at(5, 10, 0),
			ArrivalTime:   at(5, 14, 30),
			Price:         25000,
		},
	}
}

// DemoSeats generates the seats of trips.  Every trip except the demo trip
// gets a deterministic sprinkle of seats that are already taken: every
// seventh seat BOOKED, every fifth of the rest UNAVAILABLE.
func DemoSeats(trips []model.Trip) []model.Seat {
	var seats []model.Seat
	for _, t := range trips {
		for i, s := range t.Layout.Seats(t.ID) {
			if t.ID != DemoTripID {
				switch {
				case i%7 == 0:
					s.Status = model.SeatBooked
				case i%5 == 0:
					s.Status = model.SeatUnavailable
				}
			}
			seats = append(seats, s)
		}
	}
	return seats
}
