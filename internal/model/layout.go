package model

import "strconv"

// SeatLayout names a seating template.  A template fixes the number of rows
// and the number of seats per row of a vehicle.
type SeatLayout string

const (
	LayoutBusOnePlusOne   SeatLayout = "BUS_ONE_PLUS_ONE"
	LayoutBusTwoPlusOne   SeatLayout = "BUS_TWO_PLUS_ONE"
	LayoutBusTwoPlusTwo   SeatLayout = "BUS_TWO_PLUS_TWO"
	LayoutTrainOnePlusOne SeatLayout = "TRAIN_ONE_PLUS_ONE"
	LayoutTrainTwoPlusOne SeatLayout = "TRAIN_TWO_PLUS_ONE"
)

// LayoutDimensions holds the grid size of a layout template.
type LayoutDimensions struct {
	Rows int
	Cols int
}

var layoutDimensions = map[SeatLayout]LayoutDimensions{
	LayoutBusOnePlusOne:   {Rows: 10, Cols: 2},
	LayoutBusTwoPlusOne:   {Rows: 8, Cols: 3},
	LayoutBusTwoPlusTwo:   {Rows: 7, Cols: 4},
	LayoutTrainOnePlusOne: {Rows: 10, Cols: 2},
	LayoutTrainTwoPlusOne: {Rows: 6, Cols: 5},
}

// Dimensions returns the grid of the layout.  Unknown layouts use the
// two-plus-two bus grid.
func (l SeatLayout) Dimensions() LayoutDimensions {
	if d, ok := layoutDimensions[l]; ok {
		return d
	}
	return layoutDimensions[LayoutBusTwoPlusTwo]
}

// Capacity is the number of seats the layout produces.
func (l SeatLayout) Capacity() int {
	d := l.Dimensions()
	return d.Rows * d.Cols
}

// SeatLabels generates the seat numbers of the layout in row-major order:
// A1, A2, ..., B1, ...  Rows past Z continue with AA, AB.
func (l SeatLayout) SeatLabels() []string {
	d := l.Dimensions()
	labels := make([]string, 0, d.Rows*d.Cols)
	for r := 0; r < d.Rows; r++ {
		row := RowLabel(r)
		for c := 1; c <= d.Cols; c++ {
			labels = append(labels, row+strconv.Itoa(c))
		}
	}
	return labels
}

// RowLabel converts a zero-based row index into its letter label
// (0 → A, 25 → Z, 26 → AA).  Negative indices yield an empty string.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// Seats generates the seat set of a trip from the layout.  Seat ids are
// derived from the trip id and the label ("demo-trip-A1") so that seeding
// is repeatable.
func (l SeatLayout) Seats(tripID string) []Seat {
	labels := l.SeatLabels()
	seats := make([]Seat, 0, len(labels))
	for _, label := range labels {
		seats = append(seats, Seat{
			ID:         tripID + "-" + label,
			TripID:     tripID,
			SeatNumber: label,
			Status:     SeatAvailable,
		})
	}
	return seats
}
