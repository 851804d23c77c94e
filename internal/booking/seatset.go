package booking

import (
	"iter"
	"slices"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatSet is an immutable snapshot of taken coordinates for a session.
type SeatSet struct {
	seats []model.Seat // sorted by row, then seat; no duplicates
	index map[model.Seat]struct{}
}

// NewSeatSet builds a set from seats in any order.  Duplicates collapse.
func NewSeatSet(seats []model.Seat) SeatSet {
	index := make(map[model.Seat]struct{}, len(seats))
	uniq := make([]model.Seat, 0, len(seats))
	for _, s := range seats {
		if _, ok := index[s]; ok {
			continue
		}
		index[s] = struct{}{}
		uniq = append(uniq, s)
	}
	slices.SortFunc(uniq, func(a, b model.Seat) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return SeatSet{seats: uniq, index: index}
}

// Len is the number of distinct taken seats.
func (s SeatSet) Len() int { return len(s.seats) }

// Contains reports whether seat is taken.
func (s SeatSet) Contains(seat model.Seat) bool {
	_, ok := s.index[seat]
	return ok
}

// All yields the taken seats ordered by row then seat.  The sequence may
// be ranged over any number of times.
func (s SeatSet) All() iter.Seq[model.Seat] {
	return func(yield func(model.Seat) bool) {
		for _, seat := range s.seats {
			if !yield(seat) {
				return
			}
		}
	}
}

// Slice returns a copy of the ordered seats, never nil.
func (s SeatSet) Slice() []model.Seat {
	out := make([]model.Seat, len(s.seats))
	copy(out, s.seats)
	return out
}
