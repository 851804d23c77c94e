package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Availability is the taken-seat map and remaining count of a session.
type Availability struct {
	TakenSeats     []model.Seat `json:"taken_seats"`
	AvailableCount int          `json:"available_count"`
}

// AvailabilitySummary is the list-view shape: counts only.
type AvailabilitySummary struct {
	SessionID        uint64 `json:"id"`
	Capacity         int    `json:"cinema_hall_capacity"`
	TicketsAvailable int    `json:"tickets_available"`
}

// AvailabilityDetail is the detail-view shape with the full seat map.
type AvailabilityDetail struct {
	SessionID        uint64           `json:"id"`
	Hall             model.CinemaHall `json:"cinema_hall"`
	TakenPlaces      []model.Seat     `json:"taken_places"`
	TicketsAvailable int              `json:"tickets_available"`
}

// Tracker answers availability questions from committed tickets.  It
// keeps no state between calls: every answer is read from the store.
type Tracker struct {
	store SessionReader
	log   *zap.Logger
}

func NewTracker(store SessionReader, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{store: store, log: log.Named("tracker")}
}

// TakenSeats returns the seats held by committed tickets of a session.
func (t *Tracker) TakenSeats(ctx context.Context, sessionID uint64) (SeatSet, error) {
	seats, err := t.store.TakenSeats(ctx, sessionID)
	if err != nil {
		return SeatSet{}, err
	}
	return NewSeatSet(seats), nil
}

// AvailableCount is hall capacity minus committed tickets.
func (t *Tracker) AvailableCount(ctx context.Context, sessionID uint64) (int, error) {
	hall, err := t.store.SessionHall(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n, err := t.store.CountTickets(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return t.Remaining(sessionID, hall.Capacity(), n)
}

// Remaining applies the availability contract to counts computed
// elsewhere (e.g. an SQL aggregate).  A negative result is reported and
// logged as a *ConsistencyError.
func (t *Tracker) Remaining(sessionID uint64, capacity, taken int) (int, error) {
	left := capacity - taken
	if left < 0 {
		err := &ConsistencyError{SessionID: sessionID, Capacity: capacity, Taken: taken, Detail: "more tickets than seats"}
		t.log.Error("negative availability",
			zap.Uint64("session_id", sessionID),
			zap.Int("capacity", capacity),
			zap.Int("taken", taken))
		return 0, err
	}
	return left, nil
}

// GetAvailability reads the hall and the taken seats once and derives the
// count from the same snapshot, so the count and the map always agree.
func (t *Tracker) GetAvailability(ctx context.Context, sessionID uint64) (Availability, error) {
	hall, taken, err := t.snapshot(ctx, sessionID)
	if err != nil {
		return Availability{}, err
	}
	left, err := t.Remaining(sessionID, hall.Capacity(), taken.Len())
	if err != nil {
		return Availability{}, err
	}
	return Availability{TakenSeats: taken.Slice(), AvailableCount: left}, nil
}

// GetAvailabilitySummary returns capacity and remaining count only.
func (t *Tracker) GetAvailabilitySummary(ctx context.Context, sessionID uint64) (AvailabilitySummary, error) {
	hall, err := t.store.SessionHall(ctx, sessionID)
	if err != nil {
		return AvailabilitySummary{}, err
	}
	n, err := t.store.CountTickets(ctx, sessionID)
	if err != nil {
		return AvailabilitySummary{}, err
	}
	left, err := t.Remaining(sessionID, hall.Capacity(), n)
	if err != nil {
		return AvailabilitySummary{}, err
	}
	return AvailabilitySummary{SessionID: sessionID, Capacity: hall.Capacity(), TicketsAvailable: left}, nil
}

// GetAvailabilityDetail returns the hall, the taken seat map and the
// remaining count.
func (t *Tracker) GetAvailabilityDetail(ctx context.Context, sessionID uint64) (AvailabilityDetail, error) {
	hall, taken, err := t.snapshot(ctx, sessionID)
	if err != nil {
		return AvailabilityDetail{}, err
	}
	left, err := t.Remaining(sessionID, hall.Capacity(), taken.Len())
	if err != nil {
		return AvailabilityDetail{}, err
	}
	return AvailabilityDetail{SessionID: sessionID, Hall: hall, TakenPlaces: taken.Slice(), TicketsAvailable: left}, nil
}

func (t *Tracker) snapshot(ctx context.Context, sessionID uint64) (model.CinemaHall, SeatSet, error) {
	hall, err := t.store.SessionHall(ctx, sessionID)
	if err != nil {
		return hall, SeatSet{}, err
	}
	seats, err := t.store.TakenSeats(ctx, sessionID)
	if err != nil {
		return hall, SeatSet{}, err
	}
	set := NewSeatSet(seats)
	if set.Len() != len(seats) {
		err := &ConsistencyError{SessionID: sessionID, Capacity: hall.Capacity(), Taken: len(seats), Detail: "seat sold more than once"}
		t.log.Error("duplicate tickets for one seat", zap.Uint64("session_id", sessionID), zap.Int("tickets", len(seats)))
		return hall, SeatSet{}, err
	}
	return hall, set, nil
}
