package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

var hall5x8 = model.CinemaHall{ID: 1, Name: "Red", Rows: 5, SeatsInRow: 8}

func newTestValidator(taken ...model.Seat) *Validator {
	return NewValidator(map[uint64]SessionState{
		7: {Hall: hall5x8, Taken: NewSeatSet(taken)},
	})
}

func TestValidateBounds(t *testing.T) {
	v := newTestValidator()
	cases := []struct {
		name      string
		row, seat int
		field     string
		max       int
	}{
		{"row zero", 0, 1, "row", 5},
		{"row negative", -1, 1, "row", 5},
		{"row above", 6, 1, "row", 5},
		{"seat zero", 1, 0, "seat", 8},
		{"seat above", 5, 9, "seat", 8},
		{"both out reports row", 9, 9, "row", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(TicketRequest{SessionID: 7, Row: tc.row, Seat: tc.seat})
			var ob *OutOfBoundsError
			require.ErrorAs(t, err, &ob)
			assert.Equal(t, tc.field, ob.Field)
			assert.Equal(t, 1, ob.Min)
			assert.Equal(t, tc.max, ob.Max)
			assert.Equal(t, 5, ob.HallRows)
			assert.Equal(t, 8, ob.HallSeatsInRow)
		})
	}
}

func TestValidateCorners(t *testing.T) {
	v := newTestValidator()
	for _, s := range []model.Seat{{Row: 1, Seat: 1}, {Row: 1, Seat: 8}, {Row: 5, Seat: 1}, {Row: 5, Seat: 8}} {
		assert.NoError(t, v.Validate(TicketRequest{SessionID: 7, Row: s.Row, Seat: s.Seat}))
	}
}

func TestValidateRowOutOfRangeMessage(t *testing.T) {
	err := newTestValidator().Validate(TicketRequest{SessionID: 7, Row: 6, Seat: 1})
	assert.EqualError(t, err, "row must be between 1 and 5, got 6")
}

func TestValidateTakenSeat(t *testing.T) {
	v := newTestValidator(model.Seat{Row: 1, Seat: 2})
	err := v.Validate(TicketRequest{SessionID: 7, Row: 1, Seat: 2})
	var st *SeatTakenError
	require.ErrorAs(t, err, &st)
	assert.False(t, st.InBatch)
}

func TestValidateUnknownSession(t *testing.T) {
	err := newTestValidator().Validate(TicketRequest{SessionID: 99, Row: 1, Seat: 1})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateBatchRejectsSecondOccurrence(t *testing.T) {
	err := newTestValidator().ValidateBatch([]TicketRequest{
		{SessionID: 7, Row: 1, Seat: 3},
		{SessionID: 7, Row: 1, Seat: 3},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 1)
	assert.Equal(t, 1, verr.Tickets[0].Index)

	var st *SeatTakenError
	require.ErrorAs(t, err, &st)
	assert.True(t, st.InBatch)
	assert.True(t, verr.OnlySeatTaken())
}

func TestValidateBatchCollectsAllFailures(t *testing.T) {
	err := newTestValidator(model.Seat{Row: 2, Seat: 2}).ValidateBatch([]TicketRequest{
		{SessionID: 7, Row: 1, Seat: 1},
		{SessionID: 7, Row: 6, Seat: 1},
		{SessionID: 7, Row: 2, Seat: 2},
		{SessionID: 42, Row: 1, Seat: 1},
		{SessionID: 7, Row: 3, Seat: 0},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Tickets, 4)

	got := map[int]string{}
	for _, te := range verr.Tickets {
		got[te.Index] = te.Field
	}
	assert.Equal(t, map[int]string{1: "row", 2: "seat", 3: "movie_session", 4: "seat"}, got)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.False(t, verr.OnlySeatTaken())
}

func TestValidateBatchOutOfBoundsDoesNotClaim(t *testing.T) {
	err := newTestValidator().ValidateBatch([]TicketRequest{
		{SessionID: 7, Row: 6, Seat: 1},
		{SessionID: 7, Row: 6, Seat: 1},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, te := range verr.Tickets {
		var ob *OutOfBoundsError
		assert.ErrorAs(t, te, &ob)
	}
}

func TestValidateBatchSameSeatDifferentSessions(t *testing.T) {
	v := NewValidator(map[uint64]SessionState{
		7: {Hall: hall5x8},
		8: {Hall: hall5x8},
	})
	assert.NoError(t, v.ValidateBatch([]TicketRequest{
		{SessionID: 7, Row: 1, Seat: 1},
		{SessionID: 8, Row: 1, Seat: 1},
	}))
}

func TestValidateBatchDoesNotMutateState(t *testing.T) {
	v := newTestValidator()
	reqs := []TicketRequest{{SessionID: 7, Row: 4, Seat: 4}}
	require.NoError(t, v.ValidateBatch(reqs))
	require.NoError(t, v.ValidateBatch(reqs))
	assert.NoError(t, v.Validate(reqs[0]))
}
