package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestRenderSeatMap(t *testing.T) {
	var buf bytes.Buffer
	renderSeatMap(&buf, booking.AvailabilityDetail{
		SessionID:        7,
		Hall:             model.CinemaHall{Name: "Blue", Rows: 2, SeatsInRow: 3},
		TakenPlaces:      []model.Seat{{Row: 1, Seat: 2}, {Row: 2, Seat: 3}},
		TicketsAvailable: 4,
	})
	out := buf.String()

	assert.Contains(t, out, "Session 7, Blue")
	assert.Contains(t, strings.ToLower(out), "4 of 6 available")
	assert.Equal(t, 2, strings.Count(out, seatTaken))
	assert.Equal(t, 4, strings.Count(out, seatFree))
}

func TestRootHasCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "seatmap", "admin"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSeatmapRequiresSession(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"seatmap"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--session")
}
