package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const (
	seatFree  = "·"
	seatTaken = "X"
)

func newSeatmapCmd() *cobra.Command {
	var sessionID uint64
	cmd := &cobra.Command{
		Use:   "seatmap",
		Short: "Print the seat grid of a movie session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessionID == 0 {
				return errors.New("--session is required")
			}
			dbCfg, err := config.LoadDatabaseConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tracker := booking.NewTracker(repository.NewBookingStore(db), logger.Must(config.LogSettings()))
			detail, err := tracker.GetAvailabilityDetail(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			renderSeatMap(cmd.OutOrStdout(), detail)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&sessionID, "session", 0, "movie session id")
	return cmd
}

// renderSeatMap draws one table row per hall row; taken seats are X.
func renderSeatMap(w io.Writer, d booking.AvailabilityDetail) {
	taken := booking.NewSeatSet(d.TakenPlaces)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Session %d, %s", d.SessionID, d.Hall.Name))

	header := table.Row{"Row"}
	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}}
	for s := 1; s <= d.Hall.SeatsInRow; s++ {
		header = append(header, s)
		configs = append(configs, table.ColumnConfig{Number: s + 1, Align: text.AlignCenter})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for r := 1; r <= d.Hall.Rows; r++ {
		row := table.Row{r}
		for s := 1; s <= d.Hall.SeatsInRow; s++ {
			mark := seatFree
			if taken.Contains(model.Seat{Row: r, Seat: s}) {
				mark = seatTaken
			}
			row = append(row, mark)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d available", d.TicketsAvailable, d.Hall.Capacity())})
	t.Render()
}
