package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "cinema"})
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/cinema?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(true)
	for range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS refresh_tokens").WillReturnError(errors.New("boom"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate step 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresSeatUniqueness(t *testing.T) {
	var found bool
	for _, stmt := range schema {
		if strings.Contains(stmt, "uq_ticket_session_seat (movie_session_id, row_num, seat_num)") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSchemaKeepsSoldTickets(t *testing.T) {
	all := strings.Join(schema, "\n")
	assert.Contains(t, all, "fk_ticket_session FOREIGN KEY (movie_session_id) REFERENCES movie_sessions(id) ON DELETE RESTRICT")
	assert.Contains(t, all, "fk_session_movie FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE RESTRICT")
	assert.Contains(t, all, "fk_ticket_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE")
}
