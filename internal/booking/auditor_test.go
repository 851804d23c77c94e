package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

type fakeAuditStore struct {
	loads      []repository.SessionLoad
	orphans    []repository.OrphanTicket
	loadErr    error
	orphanErr  error
	orphanSeen int
}

func (f *fakeAuditStore) OverbookedSessions(context.Context) ([]repository.SessionLoad, error) {
	return f.loads, f.loadErr
}

func (f *fakeAuditStore) OrphanTickets(_ context.Context, limit int) ([]repository.OrphanTicket, error) {
	f.orphanSeen = limit
	return f.orphans, f.orphanErr
}

func TestAuditorRunReportsViolations(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := &fakeAuditStore{
		loads:   []repository.SessionLoad{{SessionID: 4, Capacity: 40, Taken: 41}},
		orphans: []repository.OrphanTicket{{TicketID: 9, SessionID: 5, Row: 7, Seat: 1, Rows: 5, SeatsInRow: 8}},
	}
	a := NewAuditor(store, zap.New(core), time.Minute)

	found, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, uint64(4), found[0].SessionID)
	assert.Equal(t, 41, found[0].Taken)
	assert.Equal(t, uint64(5), found[1].SessionID)
	assert.Contains(t, found[1].Detail, "ticket 9 at (7,1) outside 5x8 grid")
	assert.Equal(t, orphanLimit, store.orphanSeen)
	assert.Equal(t, 2, logs.FilterMessage("consistency violation").Len())
}

func TestAuditorRunCleanStore(t *testing.T) {
	found, err := NewAuditor(&fakeAuditStore{}, nil, time.Minute).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAuditorRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewAuditor(&fakeAuditStore{loadErr: boom}, nil, time.Minute).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAuditorStartStop(t *testing.T) {
	a := NewAuditor(&fakeAuditStore{}, nil, time.Hour)
	require.NoError(t, a.Start())
	assert.NoError(t, a.Stop())
	assert.NoError(t, NewAuditor(&fakeAuditStore{}, nil, time.Hour).Stop())
}
