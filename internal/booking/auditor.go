package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// orphanLimit caps how many orphaned tickets one audit run reports.
const orphanLimit = 100

// AuditStore runs the invariant queries.  repository.AuditRepo is the
// MySQL implementation.
type AuditStore interface {
	OverbookedSessions(ctx context.Context) ([]repository.SessionLoad, error)
	OrphanTickets(ctx context.Context, limit int) ([]repository.OrphanTicket, error)
}

// Auditor periodically scans the store for broken invariants: sessions
// with more tickets than seats and tickets outside their hall's grid.
// Findings are logged as consistency errors; nothing is repaired.
type Auditor struct {
	store     AuditStore
	log       *zap.Logger
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewAuditor(store AuditStore, log *zap.Logger, interval time.Duration) *Auditor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auditor{store: store, log: log.Named("auditor"), interval: interval}
}

// Run performs one audit and returns what it found.
func (a *Auditor) Run(ctx context.Context) ([]*ConsistencyError, error) {
	var found []*ConsistencyError

	loads, err := a.store.OverbookedSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("overbooked sessions: %w", err)
	}
	for _, l := range loads {
		found = append(found, &ConsistencyError{
			SessionID: l.SessionID, Capacity: l.Capacity, Taken: l.Taken, Detail: "more tickets than seats",
		})
	}

	orphans, err := a.store.OrphanTickets(ctx, orphanLimit)
	if err != nil {
		return found, fmt.Errorf("orphan tickets: %w", err)
	}
	for _, o := range orphans {
		found = append(found, &ConsistencyError{
			SessionID: o.SessionID,
			Capacity:  o.Rows * o.SeatsInRow,
			Detail: fmt.Sprintf("ticket %d at (%d,%d) outside %dx%d grid",
				o.TicketID, o.Row, o.Seat, o.Rows, o.SeatsInRow),
		})
	}

	for _, ce := range found {
		a.log.Error("consistency violation",
			zap.Uint64("session_id", ce.SessionID),
			zap.Int("capacity", ce.Capacity),
			zap.Int("taken", ce.Taken),
			zap.String("detail", ce.Detail))
	}
	return found, nil
}

// Start schedules Run every interval.  Overlapping runs are skipped.
func (a *Auditor) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(a.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.interval)
			defer cancel()
			found, err := a.Run(ctx)
			if err != nil {
				a.log.Warn("audit failed", zap.Error(err))
				return
			}
			a.log.Debug("audit finished", zap.Int("violations", len(found)))
		}),
		gocron.WithName("consistency-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}
	s.Start()
	a.scheduler = s
	a.log.Info("consistency audit scheduled", zap.Duration("interval", a.interval))
	return nil
}

// Stop waits for a running audit to finish and stops the scheduler.
func (a *Auditor) Stop() error {
	if a.scheduler == nil {
		return nil
	}
	return a.scheduler.Shutdown()
}
