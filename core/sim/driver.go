package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/anrusu/fueldist/core/alloc"
	"github.com/anrusu/fueldist/core/backlog"
	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/logger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
	"github.com/anrusu/fueldist/internal/eventbus"
)

// State tracks the driver lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

// KPIs are the cost figures the RoundService reports with each round.
type KPIs struct {
	Day  int     `json:"day"`
	Cost float64 `json:"cost"`
	CO2  float64 `json:"co2"`
}

// RoundResult is the service's answer to a submitted round.
type RoundResult struct {
	Demand    []model.DemandRequest
	DeltaKPIs KPIs
	TotalKPIs KPIs
}

// RoundService is the external turn-based collaborator revealing each day's
// demand in exchange for submitted movements.
type RoundService interface {
	StartSession(ctx context.Context) (string, error)
	PlayRound(ctx context.Context, sessionID string, day int, movements []model.Movement) (RoundResult, error)
	EndSession(ctx context.Context, sessionID string) error
}

// RoundEvent is published on the bus after every completed round.
type RoundEvent struct {
	Day       int
	Movements int
	Fulfilled int
	Dropped   int
	NewDemand int
	Backlog   int
	DeltaKPIs KPIs
	TotalKPIs KPIs
}

// Report is the terminal-state summary retained after the run.
type Report struct {
	Pending   []model.DemandRequest
	Missed    []model.DemandRequest
	Fulfilled int
	TotalKPIs KPIs
}

const teardownTimeout = 5 * time.Second

// Driver sequences rounds 0 through the horizon against the RoundService and
// owns the ledger and backlog lifecycle. It is strictly sequential: the next
// day's demand depends on the previous round's response.
type Driver struct {
	net     *network.Model
	led     *ledger.Ledger
	backlog *backlog.Backlog
	policy  alloc.Policy
	svc     RoundService
	bus     eventbus.EventBus
	journal *Journal
	log     logger.Logger
	pace    time.Duration

	state     State
	fulfilled int
	totals    KPIs
}

// NewDriver wires a driver. The bus and journal are optional; pace is the
// cooperative inter-round delay respecting the service's rate limit.
func NewDriver(net *network.Model, led *ledger.Ledger, bl *backlog.Backlog, policy alloc.Policy, svc RoundService, bus eventbus.EventBus, journal *Journal, log logger.Logger, pace time.Duration) (*Driver, error) {
	if net == nil || led == nil || bl == nil || policy == nil || svc == nil {
		return nil, fmt.Errorf("sim: nil parameter provided to NewDriver")
	}
	if log == nil {
		return nil, fmt.Errorf("sim: logger is required")
	}
	return &Driver{net: net, led: led, backlog: bl, policy: policy, svc: svc, bus: bus, journal: journal, log: log, pace: pace, state: StateIdle}, nil
}

// State returns the current lifecycle state.
func (d *Driver) State() State { return d.state }

// Run plays the full horizon. The session is torn down on every exit path,
// including cancellation and round failures, so no server-side session state
// leaks.
func (d *Driver) Run(ctx context.Context) (err error) {
	if d.state != StateIdle {
		return fmt.Errorf("driver already ran")
	}
	d.state = StateRunning

	session, err := d.svc.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	d.log.Infof("session %s started", session)
	defer func() {
		// Teardown uses its own context so a cancelled run still releases
		// the session.
		tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if eerr := d.svc.EndSession(tctx, session); eerr != nil {
			d.log.Errorf("end session: %v", eerr)
			if err == nil {
				err = eerr
			}
		}
	}()

	// Round 0 bootstraps the exchange: empty movements buy the first day's
	// demand.
	boot, err := d.svc.PlayRound(ctx, session, 0, nil)
	if err != nil {
		return fmt.Errorf("bootstrap round: %w", err)
	}
	d.backlog.Append(boot.Demand...)

	for day := 1; day <= model.Horizon; day++ {
		if err := d.pauseBetweenRounds(ctx); err != nil {
			return err
		}
		pending := d.backlog.Take(day)
		res := d.policy.Allocate(d.net, d.led, pending, day)
		d.backlog.Replace(res.Unfulfilled)
		d.fulfilled += len(res.Fulfilled)

		rr, err := d.svc.PlayRound(ctx, session, day, res.Movements)
		if err != nil {
			return fmt.Errorf("round %d: %w", day, err)
		}
		d.backlog.Append(rr.Demand...)
		d.totals = rr.TotalKPIs
		d.afterRound(ctx, day, res, rr)
	}

	d.state = StateFinished
	d.log.Infof("horizon complete: %d fulfilled, %d pending, %d missed", d.fulfilled, d.backlog.Len(), len(d.backlog.Missed()))
	return nil
}

func (d *Driver) afterRound(ctx context.Context, day int, res alloc.Result, rr RoundResult) {
	d.log.Debugw("round complete", map[string]any{
		"day":        day,
		"movements":  len(res.Movements),
		"fulfilled":  len(res.Fulfilled),
		"new_demand": len(rr.Demand),
		"cost":       rr.TotalKPIs.Cost,
		"co2":        rr.TotalKPIs.CO2,
	})
	if d.bus != nil {
		d.bus.Publish(RoundEvent{
			Day:       day,
			Movements: len(res.Movements),
			Fulfilled: len(res.Fulfilled),
			Dropped:   len(res.Dropped),
			NewDemand: len(rr.Demand),
			Backlog:   d.backlog.Len(),
			DeltaKPIs: rr.DeltaKPIs,
			TotalKPIs: rr.TotalKPIs,
		})
	}
	if d.journal != nil {
		rec := Record{
			Timestamp: time.Now().UTC(),
			Day:       day,
			Movements: res.Movements,
			Fulfilled: len(res.Fulfilled),
			NewDemand: rr.Demand,
			DeltaKPIs: rr.DeltaKPIs,
			TotalKPIs: rr.TotalKPIs,
		}
		if err := d.journal.Append(ctx, rec); err != nil {
			d.log.Errorf("journal append: %v", err)
		}
	}
}

func (d *Driver) pauseBetweenRounds(ctx context.Context) error {
	if d.pace <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.pace):
		return nil
	}
}

// Report returns the terminal summary: whatever demand never got fulfilled
// plus the service's cumulative KPIs.
func (d *Driver) Report() Report {
	return Report{
		Pending:   d.backlog.Pending(),
		Missed:    d.backlog.Missed(),
		Fulfilled: d.fulfilled,
		TotalKPIs: d.totals,
	}
}
