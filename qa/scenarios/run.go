package scenarios

import (
	"context"
	"fmt"

	"github.com/anrusu/fueldist/core/alloc"
	"github.com/anrusu/fueldist/core/backlog"
	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
	"github.com/anrusu/fueldist/core/sim"
	"github.com/anrusu/fueldist/infra/logger"
)

// Outcome summarises a scenario run.
type Outcome struct {
	Fulfilled int
	Pending   int
	Missed    int
	Movements int
	Report    sim.Report
}

// scriptedService replays the scenario's demand schedule in process.
type scriptedService struct {
	schedule  map[int][]model.DemandRequest
	movements int
	open      int
}

func (s *scriptedService) StartSession(ctx context.Context) (string, error) {
	s.open++
	return "scenario-session", nil
}

func (s *scriptedService) PlayRound(ctx context.Context, sessionID string, day int, movements []model.Movement) (sim.RoundResult, error) {
	s.movements += len(movements)
	return sim.RoundResult{Demand: s.schedule[day]}, nil
}

func (s *scriptedService) EndSession(ctx context.Context, sessionID string) error {
	s.open--
	return nil
}

// Run plays the scenario through the full driver stack with an in-process
// service and no pacing delay.
func Run(ctx context.Context, sc *Scenario, log logger.Logger) (Outcome, error) {
	net, err := network.New(sc.Nodes(), sc.Edges())
	if err != nil {
		return Outcome{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	led := ledger.New(sc.Nodes())
	expiry, err := backlog.ParseExpiryPolicy(sc.Expiry)
	if err != nil {
		return Outcome{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	bl := backlog.New(expiry)

	var policy alloc.Policy
	switch sc.Policy {
	case "lp":
		policy = alloc.NewLP(log)
	case "", "greedy":
		policy = alloc.NewGreedy(log)
	default:
		return Outcome{}, fmt.Errorf("scenario %s: unknown policy %q", sc.Name, sc.Policy)
	}

	svc := &scriptedService{schedule: sc.Schedule()}
	driver, err := sim.NewDriver(net, led, bl, policy, svc, nil, nil, log, 0)
	if err != nil {
		return Outcome{}, err
	}
	if err := driver.Run(ctx); err != nil {
		return Outcome{}, err
	}
	if svc.open != 0 {
		return Outcome{}, fmt.Errorf("scenario %s: %d sessions left open", sc.Name, svc.open)
	}
	rep := driver.Report()
	return Outcome{
		Fulfilled: rep.Fulfilled,
		Pending:   len(rep.Pending),
		Missed:    len(rep.Missed),
		Movements: svc.movements,
		Report:    rep,
	}, nil
}
