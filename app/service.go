package app

import (
	"context"
	"fmt"
	"time"

	"github.com/anrusu/fueldist/config"
	"github.com/anrusu/fueldist/core/alloc"
	"github.com/anrusu/fueldist/core/backlog"
	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/network"
	"github.com/anrusu/fueldist/core/sim"
	"github.com/anrusu/fueldist/infra/csvdata"
	"github.com/anrusu/fueldist/infra/logger"
	"github.com/anrusu/fueldist/infra/metrics"
	"github.com/anrusu/fueldist/infra/roundapi"
	"github.com/anrusu/fueldist/internal/eventbus"
)

// Service wires the scheduler against the live RoundService.
type Service struct {
	Driver      *sim.Driver
	bus         eventbus.EventBus
	journal     *sim.Journal
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	tables, err := csvdata.Load(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	logg.Infof("loaded %d nodes, %d edges, %d teams", len(tables.Nodes), len(tables.Edges), len(tables.Teams))

	net, err := network.New(tables.Nodes, tables.Edges)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	led := ledger.New(tables.Nodes)

	expiry, err := backlog.ParseExpiryPolicy(cfg.Policy.Expiry)
	if err != nil {
		return nil, err
	}
	bl := backlog.New(expiry)

	var policy alloc.Policy
	switch cfg.Policy.Kind {
	case "lp":
		policy = alloc.NewLP(logger.New("alloc-lp"))
	default:
		policy = alloc.NewGreedy(logger.New("alloc-greedy"))
	}

	client, err := roundapi.NewClient(cfg.API, logger.New("round-client"))
	if err != nil {
		return nil, fmt.Errorf("round client: %w", err)
	}

	var journal *sim.Journal
	if cfg.Journal.Enabled {
		journal, err = sim.NewJournal(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}

	bus := eventbus.New()
	pace := time.Duration(cfg.Policy.PaceMillis) * time.Millisecond
	driver, err := sim.NewDriver(net, led, bl, policy, client, bus, journal, logger.New("driver"), pace)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	return &Service{
		Driver:      driver,
		bus:         bus,
		journal:     journal,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run plays the full horizon and logs the final report.
func (s *Service) Run(ctx context.Context) error {
	events := s.bus.Subscribe()
	go s.report(events)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if err := s.Driver.Run(ctx); err != nil {
		return err
	}

	rep := s.Driver.Report()
	s.log.Infof("run finished: fulfilled=%d pending=%d missed=%d cost=%.2f co2=%.2f",
		rep.Fulfilled, len(rep.Pending), len(rep.Missed), rep.TotalKPIs.Cost, rep.TotalKPIs.CO2)
	for _, r := range rep.Pending {
		s.log.Warnf("unfulfilled: customer=%s amount=%.2f window=[%d,%d]", r.CustomerID, r.Amount, r.StartDay, r.EndDay)
	}
	for _, r := range rep.Missed {
		s.log.Warnf("missed: customer=%s amount=%.2f window=[%d,%d]", r.CustomerID, r.Amount, r.StartDay, r.EndDay)
	}
	return nil
}

func (s *Service) report(events <-chan eventbus.Event) {
	for e := range events {
		re, ok := e.(sim.RoundEvent)
		if !ok {
			continue
		}
		s.log.Infof("day %d: movements=%d fulfilled=%d new=%d backlog=%d cost=%.2f",
			re.Day, re.Movements, re.Fulfilled, re.NewDemand, re.Backlog, re.TotalKPIs.Cost)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}
