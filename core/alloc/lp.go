package alloc

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/logger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
)

// ErrInfeasible indicates the replenishment LP had no feasible solution.
var ErrInfeasible = errors.New("lp infeasible")

// epsilon below which a solved flow is treated as zero.
const lpEps = 1e-6

// LP is the exact-optimization allocation variant. Demand satisfaction is the
// same direct matching as Greedy; replenishment is solved as a linear program
// over every source-to-storage lane at once, maximising ratio-weighted flow
// subject to edge capacity, source stock and storage headroom. On solver
// failure it falls back to the greedy replenishment pass.
type LP struct {
	greedy *Greedy
	log    logger.Logger
}

// NewLP returns the LP-based policy.
func NewLP(log logger.Logger) *LP {
	return &LP{greedy: NewGreedy(log), log: log}
}

// lane is one candidate source-to-storage flow variable.
type lane struct {
	edge  model.Edge
	from  string
	to    string
	ratio float64
	cap   float64
}

// Allocate implements Policy.
func (p *LP) Allocate(net *network.Model, led *ledger.Ledger, pending []model.DemandRequest, day int) Result {
	res := p.greedy.matchDemand(net, led, pending, day)

	lanes := buildLanes(net, led, day)
	if len(lanes) == 0 {
		return res
	}
	flows, err := p.solve(lanes, net, led)
	if err != nil {
		p.log.Warnf("replenishment LP failed, falling back to greedy: %v", err)
		lpFallbacks.Inc()
		res.Movements = append(res.Movements, p.greedy.replenish(net, led, day)...)
		return res
	}
	for i, l := range lanes {
		qty := min3(flows[i], led.Stock(l.from), led.Headroom(l.to))
		if qty > l.cap {
			qty = l.cap
		}
		if qty <= lpEps {
			continue
		}
		if err := transfer(led, l.from, l.to, qty); err != nil {
			p.log.Errorf("lp replenishment invariant violated %s->%s: %v", l.from, l.to, err)
			invariantViolations.Inc()
			continue
		}
		res.Movements = append(res.Movements, model.Movement{EdgeID: l.edge.ID, Amount: qty, Day: day})
		movementsReplenish.Inc()
	}
	return res
}

// buildLanes enumerates every positive-ratio edge from a stocked source to a
// storage node whose lead time still fits inside the horizon. Order is
// deterministic: sources ascending by id, edges in ranked order.
func buildLanes(net *network.Model, led *ledger.Ledger, day int) []lane {
	var lanes []lane
	for _, src := range net.Sources() {
		if led.Stock(src.ID) <= 0 {
			continue
		}
		for _, e := range net.RankedEdgesFrom(src.ID) {
			if e.Ratio() <= 0 {
				break
			}
			dst, ok := net.Node(e.To)
			if !ok || dst.Role != model.RoleStorage {
				continue
			}
			if e.ArrivalDay(day) > model.Horizon {
				continue
			}
			if led.Headroom(dst.ID) <= 0 {
				continue
			}
			lanes = append(lanes, lane{edge: e, from: src.ID, to: dst.ID, ratio: e.Ratio(), cap: e.MaxCapacity})
		}
	}
	return lanes
}

// lpSolve points to the function used to solve the LP. It can be overridden
// in tests to simulate solver failures.
var lpSolve = solveReplenishment

func (p *LP) solve(lanes []lane, net *network.Model, led *ledger.Ledger) ([]float64, error) {
	sources := net.Sources()
	storages := net.Storages()
	srcIdx := make(map[string]int, len(sources))
	for i, s := range sources {
		srcIdx[s.ID] = i
	}
	stIdx := make(map[string]int, len(storages))
	for i, s := range storages {
		stIdx[s.ID] = i
	}

	n := len(lanes)
	ratios := make([]float64, n)
	caps := make([]float64, n)
	fromRow := make([]int, n)
	toRow := make([]int, n)
	for i, l := range lanes {
		ratios[i] = l.ratio
		caps[i] = l.cap
		fromRow[i] = srcIdx[l.from]
		toRow[i] = stIdx[l.to]
	}
	stocks := make([]float64, len(sources))
	var total float64
	for i, s := range sources {
		stocks[i] = led.Stock(s.ID)
		total += stocks[i]
	}
	rooms := make([]float64, len(storages))
	for i, s := range storages {
		rooms[i] = led.Headroom(s.ID)
	}

	sol, err := lpSolve(ratios, caps, fromRow, toRow, stocks, rooms, total)
	if err != nil {
		return nil, err
	}
	if len(sol) < n {
		return nil, ErrInfeasible
	}
	return sol[:n], nil
}

// solveReplenishment runs the simplex algorithm to maximise ratio-weighted
// flow. Variables are the lane flows plus one slack absorbing unmoved stock;
// inequality rows bound each lane by its edge capacity, each source by its
// stock and each storage by its headroom.
func solveReplenishment(ratios, caps []float64, fromRow, toRow []int, stocks, rooms []float64, total float64) ([]float64, error) {
	n := len(ratios)
	cols := n + 1 // +1 slack
	c := make([]float64, cols)
	for i, r := range ratios {
		c[i] = -r
	}

	rows := n + len(stocks) + len(rooms)
	g := mat.NewDense(rows, cols, nil)
	h := make([]float64, rows)
	for i, cp := range caps {
		g.Set(i, i, 1)
		h[i] = cp
	}
	for i, s := range stocks {
		h[n+i] = s
	}
	for i, r := range rooms {
		h[n+len(stocks)+i] = r
	}
	for i := 0; i < n; i++ {
		g.Set(n+fromRow[i], i, 1)
		g.Set(n+len(stocks)+toRow[i], i, 1)
	}

	// The slack turns the stock budget into an equality row, which keeps the
	// converted standard form well shaped for the simplex solver.
	a := mat.NewDense(1, cols, nil)
	for i := 0; i < n; i++ {
		a.Set(0, i, 1)
	}
	a.Set(0, n, 1)
	b := []float64{total}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	return sol, err
}
