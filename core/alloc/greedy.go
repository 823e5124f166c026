package alloc

import (
	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/logger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
)

// Greedy is the default allocation policy. It runs two passes per day:
// demand satisfaction first, then replenishment, so that replenishment
// observes post-delivery stock levels and capacity is never double counted.
type Greedy struct {
	log logger.Logger
}

// NewGreedy returns the greedy policy.
func NewGreedy(log logger.Logger) *Greedy {
	return &Greedy{log: log}
}

// Allocate implements Policy.
func (g *Greedy) Allocate(net *network.Model, led *ledger.Ledger, pending []model.DemandRequest, day int) Result {
	res := g.matchDemand(net, led, pending, day)
	res.Movements = append(res.Movements, g.replenish(net, led, day)...)
	return res
}

// matchDemand attempts each pending request in backlog order against the
// storage nodes in ascending id order. A request is matched only if a single
// storage can cover it in full through a direct edge whose lead time lands
// the delivery inside the request's window. The first qualifying storage
// wins; direct matching optimises for "can deliver now", not transport
// efficiency.
func (g *Greedy) matchDemand(net *network.Model, led *ledger.Ledger, pending []model.DemandRequest, day int) Result {
	var res Result
	for _, req := range pending {
		if !net.HasCustomer(req.CustomerID) {
			g.log.Warnf("demand references unknown customer %s, dropping", req.CustomerID)
			demandDropped.Inc()
			res.Dropped = append(res.Dropped, req)
			continue
		}
		matched := false
		for _, st := range net.Storages() {
			edge, ok := net.EdgeTo(st.ID, req.CustomerID)
			if !ok {
				continue
			}
			if led.Stock(st.ID) < req.Amount || edge.MaxCapacity < req.Amount {
				continue
			}
			if !req.DeliverableOn(edge.ArrivalDay(day)) {
				continue
			}
			if err := led.Deduct(st.ID, req.Amount); err != nil {
				// Cannot happen: the stock check above guards the deduct.
				g.log.Errorf("delivery invariant violated at %s: %v", st.ID, err)
				invariantViolations.Inc()
				continue
			}
			res.Movements = append(res.Movements, model.Movement{EdgeID: edge.ID, Amount: req.Amount, Day: day})
			res.Fulfilled = append(res.Fulfilled, req)
			movementsDelivery.Inc()
			volumeDelivered.Add(req.Amount)
			g.log.Debugw("demand matched", map[string]any{
				"customer": req.CustomerID,
				"storage":  st.ID,
				"amount":   req.Amount,
				"arrival":  edge.ArrivalDay(day),
			})
			matched = true
			break
		}
		if !matched {
			res.Unfulfilled = append(res.Unfulfilled, req)
		}
	}
	return res
}

// replenish moves stock from sources towards storages. Each source uses its
// single best-ratio storage edge and fans out across storage nodes in
// ascending id order while it has stock left and storages have headroom.
func (g *Greedy) replenish(net *network.Model, led *ledger.Ledger, day int) []model.Movement {
	var movements []model.Movement
	for _, src := range net.Sources() {
		if led.Stock(src.ID) <= 0 {
			continue
		}
		edge, ok := net.BestReplenishmentEdge(src.ID)
		if !ok {
			continue
		}
		if edge.ArrivalDay(day) > model.Horizon {
			continue
		}
		for _, st := range net.Storages() {
			stock := led.Stock(src.ID)
			if stock <= 0 {
				break
			}
			qty := min3(stock, led.Headroom(st.ID), edge.MaxCapacity)
			if qty <= 0 {
				continue
			}
			if err := transfer(led, src.ID, st.ID, qty); err != nil {
				g.log.Errorf("replenishment invariant violated %s->%s: %v", src.ID, st.ID, err)
				invariantViolations.Inc()
				continue
			}
			movements = append(movements, model.Movement{EdgeID: edge.ID, Amount: qty, Day: day})
			movementsReplenish.Inc()
		}
	}
	return movements
}

// transfer commits a deduct/add pair, rolling the deduct back if the add is
// rejected so the ledger never loses commodity.
func transfer(led *ledger.Ledger, from, to string, qty float64) error {
	if err := led.Deduct(from, qty); err != nil {
		return err
	}
	if err := led.Add(to, qty); err != nil {
		if rerr := led.Add(from, qty); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
