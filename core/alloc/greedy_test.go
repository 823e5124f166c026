package alloc

import (
	"reflect"
	"testing"

	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
	"github.com/anrusu/fueldist/infra/logger"
)

// smallWorld is the single-chain network R1 -> T1 -> C1: refinery holding
// 100 units, a 50-unit tank, a 40-unit replenishment edge with one day of
// lead time and a 50-unit delivery edge.
func smallWorld(t *testing.T) (*network.Model, *ledger.Ledger) {
	t.Helper()
	nodes := []model.Node{
		{ID: "R1", Role: model.RoleSource, Capacity: 200, InitialStock: 100},
		{ID: "T1", Role: model.RoleStorage, Capacity: 50},
		{ID: "C1", Role: model.RoleCustomer},
	}
	edges := []model.Edge{
		{ID: "e-rt", From: "R1", To: "T1", Distance: 10, LeadTime: 1, MaxCapacity: 40},
		{ID: "e-tc", From: "T1", To: "C1", Distance: 5, LeadTime: 1, MaxCapacity: 50},
	}
	net, err := network.New(nodes, edges)
	if err != nil {
		t.Fatalf("build network: %v", err)
	}
	return net, ledger.New(nodes)
}

func TestGreedyTwoDayChain(t *testing.T) {
	net, led := smallWorld(t)
	g := NewGreedy(logger.NopLogger{})
	req := model.DemandRequest{CustomerID: "C1", Amount: 30, PostDay: 0, StartDay: 2, EndDay: 5}

	// Day 1: the tank is empty so the request cannot be matched, but the
	// refinery pushes a full edge load towards it.
	res := g.Allocate(net, led, []model.DemandRequest{req}, 1)
	if len(res.Fulfilled) != 0 || len(res.Unfulfilled) != 1 {
		t.Fatalf("day 1: fulfilled=%d unfulfilled=%d", len(res.Fulfilled), len(res.Unfulfilled))
	}
	want := []model.Movement{{EdgeID: "e-rt", Amount: 40, Day: 1}}
	if !reflect.DeepEqual(res.Movements, want) {
		t.Fatalf("day 1 movements = %+v, want %+v", res.Movements, want)
	}
	if led.Stock("R1") != 60 || led.Stock("T1") != 40 {
		t.Fatalf("day 1 stocks = %.2f/%.2f, want 60/40", led.Stock("R1"), led.Stock("T1"))
	}

	// Day 2: the tank covers the request in full, then replenishes again up
	// to its remaining headroom.
	res = g.Allocate(net, led, res.Unfulfilled, 2)
	if len(res.Fulfilled) != 1 || len(res.Unfulfilled) != 0 {
		t.Fatalf("day 2: fulfilled=%d unfulfilled=%d", len(res.Fulfilled), len(res.Unfulfilled))
	}
	want = []model.Movement{
		{EdgeID: "e-tc", Amount: 30, Day: 2},
		{EdgeID: "e-rt", Amount: 40, Day: 2},
	}
	if !reflect.DeepEqual(res.Movements, want) {
		t.Fatalf("day 2 movements = %+v, want %+v", res.Movements, want)
	}
	if led.Stock("R1") != 20 || led.Stock("T1") != 50 {
		t.Fatalf("day 2 stocks = %.2f/%.2f, want 20/50", led.Stock("R1"), led.Stock("T1"))
	}
}

func TestGreedyFullAmountOnly(t *testing.T) {
	net, led := smallWorld(t)
	if err := led.Deduct("R1", 100); err != nil {
		t.Fatalf("drain source: %v", err)
	}
	if err := led.Add("T1", 20); err != nil {
		t.Fatalf("seed tank: %v", err)
	}
	g := NewGreedy(logger.NopLogger{})
	req := model.DemandRequest{CustomerID: "C1", Amount: 30, StartDay: 1, EndDay: 10}
	res := g.Allocate(net, led, []model.DemandRequest{req}, 1)
	if len(res.Fulfilled) != 0 {
		t.Fatalf("partial stock must never satisfy a request")
	}
	if led.Stock("T1") != 20 {
		t.Fatalf("unmatched request must leave tank stock untouched, got %.2f", led.Stock("T1"))
	}
}

func TestGreedyEdgeCapacityBoundsDelivery(t *testing.T) {
	net, led := smallWorld(t)
	if err := led.Add("T1", 50); err != nil {
		t.Fatalf("seed tank: %v", err)
	}
	g := NewGreedy(logger.NopLogger{})
	req := model.DemandRequest{CustomerID: "C1", Amount: 60, StartDay: 1, EndDay: 10}
	res := g.matchDemand(net, led, []model.DemandRequest{req}, 1)
	if len(res.Unfulfilled) != 1 {
		t.Fatalf("request above edge capacity must stay unfulfilled")
	}
}

func TestGreedyWindowGatesDelivery(t *testing.T) {
	net, led := smallWorld(t)
	if err := led.Add("T1", 50); err != nil {
		t.Fatalf("seed tank: %v", err)
	}
	g := NewGreedy(logger.NopLogger{})

	early := model.DemandRequest{CustomerID: "C1", Amount: 30, StartDay: 5, EndDay: 6}
	res := g.matchDemand(net, led, []model.DemandRequest{early}, 1) // arrival day 2
	if len(res.Fulfilled) != 0 {
		t.Fatalf("arrival before the window must not deliver")
	}

	late := model.DemandRequest{CustomerID: "C1", Amount: 30, StartDay: 1, EndDay: 1}
	res = g.matchDemand(net, led, []model.DemandRequest{late}, 1) // arrival day 2
	if len(res.Fulfilled) != 0 {
		t.Fatalf("arrival after the window must not deliver")
	}

	exact := model.DemandRequest{CustomerID: "C1", Amount: 30, StartDay: 2, EndDay: 2}
	res = g.matchDemand(net, led, []model.DemandRequest{exact}, 1)
	if len(res.Fulfilled) != 1 {
		t.Fatalf("arrival on the window boundary must deliver")
	}
}

func TestGreedyUnknownCustomerDropped(t *testing.T) {
	net, led := smallWorld(t)
	g := NewGreedy(logger.NopLogger{})
	req := model.DemandRequest{CustomerID: "ghost", Amount: 10, StartDay: 1, EndDay: 10}
	res := g.matchDemand(net, led, []model.DemandRequest{req}, 1)
	if len(res.Dropped) != 1 || len(res.Unfulfilled) != 0 {
		t.Fatalf("unknown customer must be dropped, got dropped=%d unfulfilled=%d",
			len(res.Dropped), len(res.Unfulfilled))
	}
}

func TestGreedyFirstStorageWins(t *testing.T) {
	nodes := []model.Node{
		{ID: "T1", Role: model.RoleStorage, Capacity: 100, InitialStock: 50},
		{ID: "T2", Role: model.RoleStorage, Capacity: 100, InitialStock: 50},
		{ID: "C1", Role: model.RoleCustomer},
	}
	edges := []model.Edge{
		{ID: "e1", From: "T1", To: "C1", Distance: 5, LeadTime: 1, MaxCapacity: 50},
		{ID: "e2", From: "T2", To: "C1", Distance: 5, LeadTime: 1, MaxCapacity: 50},
	}
	net, err := network.New(nodes, edges)
	if err != nil {
		t.Fatalf("build network: %v", err)
	}
	led := ledger.New(nodes)
	g := NewGreedy(logger.NopLogger{})
	req := model.DemandRequest{CustomerID: "C1", Amount: 30, StartDay: 1, EndDay: 10}
	res := g.matchDemand(net, led, []model.DemandRequest{req}, 1)
	if len(res.Movements) != 1 || res.Movements[0].EdgeID != "e1" {
		t.Fatalf("lowest storage id must serve first, got %+v", res.Movements)
	}
	if led.Stock("T1") != 20 || led.Stock("T2") != 50 {
		t.Fatalf("stocks = %.2f/%.2f, want 20/50", led.Stock("T1"), led.Stock("T2"))
	}
}

func TestGreedyReplenishFansOutOnBestEdge(t *testing.T) {
	nodes := []model.Node{
		{ID: "R1", Role: model.RoleSource, Capacity: 200, InitialStock: 100},
		{ID: "T1", Role: model.RoleStorage, Capacity: 30},
		{ID: "T2", Role: model.RoleStorage, Capacity: 30},
	}
	edges := []model.Edge{
		{ID: "fast", From: "R1", To: "T1", Distance: 5, LeadTime: 1, MaxCapacity: 40}, // ratio 8
		{ID: "slow", From: "R1", To: "T2", Distance: 50, LeadTime: 2, MaxCapacity: 40},
	}
	net, err := network.New(nodes, edges)
	if err != nil {
		t.Fatalf("build network: %v", err)
	}
	led := ledger.New(nodes)
	g := NewGreedy(logger.NopLogger{})
	moves := g.replenish(net, led, 1)
	// The single best-ratio edge carries the fan-out across every storage.
	want := []model.Movement{
		{EdgeID: "fast", Amount: 30, Day: 1},
		{EdgeID: "fast", Amount: 30, Day: 1},
	}
	if !reflect.DeepEqual(moves, want) {
		t.Fatalf("movements = %+v, want %+v", moves, want)
	}
	if led.Stock("R1") != 40 || led.Stock("T1") != 30 || led.Stock("T2") != 30 {
		t.Fatalf("stocks = %.2f/%.2f/%.2f", led.Stock("R1"), led.Stock("T1"), led.Stock("T2"))
	}
}

func TestGreedyReplenishHorizonCutoff(t *testing.T) {
	net, led := smallWorld(t)
	g := NewGreedy(logger.NopLogger{})
	if moves := g.replenish(net, led, model.Horizon); len(moves) != 0 {
		t.Fatalf("replenishment arriving past the horizon must not be issued, got %+v", moves)
	}
	if moves := g.replenish(net, led, model.Horizon-1); len(moves) != 1 {
		t.Fatalf("replenishment arriving on the last day must be issued, got %+v", moves)
	}
}

func TestGreedyDeterministic(t *testing.T) {
	pending := []model.DemandRequest{
		{CustomerID: "C1", Amount: 30, StartDay: 2, EndDay: 5},
		{CustomerID: "C1", Amount: 10, StartDay: 1, EndDay: 8},
	}
	run := func() ([]model.Movement, float64) {
		net, led := smallWorld(t)
		g := NewGreedy(logger.NopLogger{})
		var all []model.Movement
		rest := pending
		for day := 1; day <= 5; day++ {
			res := g.Allocate(net, led, rest, day)
			all = append(all, res.Movements...)
			rest = res.Unfulfilled
		}
		return all, led.Total()
	}
	m1, t1 := run()
	m2, t2 := run()
	if !reflect.DeepEqual(m1, m2) || t1 != t2 {
		t.Fatalf("identical inputs must produce identical plans")
	}
}

func TestGreedyConservation(t *testing.T) {
	net, led := smallWorld(t)
	g := NewGreedy(logger.NopLogger{})
	pending := []model.DemandRequest{{CustomerID: "C1", Amount: 30, StartDay: 2, EndDay: 5}}
	for day := 1; day <= 5; day++ {
		before := led.Total()
		res := g.Allocate(net, led, pending, day)
		var delivered float64
		for _, r := range res.Fulfilled {
			delivered += r.Amount
		}
		if got := led.Total(); got != before-delivered {
			t.Fatalf("day %d: total %.2f -> %.2f with %.2f delivered", day, before, got, delivered)
		}
		pending = res.Unfulfilled
	}
}
