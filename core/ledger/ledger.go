package ledger

import (
	"fmt"

	"github.com/anrusu/fueldist/core/model"
)

// Sentinel errors for the defensive invariants. The allocation policies clip
// every amount against stock, headroom and edge capacity before committing,
// so hitting one of these indicates a policy bug rather than an expected
// runtime condition.
var (
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrCapacityExceeded  = fmt.Errorf("capacity exceeded")
	ErrUnknownNode       = fmt.Errorf("node not tracked by ledger")
)

// Ledger tracks the mutable per-node stock of source and storage nodes,
// bounded by each node's capacity. Customers are pure sinks and carry no
// stock.
type Ledger struct {
	stock    map[string]float64
	capacity map[string]float64
}

// New seeds a ledger from the node set, tracking every node that holds stock.
func New(nodes []model.Node) *Ledger {
	l := &Ledger{
		stock:    make(map[string]float64, len(nodes)),
		capacity: make(map[string]float64, len(nodes)),
	}
	for _, n := range nodes {
		if !n.HoldsStock() {
			continue
		}
		l.stock[n.ID] = n.InitialStock
		l.capacity[n.ID] = n.Capacity
	}
	return l
}

// Stock returns the current stock of the node, zero if untracked.
func (l *Ledger) Stock(id string) float64 { return l.stock[id] }

// Headroom returns capacity minus current stock.
func (l *Ledger) Headroom(id string) float64 {
	return l.capacity[id] - l.stock[id]
}

// Deduct removes the amount from the node's stock.
func (l *Ledger) Deduct(id string, amount float64) error {
	cur, ok := l.stock[id]
	if !ok {
		return fmt.Errorf("deduct %s: %w", id, ErrUnknownNode)
	}
	if amount > cur {
		return fmt.Errorf("deduct %.2f from %s holding %.2f: %w", amount, id, cur, ErrInsufficientStock)
	}
	l.stock[id] = cur - amount
	return nil
}

// Add credits the amount to the node's stock.
func (l *Ledger) Add(id string, amount float64) error {
	cur, ok := l.stock[id]
	if !ok {
		return fmt.Errorf("add %s: %w", id, ErrUnknownNode)
	}
	if cur+amount > l.capacity[id] {
		return fmt.Errorf("add %.2f to %s holding %.2f of %.2f: %w", amount, id, cur, l.capacity[id], ErrCapacityExceeded)
	}
	l.stock[id] = cur + amount
	return nil
}

// Total returns the summed stock across all tracked nodes.
func (l *Ledger) Total() float64 {
	var t float64
	for _, s := range l.stock {
		t += s
	}
	return t
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		stock:    make(map[string]float64, len(l.stock)),
		capacity: make(map[string]float64, len(l.capacity)),
	}
	for k, v := range l.stock {
		c.stock[k] = v
	}
	for k, v := range l.capacity {
		c.capacity[k] = v
	}
	return c
}
