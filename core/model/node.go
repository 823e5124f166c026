package model

import "fmt"

// Role classifies a node in the distribution network.
type Role int

const (
	RoleSource Role = iota
	RoleStorage
	RoleCustomer
)

func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleStorage:
		return "storage"
	case RoleCustomer:
		return "customer"
	}
	return "unknown"
}

// Node represents a production source, an intermediate storage tank or a
// customer sink. Stock is tracked separately in the ledger; InitialStock is
// only the level the node starts the run with. Penalty weights are carried
// for cost accounting and are not enforced by the greedy policy.
type Node struct {
	ID           string
	Name         string
	Role         Role
	Capacity     float64
	MaxInput     float64
	MaxOutput    float64
	InitialStock float64

	OverflowPenalty   float64
	UnderflowPenalty  float64
	OverInputPenalty  float64
	OverOutputPenalty float64

	// Source only.
	Production     float64
	ProductionCost float64
	ProductionCO2  float64

	// Customer only.
	LateDeliveryPenalty  float64
	EarlyDeliveryPenalty float64
}

// Validate checks that the node definition is sound.
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if n.Capacity < 0 {
		return fmt.Errorf("node %s: capacity must not be negative", n.ID)
	}
	if n.Role != RoleCustomer && n.InitialStock > n.Capacity {
		return fmt.Errorf("node %s: initial stock %.2f exceeds capacity %.2f", n.ID, n.InitialStock, n.Capacity)
	}
	return nil
}

// HoldsStock reports whether the node carries inventory of its own.
// Customers are pure sinks.
func (n Node) HoldsStock() bool {
	return n.Role == RoleSource || n.Role == RoleStorage
}
