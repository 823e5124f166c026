package model

import "fmt"

// TransportMode identifies the physical transport backing an edge.
type TransportMode string

const (
	ModePipeline TransportMode = "pipeline"
	ModeTruck    TransportMode = "truck"
)

// Edge is a directed transport link between two nodes. Multiple edges may
// connect the same pair of nodes with different modes.
type Edge struct {
	ID          string
	From        string
	To          string
	Distance    float64
	LeadTime    int // whole days in transit
	MaxCapacity float64
	Mode        TransportMode
}

// Ratio is the efficiency score used to rank replenishment choices:
// capacity per unit of distance-time. Edges with no lead time score zero and
// are never picked for replenishment, but remain usable for direct matching.
func (e Edge) Ratio() float64 {
	if e.LeadTime > 0 {
		return e.MaxCapacity / (e.Distance * float64(e.LeadTime))
	}
	return 0
}

// ArrivalDay returns the day a movement issued on the given day arrives.
func (e Edge) ArrivalDay(issueDay int) int {
	return issueDay + e.LeadTime
}

// Validate checks that the edge definition is sound.
func (e Edge) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("edge id is required")
	}
	if e.From == "" || e.To == "" {
		return fmt.Errorf("edge %s: endpoints are required", e.ID)
	}
	if e.LeadTime < 0 {
		return fmt.Errorf("edge %s: lead time must not be negative", e.ID)
	}
	if e.MaxCapacity < 0 {
		return fmt.Errorf("edge %s: max capacity must not be negative", e.ID)
	}
	return nil
}
