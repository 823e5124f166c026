package alloc

import (
	"github.com/anrusu/fueldist/core/ledger"
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/network"
)

// Result carries the outcome of one day's allocation.
type Result struct {
	// Movements scheduled for the day, deliveries first, replenishments after.
	Movements []model.Movement
	// Fulfilled requests, matched in full by a single movement each.
	Fulfilled []model.DemandRequest
	// Unfulfilled requests, carried unchanged into the next day's backlog.
	Unfulfilled []model.DemandRequest
	// Dropped requests referencing unknown customers (data errors).
	Dropped []model.DemandRequest
}

// Policy decides which movements to schedule for a day. Implementations read
// the immutable network, mutate the ledger in place and must be
// deterministic: identical inputs produce identical movements and identical
// resulting ledger state. The pending slice is ordered urgency-first by the
// backlog and must be processed in that order.
type Policy interface {
	Allocate(net *network.Model, led *ledger.Ledger, pending []model.DemandRequest, day int) Result
}
