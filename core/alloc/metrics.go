package alloc

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	movementsDelivery   prometheus.Counter
	movementsReplenish  prometheus.Counter
	volumeDelivered     prometheus.Counter
	demandDropped       prometheus.Counter
	invariantViolations prometheus.Counter
	lpFallbacks         prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	del := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_delivery_movements_total",
		Help: "Number of storage-to-customer delivery movements scheduled",
	})
	rep := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_replenishment_movements_total",
		Help: "Number of source-to-storage replenishment movements scheduled",
	})
	vol := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_delivered_volume_total",
		Help: "Total commodity volume scheduled for delivery",
	})
	drop := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_demand_dropped_total",
		Help: "Demand requests dropped for referencing unknown customers",
	})
	inv := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_invariant_violations_total",
		Help: "Ledger operations rejected despite pre-clipped amounts",
	})
	lpf := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_lp_fallbacks_total",
		Help: "Replenishment LP failures that fell back to the greedy pass",
	})
	return del, rep, vol, drop, inv, lpf
}

func init() {
	movementsDelivery, movementsReplenish, volumeDelivered, demandDropped, invariantViolations, lpFallbacks = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers allocation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(movementsDelivery, movementsReplenish, volumeDelivered, demandDropped, invariantViolations, lpFallbacks)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	movementsDelivery, movementsReplenish, volumeDelivered, demandDropped, invariantViolations, lpFallbacks = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
