package model

// Horizon is the fixed simulation length in days. Rounds are numbered 0
// (bootstrap) through Horizon inclusive.
const Horizon = 42

// DemandRequest is a customer's time-windowed request for a fixed amount of
// commodity. It is immutable once created: a request is either fully
// delivered by a single movement or carried unchanged in the backlog.
type DemandRequest struct {
	CustomerID string
	Amount     float64
	PostDay    int // day the request was revealed
	StartDay   int // earliest acceptable delivery day
	EndDay     int // latest acceptable delivery day, inclusive
}

// DeliverableOn reports whether an arrival on the given day falls inside the
// request's delivery window.
func (d DemandRequest) DeliverableOn(arrivalDay int) bool {
	return arrivalDay >= d.StartDay && arrivalDay <= d.EndDay
}

// Expired reports whether the window can no longer be hit from the given day:
// even an instantaneous movement would arrive after EndDay.
func (d DemandRequest) Expired(currentDay int) bool {
	return currentDay > d.EndDay
}

// Movement is a scheduled transfer along a specific edge, issued on a given
// day. The arrival day is implicit: Day plus the edge's lead time.
type Movement struct {
	EdgeID string
	Amount float64
	Day    int
}
