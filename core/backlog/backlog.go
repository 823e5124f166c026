package backlog

import (
	"fmt"
	"sort"

	"github.com/anrusu/fueldist/core/model"
)

// ExpiryPolicy decides what happens to a request once the current day has
// passed its end day and the window can no longer be hit.
type ExpiryPolicy int

const (
	// ExpiryKeep retains expired requests in the pending list indefinitely.
	// This reproduces the behaviour of accumulating a request forever even
	// though it can never be fulfilled.
	ExpiryKeep ExpiryPolicy = iota
	// ExpiryReport moves expired requests to the missed list, retained for
	// the final report.
	ExpiryReport
	// ExpiryDrop discards expired requests silently.
	ExpiryDrop
)

// ParseExpiryPolicy maps a config string to a policy.
func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	switch s {
	case "keep":
		return ExpiryKeep, nil
	case "report", "":
		return ExpiryReport, nil
	case "drop":
		return ExpiryDrop, nil
	}
	return 0, fmt.Errorf("unknown expiry policy %q", s)
}

// Backlog holds the demand requests not yet fulfilled, carried forward
// across days.
type Backlog struct {
	pending []model.DemandRequest
	missed  []model.DemandRequest
	expiry  ExpiryPolicy
}

// New creates an empty backlog with the given expiry policy.
func New(expiry ExpiryPolicy) *Backlog {
	return &Backlog{expiry: expiry}
}

// Append adds newly revealed requests behind whatever remained unfulfilled.
func (b *Backlog) Append(reqs ...model.DemandRequest) {
	b.pending = append(b.pending, reqs...)
}

// Take applies the expiry policy for the given day and returns the pending
// requests ordered ascending by end day. The sort is stable: requests with
// equal deadlines keep their arrival order. Urgency-first ordering is what
// makes the greedy matcher attempt near-expiry demand before anything else,
// since a missed window can never be recovered.
func (b *Backlog) Take(day int) []model.DemandRequest {
	if b.expiry != ExpiryKeep {
		kept := b.pending[:0]
		for _, r := range b.pending {
			if r.Expired(day) {
				if b.expiry == ExpiryReport {
					b.missed = append(b.missed, r)
				}
				continue
			}
			kept = append(kept, r)
		}
		b.pending = kept
	}
	sort.SliceStable(b.pending, func(i, j int) bool {
		return b.pending[i].EndDay < b.pending[j].EndDay
	})
	out := make([]model.DemandRequest, len(b.pending))
	copy(out, b.pending)
	return out
}

// Replace overwrites the pending list with what the policy left unfulfilled.
func (b *Backlog) Replace(pending []model.DemandRequest) {
	b.pending = append(b.pending[:0], pending...)
}

// Pending returns the unfulfilled requests still eligible for allocation.
func (b *Backlog) Pending() []model.DemandRequest {
	out := make([]model.DemandRequest, len(b.pending))
	copy(out, b.pending)
	return out
}

// Missed returns the requests whose windows closed under the report policy.
func (b *Backlog) Missed() []model.DemandRequest {
	out := make([]model.DemandRequest, len(b.missed))
	copy(out, b.missed)
	return out
}

// Len returns the number of pending requests.
func (b *Backlog) Len() int { return len(b.pending) }
