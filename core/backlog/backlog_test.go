package backlog

import (
	"testing"

	"github.com/anrusu/fueldist/core/model"
)

func req(id string, amount float64, start, end int) model.DemandRequest {
	return model.DemandRequest{CustomerID: id, Amount: amount, StartDay: start, EndDay: end}
}

func TestTakeSortsByEndDay(t *testing.T) {
	b := New(ExpiryReport)
	b.Append(req("C1", 10, 1, 20), req("C2", 10, 1, 5), req("C3", 10, 1, 12))
	got := b.Take(1)
	if len(got) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(got))
	}
	if got[0].CustomerID != "C2" || got[1].CustomerID != "C3" || got[2].CustomerID != "C1" {
		t.Fatalf("bad urgency order: %s %s %s", got[0].CustomerID, got[1].CustomerID, got[2].CustomerID)
	}
}

func TestTakeStableOnEqualDeadline(t *testing.T) {
	b := New(ExpiryReport)
	b.Append(req("C1", 10, 1, 5), req("C2", 20, 1, 5), req("C3", 30, 1, 5))
	got := b.Take(1)
	if got[0].CustomerID != "C1" || got[1].CustomerID != "C2" || got[2].CustomerID != "C3" {
		t.Fatalf("equal deadlines must keep arrival order: %s %s %s",
			got[0].CustomerID, got[1].CustomerID, got[2].CustomerID)
	}
}

func TestExpiryReport(t *testing.T) {
	b := New(ExpiryReport)
	b.Append(req("gone", 10, 1, 3), req("alive", 10, 1, 9))
	got := b.Take(4)
	if len(got) != 1 || got[0].CustomerID != "alive" {
		t.Fatalf("expected only the live request, got %+v", got)
	}
	missed := b.Missed()
	if len(missed) != 1 || missed[0].CustomerID != "gone" {
		t.Fatalf("expired request must land in missed, got %+v", missed)
	}
}

func TestExpiryDrop(t *testing.T) {
	b := New(ExpiryDrop)
	b.Append(req("gone", 10, 1, 3))
	if got := b.Take(4); len(got) != 0 {
		t.Fatalf("expected empty pending, got %+v", got)
	}
	if len(b.Missed()) != 0 {
		t.Fatalf("drop policy must not record misses")
	}
}

func TestExpiryKeepRetainsForever(t *testing.T) {
	b := New(ExpiryKeep)
	b.Append(req("gone", 10, 1, 3))
	if got := b.Take(42); len(got) != 1 {
		t.Fatalf("keep policy must retain expired requests, got %+v", got)
	}
}

func TestFutureWindowSurvivesHorizon(t *testing.T) {
	// A window opening after the last day is never expired, only never
	// deliverable. It stays pending through the whole run.
	b := New(ExpiryReport)
	b.Append(req("late", 25, 50, 55))
	if got := b.Take(model.Horizon); len(got) != 1 {
		t.Fatalf("future-window request must stay pending, got %+v", got)
	}
	if len(b.Missed()) != 0 {
		t.Fatalf("future-window request must not be reported missed")
	}
}

func TestReplace(t *testing.T) {
	b := New(ExpiryReport)
	b.Append(req("C1", 10, 1, 5), req("C2", 10, 1, 6))
	b.Replace([]model.DemandRequest{req("C2", 10, 1, 6)})
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1", b.Len())
	}
	if b.Pending()[0].CustomerID != "C2" {
		t.Fatalf("unexpected pending request")
	}
}

func TestParseExpiryPolicy(t *testing.T) {
	cases := []struct {
		in   string
		want ExpiryPolicy
	}{
		{"keep", ExpiryKeep},
		{"report", ExpiryReport},
		{"", ExpiryReport},
		{"drop", ExpiryDrop},
	}
	for _, c := range cases {
		got, err := ParseExpiryPolicy(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parse %q = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseExpiryPolicy("bogus"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
