package model

import "testing"

func TestEdgeRatio(t *testing.T) {
	cases := []struct {
		name string
		edge Edge
		want float64
	}{
		{"standard", Edge{Distance: 10, LeadTime: 1, MaxCapacity: 40}, 4.0},
		{"two day lead", Edge{Distance: 10, LeadTime: 2, MaxCapacity: 40}, 2.0},
		{"zero lead time", Edge{Distance: 10, LeadTime: 0, MaxCapacity: 40}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.edge.Ratio(); got != c.want {
				t.Fatalf("ratio = %.4f, want %.4f", got, c.want)
			}
		})
	}
}

func TestEdgeArrivalDay(t *testing.T) {
	e := Edge{LeadTime: 3}
	if got := e.ArrivalDay(5); got != 8 {
		t.Fatalf("arrival = %d, want 8", got)
	}
}

func TestEdgeValidate(t *testing.T) {
	good := Edge{ID: "e1", From: "a", To: "b", LeadTime: 1, MaxCapacity: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid edge rejected: %v", err)
	}
	bad := []Edge{
		{From: "a", To: "b"},
		{ID: "e1", To: "b"},
		{ID: "e1", From: "a", To: "b", LeadTime: -1},
		{ID: "e1", From: "a", To: "b", MaxCapacity: -5},
	}
	for i, e := range bad {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d: invalid edge accepted", i)
		}
	}
}

func TestNodeValidate(t *testing.T) {
	good := Node{ID: "T1", Role: RoleStorage, Capacity: 50, InitialStock: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid node rejected: %v", err)
	}
	overfull := Node{ID: "T1", Role: RoleStorage, Capacity: 50, InitialStock: 60}
	if err := overfull.Validate(); err == nil {
		t.Fatalf("initial stock above capacity must be rejected")
	}
	// Customers carry no stock, so the capacity bound does not apply.
	customer := Node{ID: "C1", Role: RoleCustomer}
	if err := customer.Validate(); err != nil {
		t.Fatalf("customer rejected: %v", err)
	}
	if customer.HoldsStock() {
		t.Fatalf("customers must not hold stock")
	}
}

func TestDemandWindow(t *testing.T) {
	d := DemandRequest{StartDay: 2, EndDay: 5}
	for day, want := range map[int]bool{1: false, 2: true, 5: true, 6: false} {
		if got := d.DeliverableOn(day); got != want {
			t.Fatalf("deliverable on %d = %v, want %v", day, got, want)
		}
	}
	if d.Expired(5) {
		t.Fatalf("not expired on the end day itself")
	}
	if !d.Expired(6) {
		t.Fatalf("expired once the end day has passed")
	}
}

func TestRoleString(t *testing.T) {
	if RoleSource.String() != "source" || RoleStorage.String() != "storage" || RoleCustomer.String() != "customer" {
		t.Fatalf("unexpected role names")
	}
	if Role(99).String() != "unknown" {
		t.Fatalf("unknown role must stringify as unknown")
	}
}
