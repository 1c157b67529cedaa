package model

import "testing"

func TestCountStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to CountStatus
		want     bool
	}{
		{CountStatusInProgress, CountStatusCompleted, true},
		{CountStatusInProgress, CountStatusCancelled, true},
		{CountStatusInProgress, CountStatusInProgress, false},
		{CountStatusCompleted, CountStatusInProgress, false},
		{CountStatusCompleted, CountStatusCancelled, false},
		{CountStatusCancelled, CountStatusCompleted, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestInventoryCount_Active(t *testing.T) {
	c := &InventoryCount{Status: CountStatusInProgress}
	if !c.Active() {
		t.Error("in_progress count should be active")
	}
	c.IsVoided = true
	if c.Active() {
		t.Error("voided count should not be active")
	}
	c = &InventoryCount{Status: CountStatusCompleted}
	if c.Active() {
		t.Error("completed count should not be active")
	}
}

func TestCountItem_Variant(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	cases := []struct {
		name     string
		expected float64
		actual   *float64
		want     bool
	}{
		{"uncounted", 10, nil, false},
		{"exact", 10, f(10), false},
		{"within epsilon", 10, f(10.01), false},
		{"just beyond epsilon", 10, f(10.011), true},
		{"short", 5, f(2), true},
		{"over", 5, f(8), true},
		{"negative side within epsilon", 10, f(9.99), false},
	}
	for _, c := range cases {
		ci := &InventoryCountItem{InStockQuantity: c.expected, ActualQuantity: c.actual}
		if got := ci.Variant(); got != c.want {
			t.Errorf("%s: Variant() = %v, want %v", c.name, got, c.want)
		}
	}
}
