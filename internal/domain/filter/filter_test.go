package filter

import (
	"testing"
)

func TestNewExpression_TooManyConditions(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	for i := range conds {
		c, err := NewMatch("tags", "pool")
		if err != nil {
			t.Fatalf("NewMatch: %v", err)
		}
		conds[i] = c
	}

	if _, err := NewExpression(conds, nil, nil); err == nil {
		t.Error("expected error for oversized must group")
	}
	if _, err := NewExpression(nil, nil, conds); err == nil {
		t.Error("expected error for oversized must_not group")
	}
}

func TestNewExpression_Empty(t *testing.T) {
	e, err := NewExpression(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	if !e.IsEmpty() {
		t.Error("expected empty expression")
	}
}

func TestNewMatch_Validation(t *testing.T) {
	if _, err := NewMatch("", "pool"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewMatch("tags", ""); err == nil {
		t.Error("expected error for empty match value")
	}

	c, err := NewMatch("tags", "pool")
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	if !c.IsMatch() || c.IsRange() {
		t.Errorf("expected match condition, got %+v", c)
	}
	if c.Key() != "tags" || c.Match() != "pool" {
		t.Errorf("unexpected condition %q=%q", c.Key(), c.Match())
	}
}

func TestNewRangeFilter_Validation(t *testing.T) {
	if _, err := NewRangeFilter(nil, nil); err == nil {
		t.Error("expected error for unbounded range")
	}

	lo, hi := 500000.0, 200000.0
	if _, err := NewRangeFilter(&lo, &hi); err == nil {
		t.Error("expected error for inverted bounds")
	}

	r, err := NewRangeFilter(&hi, &lo)
	if err != nil {
		t.Fatalf("NewRangeFilter: %v", err)
	}
	if *r.GTE() != 200000 || *r.LTE() != 500000 {
		t.Errorf("unexpected bounds %v..%v", *r.GTE(), *r.LTE())
	}
}

func TestNewRange_Condition(t *testing.T) {
	gte := 3.0
	r, err := NewRangeFilter(&gte, nil)
	if err != nil {
		t.Fatalf("NewRangeFilter: %v", err)
	}

	c, err := NewRange("beds", r)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	if !c.IsRange() || c.IsMatch() {
		t.Errorf("expected range condition, got %+v", c)
	}
	if c.Range() == nil || *c.Range().GTE() != 3 {
		t.Errorf("unexpected range %+v", c.Range())
	}

	if _, err := NewRange("", r); err == nil {
		t.Error("expected error for empty key")
	}
}
