package store

import "testing"

func TestModeValid(t *testing.T) {
	valid := []Mode{ModeQuick, ModeDetailed, ModeHybrid}
	for _, m := range valid {
		if !m.Valid() {
			t.Errorf("mode %q should be valid", m)
		}
	}
	invalid := []Mode{"", "fast", "QUICK"}
	for _, m := range invalid {
		if m.Valid() {
			t.Errorf("mode %q should be invalid", m)
		}
	}
}

func TestFiltersCanonical(t *testing.T) {
	avail := true
	min, max := 5.0, 20.0

	a := Filters{MaterialTypes: []string{"Ceramic", " porcelain"}, Availability: &avail, PriceMin: &min, PriceMax: &max}
	b := Filters{MaterialTypes: []string{"porcelain", "ceramic"}, Availability: &avail, PriceMin: &min, PriceMax: &max}

	if a.Canonical() != b.Canonical() {
		t.Errorf("order/case variants differ: %q vs %q", a.Canonical(), b.Canonical())
	}

	c := Filters{MaterialTypes: []string{"ceramic"}}
	if a.Canonical() == c.Canonical() {
		t.Error("different filter sets share a canonical form")
	}

	// Canonical must not mutate the receiver's slice order.
	d := Filters{MaterialTypes: []string{"zebra", "alpha"}}
	_ = d.Canonical()
	if d.MaterialTypes[0] != "zebra" {
		t.Error("Canonical mutated the original filter slice")
	}
}

func TestFiltersIsZero(t *testing.T) {
	if !(Filters{}).IsZero() {
		t.Error("empty filters should be zero")
	}
	avail := false
	if (Filters{Availability: &avail}).IsZero() {
		t.Error("availability filter should not be zero")
	}
}
