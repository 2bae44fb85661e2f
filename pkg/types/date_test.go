package types

import "testing"

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := d.String(); got != "2025-03-14" {
		t.Errorf("String() = %q, want 2025-03-14", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestDateComparisons(t *testing.T) {
	a := MustParseDate("2025-01-01")
	b := MustParseDate("2025-06-01")

	if !a.Before(b) {
		t.Error("expected a.Before(b)")
	}
	if !b.After(a) {
		t.Error("expected b.After(a)")
	}
	if a.Equal(b) {
		t.Error("a should not equal b")
	}
	if !a.Equal(MustParseDate("2025-01-01")) {
		t.Error("a should equal an equivalent date")
	}
}

func TestDaysSince(t *testing.T) {
	a := MustParseDate("2025-01-01")
	b := MustParseDate("2025-01-11")
	if got := b.DaysSince(a); got != 10 {
		t.Errorf("DaysSince = %d, want 10", got)
	}
}

func TestSubtractUnit(t *testing.T) {
	a := MustParseDate("2025-01-01")
	b := MustParseDate("2026-01-01")

	if got := b.SubtractUnit(a, "years"); got != 1 {
		t.Errorf("years = %d, want 1", got)
	}
	if got := b.SubtractUnit(a, "days"); got != 365 {
		t.Errorf("days = %d, want 365", got)
	}
}

func TestDateField(t *testing.T) {
	d := MustParseDate("2025-07-04")
	tests := map[string]any{
		"year":  2025,
		"month": 7,
		"day":   4,
	}
	for field, want := range tests {
		got, ok := d.Field(field)
		if !ok {
			t.Fatalf("Field(%q) not found", field)
		}
		if got != want {
			t.Errorf("Field(%q) = %v, want %v", field, got, want)
		}
	}

	if _, ok := d.Field("nonsense"); ok {
		t.Error("expected unknown field to report not-found")
	}
}
