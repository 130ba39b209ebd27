package money

import "testing"

func TestFormat(t *testing.T) {
	cases := map[float64]string{
		0:           "$0.00",
		5:           "$5.00",
		999.999:     "$1,000.00",
		1234567.891: "$1,234,567.89",
		-2500.5:     "-$2,500.50",
	}

	for value, want := range cases {
		if got := Format(value); got != want {
			t.Fatalf("Format(%v): expected %q, got %q", value, want, got)
		}
	}
}

func TestRoundAndCents(t *testing.T) {
	if got := Round(10.005); got != 10.01 {
		t.Fatalf("expected 10.01, got %v", got)
	}
	if got := Cents(3); got != "3.00" {
		t.Fatalf("expected 3.00, got %q", got)
	}
	if got := Percent(0.185); got != "18.5%" {
		t.Fatalf("expected 18.5%%, got %q", got)
	}
}
