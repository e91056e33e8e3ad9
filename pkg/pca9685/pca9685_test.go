package pca9685

import "testing"

func TestFraction(t *testing.T) {
	p := DefaultPulse()
	expectFraction(t, p, 0, 0)
	expectFraction(t, p, 90, 0.5)
	expectFraction(t, p, 180, 1)
	expectFraction(t, p, 210, 1)
	expectFraction(t, p, -5, 0)

	if (Pulse{}).Fraction(90) != 0 {
		t.Fatal("Zero travel should map everything to 0")
	}
}

func TestCounts(t *testing.T) {
	p := DefaultPulse()
	// 544us and 2400us of a 20ms period at 12 bits.
	if c := p.Counts(0); c != 111 {
		t.Errorf("Expected 111 counts at 0, got %d", c)
	}
	if c := p.Counts(1); c != 491 {
		t.Errorf("Expected 491 counts at 1, got %d", c)
	}
	if p.Counts(2) != p.Counts(1) || p.Counts(-1) != p.Counts(0) {
		t.Error("Counts should clamp out of range values")
	}
	if p.Counts(0.5) <= p.Counts(0) || p.Counts(0.5) >= p.Counts(1) {
		t.Errorf("Mid travel counts %d not between ends", p.Counts(0.5))
	}
}

func expectFraction(t *testing.T, p Pulse, degrees int, expected float64) {
	t.Helper()
	if f := p.Fraction(degrees); f != expected {
		t.Errorf("Fraction(%d) = %f, expected %f", degrees, f, expected)
	}
}
