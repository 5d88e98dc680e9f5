// ABOUTME: Tests for offset math and the median smoothing filter
// ABOUTME: Pins the midpoint formula, convergence, and outlier damping
package estimate

import "testing"

func TestRawOffset(t *testing.T) {
	// Worked example: sent at T0=1_000_000, received at T1=1_000_100
	// (round trip 100), server stamped S=5_000_050.
	offset, rtt := RawOffset(5000050, 1000000, 1000100)

	// roundTrip is the full local round trip, halved once in the formula.
	if rtt != 100 {
		t.Errorf("expected round trip 100, got %d", rtt)
	}
	if offset != 4000000 {
		t.Errorf("expected offset 4000000, got %d", offset)
	}
}

func TestRawOffsetNegative(t *testing.T) {
	// Server behind the local clock gives a negative offset.
	offset, _ := RawOffset(500, 1000, 1200)

	want := int64(500) - 100 - 1000
	if offset != want {
		t.Errorf("expected offset %d, got %d", want, offset)
	}
}

func TestFilterFirstSamplePassesThrough(t *testing.T) {
	f := NewOffsetFilter(5)

	if got := f.Calculate(1234); got != 1234 {
		t.Errorf("expected 1234, got %d", got)
	}
}

func TestFilterConvergesOnConstantInput(t *testing.T) {
	f := NewOffsetFilter(5)

	var got int64
	for i := 0; i < 50; i++ {
		got = f.Calculate(7000)
	}

	if got != 7000 {
		t.Errorf("expected convergence to 7000, got %d", got)
	}
}

func TestFilterDampsSingleOutlier(t *testing.T) {
	f := NewOffsetFilter(5)

	for i := 0; i < 10; i++ {
		f.Calculate(1000)
	}

	// One wild sample amid a steady stream. The output must move by
	// strictly less than the outlier's deviation; the median moves not
	// at all.
	got := f.Calculate(1000000)
	if got != 1000 {
		t.Errorf("expected outlier to be fully damped, got %d", got)
	}

	// The stream recovers as the outlier ages out.
	for i := 0; i < 5; i++ {
		got = f.Calculate(1000)
	}
	if got != 1000 {
		t.Errorf("expected recovery to 1000, got %d", got)
	}
}

func TestFilterDeterministic(t *testing.T) {
	samples := []int64{10, -20, 30, 5, 5, 5, 100, 5}

	a := NewOffsetFilter(5)
	b := NewOffsetFilter(5)
	for _, s := range samples {
		if ra, rb := a.Calculate(s), b.Calculate(s); ra != rb {
			t.Fatalf("diverged on sample %d: %d vs %d", s, ra, rb)
		}
	}
}

func TestFilterPartialWindowMedian(t *testing.T) {
	f := NewOffsetFilter(5)

	f.Calculate(10)
	got := f.Calculate(30)

	// Even sample count: average of the two middle values.
	if got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
	if f.Count() != 2 {
		t.Errorf("expected count 2, got %d", f.Count())
	}
}
