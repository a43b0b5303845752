package lamports

import (
	"errors"
	"testing"
)

func TestToDisplay(t *testing.T) {
	cases := []struct {
		raw  uint64
		want string
	}{
		{0, "0"},
		{1, "0.000000001"},
		{500_000_000, "0.5"},
		{1_000_000_000, "1"},
		{10_000_000_000, "10"},
		{1_234_567_890, "1.23456789"},
		{123_450_000_000, "123.45"},
	}
	for _, c := range cases {
		if got := ToDisplay(c.raw, SolDecimals); got != c.want {
			t.Errorf("ToDisplay(%d) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestToRaw(t *testing.T) {
	cases := []struct {
		display string
		want    uint64
	}{
		{"0", 0},
		{"1", 1_000_000_000},
		{"0.5", 500_000_000},
		{"10", 10_000_000_000},
		{"1.23456789", 1_234_567_890},
		{".25", 250_000_000},
		{"2.", 2_000_000_000},
		// Digits past the ninth place are truncated, never rounded up.
		{"0.0000000019", 1},
	}
	for _, c := range cases {
		got, err := ToRaw(c.display, SolDecimals)
		if err != nil {
			t.Fatalf("ToRaw(%q): %v", c.display, err)
		}
		if got != c.want {
			t.Errorf("ToRaw(%q) = %d, want %d", c.display, got, c.want)
		}
	}
}

func TestToRawRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3", "1,5", "1e9", "."} {
		if _, err := ToRaw(s, SolDecimals); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("ToRaw(%q): expected ErrNotNumeric, got %v", s, err)
		}
	}
	if _, err := ToRaw("-1", SolDecimals); !errors.Is(err, ErrNegative) {
		t.Errorf("ToRaw(-1): expected ErrNegative, got %v", err)
	}
	if _, err := ToRaw("99999999999999999999999", SolDecimals); err == nil {
		t.Error("expected overflow error")
	}
}

// Round-trip exactness: ToRaw(ToDisplay(x)) == x for raw quantities.
func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 9, 999_999_999, 1_000_000_000, 1_000_000_001,
		123_456_789_012, 18_446_744_073_709_551_615 / 2}
	for _, x := range values {
		got, err := ToRaw(ToDisplay(x, SolDecimals), SolDecimals)
		if err != nil {
			t.Fatalf("round-trip %d: %v", x, err)
		}
		if got != x {
			t.Errorf("round-trip %d -> %q -> %d", x, ToDisplay(x, SolDecimals), got)
		}
	}
}

func TestEstimateYield(t *testing.T) {
	// 10 SOL deposited at 0.05 yield per lamport (scaled 1e9) -> 0.5 SOL.
	got := EstimateYield(10_000_000_000, 50_000_000)
	if got != 500_000_000 {
		t.Fatalf("EstimateYield = %d, want 500000000", got)
	}
	if ToDisplay(got, SolDecimals) != "0.5" {
		t.Fatalf("display = %q, want 0.5", ToDisplay(got, SolDecimals))
	}
}

func TestEstimateYieldTruncates(t *testing.T) {
	// 3 lamports at 1/3 rate: floor(3 * 333333333 / 1e9) = 0.
	if got := EstimateYield(3, 333_333_333); got != 0 {
		t.Fatalf("expected floor to 0, got %d", got)
	}
	// One unit below the exact boundary stays below it.
	if got := EstimateYield(2_999_999_999, 333_333_333); got != 999_999_998 {
		t.Fatalf("got %d", got)
	}
}

// The product path must be exact for deposits beyond the 53-bit float range.
func TestEstimateYieldLargeDeposit(t *testing.T) {
	deposited := uint64(1) << 60
	rate := uint64(123_456_789)
	got := EstimateYield(deposited, rate)
	// Cross-check with the overflow-free decomposition
	// floor(d*y/p) = (d/p)*y + floor((d%p)*y/p).
	q, r := deposited/YieldPrecision, deposited%YieldPrecision
	want := q*rate + r*rate/YieldPrecision
	if got != want {
		t.Fatalf("EstimateYield(2^60) = %d, want %d", got, want)
	}
}

func TestEstimateYieldMonotonic(t *testing.T) {
	deps := []uint64{0, 1, 1_000, 1_000_000_000, 7_777_777_777}
	rates := []uint64{0, 1, 50_000_000, 999_999_999, 1_500_000_000}
	for _, r := range rates {
		var prev uint64
		for i, d := range deps {
			got := EstimateYield(d, r)
			if i > 0 && got < prev {
				t.Fatalf("not monotonic in deposit: d=%d r=%d got=%d prev=%d", d, r, got, prev)
			}
			prev = got
		}
	}
	for _, d := range deps {
		var prev uint64
		for i, r := range rates {
			got := EstimateYield(d, r)
			if i > 0 && got < prev {
				t.Fatalf("not monotonic in rate: d=%d r=%d got=%d prev=%d", d, r, got, prev)
			}
			prev = got
		}
	}
}
