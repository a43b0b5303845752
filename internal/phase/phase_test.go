package phase

import "testing"

func TestFromVariant(t *testing.T) {
	cases := []struct {
		idx  uint8
		want Phase
	}{
		{0, Deposit},
		{1, Investing},
		{2, Claiming},
		{3, Unknown},
		{255, Unknown},
	}
	for _, c := range cases {
		if got := FromVariant(c.idx); got != c.want {
			t.Errorf("FromVariant(%d) = %v, want %v", c.idx, got, c.want)
		}
	}
}

func TestFromTag(t *testing.T) {
	cases := []struct {
		tag  string
		want Phase
	}{
		{"deposit", Deposit},
		{"investing", Investing},
		{"claiming", Claiming},
		{"Deposit", Deposit},
		{" claiming ", Claiming},
		{"", Unknown},
		{"withdraw", Unknown},
	}
	for _, c := range cases {
		if got := FromTag(c.tag); got != c.want {
			t.Errorf("FromTag(%q) = %v, want %v", c.tag, got, c.want)
		}
	}
}

func TestFromTaggedObject(t *testing.T) {
	if got := FromTaggedObject(map[string]any{"investing": map[string]any{}}); got != Investing {
		t.Errorf("single-key object: got %v, want Investing", got)
	}
	if got := FromTaggedObject(nil); got != Unknown {
		t.Errorf("nil object: got %v, want Unknown", got)
	}
	if got := FromTaggedObject(map[string]any{}); got != Unknown {
		t.Errorf("empty object: got %v, want Unknown", got)
	}
	multi := map[string]any{"deposit": struct{}{}, "claiming": struct{}{}}
	if got := FromTaggedObject(multi); got != Unknown {
		t.Errorf("multi-key object: got %v, want Unknown", got)
	}
}

func TestStringAndKnown(t *testing.T) {
	if Unknown.Known() {
		t.Error("Unknown must not be a known phase")
	}
	for _, p := range []Phase{Deposit, Investing, Claiming} {
		if !p.Known() {
			t.Errorf("%v should be known", p)
		}
	}
	if Claiming.String() != "claiming" {
		t.Errorf("String() = %q", Claiming.String())
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("out-of-range String() = %q", Phase(99).String())
	}
}
