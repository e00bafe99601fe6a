package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"1.004", "1.00", true},
		{" 2.50 ", "2.50", true},
		{"-1.255", "-1.26", true},
		{"0", "0.00", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFromFloatRoundsHalfUp(t *testing.T) {
	if got := MoneyFromFloat(50.005).String(); got != "50.01" {
		t.Fatalf("50.005 rounded to %s, want 50.01", got)
	}
	if got := MoneyFromFloat(100).String(); got != "100.00" {
		t.Fatalf("100 rendered as %s", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MoneyFromCents(10050)
	b := MoneyFromFloat(0.1)
	if got := a.Add(b).String(); got != "100.60" {
		t.Fatalf("add = %s", got)
	}
	if got := b.Sub(a).String(); got != "-100.40" {
		t.Fatalf("sub = %s", got)
	}
	if !a.Neg().IsNegative() {
		t.Fatalf("neg should be negative")
	}
	if a.Cents() != 10050 {
		t.Fatalf("cents = %d", a.Cents())
	}
	if a.Cmp(b) <= 0 || b.Cmp(a) >= 0 {
		t.Fatalf("unexpected ordering")
	}
}

func TestMoneyZeroValue(t *testing.T) {
	var m Money
	if !m.IsZero() || m.String() != "0.00" {
		t.Fatalf("zero value = %s", m)
	}
	if !m.Equal(MoneyFromCents(0)) {
		t.Fatalf("zero value should equal 0 cents")
	}
}

func TestMoneyEqualityIsOnRoundedValue(t *testing.T) {
	a, _ := ParseMoney("3.333")
	b, _ := ParseMoney("3.33")
	if !a.Equal(b) {
		t.Fatalf("%s should equal %s", a, b)
	}
}
