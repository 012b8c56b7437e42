package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"5000", 500000, true},
		{"0", 0, true}, // zero unit cost is legitimate
		{".5", 50, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseDecimalToCents(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{500000, "5000"},
		{1234, "12.34"},
		{-1234, "-12.34"},
		{5, "0.05"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: 1234}
	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12.34" {
		t.Fatalf("marshal = %s", data)
	}
	var back Money
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if back.Cents != 1234 {
		t.Fatalf("round trip = %d", back.Cents)
	}
}

func TestMargin(t *testing.T) {
	if got := Margin(Money{Cents: 8000}, Money{Cents: 20000}); got != 40 {
		t.Fatalf("margin = %v, want 40", got)
	}
	if got := Margin(Money{Cents: 100}, Money{}); got != 0 {
		t.Fatalf("zero revenue margin = %v, want 0", got)
	}
}
