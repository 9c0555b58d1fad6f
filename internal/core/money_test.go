package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"99999999999999", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		123456:    "$1,234.56",
		100000000: "$1,000,000.00",
		-2500:     "-$25.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).Format(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.345,"b":"7,5","c":-3}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != 1235 || v.B.Cents != 750 || v.C.Cents != -300 {
		t.Fatalf("unexpected cents %+v", v)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":12.35,"b":7.50,"c":-3.00}` {
		t.Fatalf("unexpected json %s", out)
	}
	if err := json.Unmarshal([]byte(`{"a":"ten"}`), &v); err == nil {
		t.Fatal("expected error for non numeric amount")
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        float64
	}{
		{0, 0, 0},
		{50, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 8, 12.5},
		{150, 100, 150},
		{1, 2000, 0.1}, // 0.05 rounds half-up
	}
	for _, tc := range cases {
		if got := Percent(Money{Cents: tc.part}, Money{Cents: tc.whole}); got != tc.want {
			t.Fatalf("Percent(%d,%d) = %v, want %v", tc.part, tc.whole, got, tc.want)
		}
	}
}
