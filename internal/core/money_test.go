package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
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
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}{A: Cents(123456), B: Cents(-130000)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":1234.56,"b":-1300.00}` {
		t.Fatalf("unexpected json %s", b)
	}

	cases := []struct {
		in   string
		want int64
	}{
		{`12.5`, 1250},
		{`"12.50"`, 1250},
		{`1000`, 100000},
		{`null`, 0},
	}
	for _, tc := range cases {
		var m Money
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if m.Cents != tc.want {
			t.Fatalf("%s: expected %d cents, got %d", tc.in, tc.want, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non numeric amount")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	got := Cents(100000).Sub(Cents(30000)).Sub(Cents(200000))
	if got.Cents != -130000 {
		t.Fatalf("expected -130000, got %d", got.Cents)
	}
	if got.String() != "-1300.00" {
		t.Fatalf("unexpected string %q", got.String())
	}
	if err := got.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative money should fail validation, got %v", err)
	}
}
