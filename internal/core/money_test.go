package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseLocaleAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1.500,00", "1500", true},
		{"1.234,56", "1234.56", true},
		{"1234,56", "1234.56", true},
		{"12", "12", true},
		{"0,5", "0.5", true},
		{",75", "0.75", true},
		{" R$ 10,50 ", "10.5", true},
		{"1.000.000,01", "1000000.01", true},
		{"-3,20", "-3.2", true},
		{"", "", false},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"1,2a", "", false},
		{"1.2.3", "", false},
		{"12.34", "", false},
		{"1.2345", "", false},
		{".500", "", false},
		{"1234.567", "", false},
		{"1.", "", false},
		{"-", "", false},
		{"R$", "", false},
		{",", "", false},
		{"-,", "", false},
		{"10,", "", false},
		{"-,5", "-0.5", true},
		{"123.456", "123456", true},
	}
	for _, tc := range cases {
		got, err := ParseLocaleAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatLocaleAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "0,00",
		"5":          "5,00",
		"999.9":      "999,90",
		"1500":       "1.500,00",
		"1234.567":   "1.234,57",
		"1000000.01": "1.000.000,01",
		"-42.1":      "-42,10",
	}
	for in, want := range cases {
		if got := FormatLocaleAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatLocaleAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, total, want string
	}{
		{"250", "1000", "25.00"},
		{"0", "1000", "0.00"},
		{"1", "3", "33.33"},
		{"2", "3", "66.67"},
		{"1500", "1000", "150.00"},
	}
	for _, tc := range cases {
		p := Percent(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.total))
		if got := FormatPercent(p); got != tc.want {
			t.Fatalf("Percent(%s, %s) = %s, want %s", tc.part, tc.total, got, tc.want)
		}
	}
}
