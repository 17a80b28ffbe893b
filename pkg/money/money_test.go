package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"-1.005", "-1.01"},
		{"0.416666", "0.42"},
		{"100", "100.00"},
	}
	for _, tt := range tests {
		if got := Round(MustParse(tt.in)).StringFixed(2); got != tt.want {
			t.Errorf("Round(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFromFloat(t *testing.T) {
	if got := FromFloat(24.99).StringFixed(2); got != "24.99" {
		t.Errorf("FromFloat(24.99) = %s", got)
	}
	if got := FromFloat(0.1 + 0.2).StringFixed(2); got != "0.30" {
		t.Errorf("FromFloat(0.1+0.2) = %s", got)
	}
}

func TestMinMax(t *testing.T) {
	a, b := MustParse("1.50"), MustParse("2.25")
	if !Min(a, b).Equal(a) {
		t.Error("Min picked the larger amount")
	}
	if !Max(a, b).Equal(b) {
		t.Error("Max picked the smaller amount")
	}
	if !Min(a, a).Equal(a) || !Max(a, a).Equal(a) {
		t.Error("equal amounts mishandled")
	}
}

func TestMonthlyRate(t *testing.T) {
	rate := MonthlyRate(MustParse("0.24"))
	if got := rate.StringFixed(4); got != "0.0200" {
		t.Errorf("MonthlyRate(0.24) = %s, want 0.0200", got)
	}
	if !MonthlyRate(decimal.Zero).IsZero() {
		t.Error("MonthlyRate(0) must be zero")
	}
}

func TestMustParsePanicsOnGarbage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParse("not money")
}
