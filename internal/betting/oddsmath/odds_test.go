package oddsmath

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmericanToDecimal(t *testing.T) {
	cases := []struct {
		odds string
		want string
	}{
		{"150", "2.5"},
		{"200", "3"},
		{"100", "2"},
		{"-100", "2"},
		{"-200", "1.5"},
		{"-110", "1.9090909091"},
		{"-150", "1.6666666667"},
	}
	for _, c := range cases {
		got, err := AmericanToDecimal(d(c.odds))
		if err != nil {
			t.Fatalf("AmericanToDecimal(%s): %v", c.odds, err)
		}
		if !got.Round(10).Equal(d(c.want)) {
			t.Errorf("AmericanToDecimal(%s) = %s, want %s", c.odds, got, c.want)
		}
	}
}

func TestAmericanToDecimalZero(t *testing.T) {
	if _, err := AmericanToDecimal(decimal.Zero); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
	if _, err := Payout(d("10"), decimal.Zero); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("Payout with zero odds: expected ErrInvalidOdds, got %v", err)
	}
}

func TestPayoutAndWinnings(t *testing.T) {
	cases := []struct {
		stake, odds, payout, winnings string
	}{
		{"100", "150", "250", "150"},
		{"50", "200", "150", "100"},
		{"110", "-110", "210", "100"},
		{"100", "-110", "190.91", "90.91"},
		{"25.00", "-250", "35", "10"},
	}
	for _, c := range cases {
		p, err := Payout(d(c.stake), d(c.odds))
		if err != nil {
			t.Fatal(err)
		}
		if !p.Equal(d(c.payout)) {
			t.Errorf("Payout(%s, %s) = %s, want %s", c.stake, c.odds, p, c.payout)
		}
		w, err := Winnings(d(c.stake), d(c.odds))
		if err != nil {
			t.Fatal(err)
		}
		if !w.Equal(d(c.winnings)) {
			t.Errorf("Winnings(%s, %s) = %s, want %s", c.stake, c.odds, w, c.winnings)
		}
	}
}

func TestPayoutProperties(t *testing.T) {
	stakes := []string{"0.01", "0.05", "0.10", "0.99", "1", "5.55", "10", "99.99", "1000"}
	for _, s := range stakes {
		stake := d(s)
		for o := int64(-10000); o <= 10000; o += 37 {
			if o == 0 {
				continue
			}
			odds := decimal.NewFromInt(o)
			p, err := Payout(stake, odds)
			if errors.Is(err, ErrStakeTooSmall) {
				if _, werr := Winnings(stake, odds); !errors.Is(werr, ErrStakeTooSmall) {
					t.Fatalf("Winnings(%s, %d) = %v, want ErrStakeTooSmall", s, o, werr)
				}
				continue
			}
			if err != nil {
				t.Fatal(err)
			}
			w, _ := Winnings(stake, odds)
			if !w.Equal(p.Sub(stake)) {
				t.Fatalf("winnings != payout - stake for %s @ %d", s, o)
			}
			if !p.GreaterThan(stake) {
				t.Fatalf("payout %s not above stake %s @ %d", p, s, o)
			}
		}
	}
}

func TestPayoutStakeTooSmall(t *testing.T) {
	cases := []struct {
		stake, odds string
	}{
		{"0.01", "-250"},
		{"0.01", "-201"},
		{"0.05", "-1100"},
		{"0.10", "-2500"},
	}
	for _, c := range cases {
		if p, err := Payout(d(c.stake), d(c.odds)); !errors.Is(err, ErrStakeTooSmall) {
			t.Errorf("Payout(%s, %s) = %s, %v, want ErrStakeTooSmall", c.stake, c.odds, p, err)
		}
	}

	// o menor lucro aceito é um centavo
	p, err := Payout(d("0.01"), d("-200"))
	if err != nil || !p.Equal(d("0.02")) {
		t.Errorf("Payout(0.01, -200) = %s, %v, want 0.02", p, err)
	}
}

func TestAmericanToDecimalMonotonic(t *testing.T) {
	prev, _ := AmericanToDecimal(d("100"))
	for o := int64(101); o <= 2000; o++ {
		cur, _ := AmericanToDecimal(decimal.NewFromInt(o))
		if !cur.GreaterThan(prev) {
			t.Fatalf("positive side not increasing at %d", o)
		}
		prev = cur
	}
	prev, _ = AmericanToDecimal(d("-100"))
	for o := int64(-101); o >= -2000; o-- {
		cur, _ := AmericanToDecimal(decimal.NewFromInt(o))
		if !cur.LessThan(prev) {
			t.Fatalf("negative side not monotonic at %d", o)
		}
		prev = cur
	}
}

func TestDecimalToAmerican(t *testing.T) {
	cases := []struct{ dec, want string }{
		{"2.5", "150"},
		{"2", "100"},
		{"3", "200"},
		{"1.91", "-110"},
		{"1.5", "-200"},
	}
	for _, c := range cases {
		got, err := DecimalToAmerican(d(c.dec))
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(d(c.want)) {
			t.Errorf("DecimalToAmerican(%s) = %s, want %s", c.dec, got, c.want)
		}
	}
	if _, err := DecimalToAmerican(d("1")); !errors.Is(err, ErrInvalidOdds) {
		t.Error("expected ErrInvalidOdds for 1.0")
	}
}
