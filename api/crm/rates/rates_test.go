package rates

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

type failingProvider struct{}

func (failingProvider) GetRate(from, to Currency) (decimal.Decimal, error) {
	return decimal.Decimal{}, errors.New("rate source down")
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Currency
		ok   bool
	}{
		{"usd", USD, true},
		{" TRY ", TRY, true},
		{"eur", EUR, true},
		{"GBP", Currency("GBP"), false},
		{"", Currency(""), false},
	}
	for _, c := range cases {
		got, ok := Parse(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("Parse(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestConvertIdentity(t *testing.T) {
	p := NewStaticProvider()
	amount := decimal.RequireFromString("123.45")
	got := Convert(p, amount, USD, USD)
	if !got.Equal(amount) {
		t.Errorf("identity conversion changed the amount: %s", got)
	}
}

func TestConvertUSDToTRY(t *testing.T) {
	p := NewStaticProvider()
	// 2 implants at 100 USD each
	got := Convert(p, decimal.NewFromInt(200), USD, TRY)
	want := decimal.RequireFromString("7584")
	if !got.Equal(want) {
		t.Errorf("200 USD = %s TRY, want %s", got, want)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	p := NewStaticProvider()
	start := decimal.NewFromInt(1000)
	there := Convert(p, start, TRY, USD)
	back := Convert(p, there, USD, TRY)
	diff := back.Sub(start).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.01")) {
		t.Errorf("round trip drifted by %s (got %s)", diff, back)
	}
}

func TestConvertFailOpen(t *testing.T) {
	amount := decimal.RequireFromString("42.50")
	got := Convert(failingProvider{}, amount, USD, TRY)
	if !got.Equal(amount) {
		t.Errorf("failed conversion must return the amount unchanged, got %s", got)
	}
}

func TestConvertMissingCurrency(t *testing.T) {
	p := NewStaticProvider()
	amount := decimal.NewFromInt(10)
	if got := Convert(p, amount, "", TRY); !got.Equal(amount) {
		t.Errorf("missing from-currency must fail open, got %s", got)
	}
}

func TestCrossRatesConsistent(t *testing.T) {
	p := NewStaticProvider()
	usdToEur, err := p.GetRate(USD, EUR)
	if err != nil {
		t.Fatal(err)
	}
	usdToTry, _ := p.GetRate(USD, TRY)
	tryToEur, _ := p.GetRate(TRY, EUR)
	viaTry := usdToTry.Mul(tryToEur)
	diff := usdToEur.Sub(viaTry).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.0001")) {
		t.Errorf("USD->EUR direct %s vs via TRY %s differ by %s", usdToEur, viaTry, diff)
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(NewStaticProvider())
	if !strings.HasPrefix(s, "Exchange rates at submission:") {
		t.Errorf("snapshot missing header: %q", s)
	}
	if !strings.Contains(s, "1 USD = 37.9200 TRY") {
		t.Errorf("snapshot missing USD rate: %q", s)
	}
	if !strings.Contains(s, "1 EUR = 41.1800 TRY") {
		t.Errorf("snapshot missing EUR rate: %q", s)
	}
	if strings.Contains(s, "1 TRY = 1.0000 TRY") {
		t.Errorf("snapshot must not list identity rates: %q", s)
	}
}
