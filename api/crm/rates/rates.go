package rates

import (
	"fmt"
	"sort"
	"strings"

	"MedFieldCRM/internal/logger"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Supported is the closed set of proposal currencies.
var Supported = []Currency{TRY, USD, EUR}

func IsSupported(c Currency) bool {
	for _, s := range Supported {
		if s == c {
			return true
		}
	}
	return false
}

func Parse(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return c, IsSupported(c)
}

// RateProvider supplies the multiplier that turns one unit of `from` into
// `to`. Injectable so a live-rate source can replace the static table
// without touching calculation code.
type RateProvider interface {
	GetRate(from, to Currency) (decimal.Decimal, error)
}

// StaticProvider holds a fixed 3x3 matrix baked in at build time. Rates are
// not live-fetched; the snapshot written into proposal notes at submission
// is the only durable record of which rates applied.
type StaticProvider struct {
	matrix map[Currency]map[Currency]decimal.Decimal
}

// TRY value of one unit of each currency. The full matrix is derived from
// these anchors so cross rates stay mutually consistent.
var tryPerUnit = map[Currency]decimal.Decimal{
	TRY: decimal.NewFromInt(1),
	USD: decimal.NewFromFloat(37.92),
	EUR: decimal.NewFromFloat(41.18),
}

func NewStaticProvider() *StaticProvider {
	m := make(map[Currency]map[Currency]decimal.Decimal, len(Supported))
	for _, from := range Supported {
		m[from] = make(map[Currency]decimal.Decimal, len(Supported))
		for _, to := range Supported {
			m[from][to] = tryPerUnit[from].DivRound(tryPerUnit[to], 10)
		}
	}
	return &StaticProvider{matrix: m}
}

func (p *StaticProvider) GetRate(from, to Currency) (decimal.Decimal, error) {
	row, ok := p.matrix[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown currency %q", from)
	}
	rate, ok := row[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown currency %q", to)
	}
	return rate, nil
}

// Convert turns amount from one currency into another. Identity when the
// currencies match. When either currency is unknown or the provider fails,
// the amount is returned unchanged and a warning is logged; callers must
// treat that result as advisory, not as a correct conversion.
func Convert(p RateProvider, amount decimal.Decimal, from, to Currency) decimal.Decimal {
	if from == to {
		return amount
	}
	if from == "" || to == "" {
		logger.Warn(fmt.Sprintf("currency conversion skipped: missing currency (from=%q to=%q)", from, to))
		return amount
	}
	rate, err := p.GetRate(from, to)
	if err != nil {
		logger.Warn(fmt.Sprintf("currency conversion skipped: %v", err))
		return amount
	}
	return amount.Mul(rate)
}

// Snapshot renders the provider's current rates as a human-readable block
// for embedding in proposal notes.
func Snapshot(p RateProvider) string {
	var lines []string
	for _, from := range Supported {
		for _, to := range Supported {
			if from == to {
				continue
			}
			rate, err := p.GetRate(from, to)
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("1 %s = %s %s", from, rate.StringFixed(4), to))
		}
	}
	sort.Strings(lines)
	return "Exchange rates at submission:\n" + strings.Join(lines, "\n")
}
