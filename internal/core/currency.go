package core

import (
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	CNY Currency = "CNY" // reference currency, rate 1.0
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	HKD Currency = "HKD"
	JPY Currency = "JPY"
)

type Currency string

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// rates maps each supported currency to its scalar rate relative to the
// reference currency. The table is static: converting an amount denominated
// in `from` into `to` scales by rate(to)/rate(from).
var rates = map[Currency]decimal.Decimal{
	CNY: decimal.NewFromInt(1),
	USD: decimal.RequireFromString("7.2"),
	EUR: decimal.RequireFromString("7.8"),
	GBP: decimal.RequireFromString("9.1"),
	HKD: decimal.RequireFromString("0.92"),
	JPY: decimal.RequireFromString("0.048"),
}

func (c Currency) Validate() error {
	if _, ok := rates[c]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(c))
	}
	return nil
}

// SupportedCurrencies returns the currency codes the rate table covers.
func SupportedCurrencies() []Currency {
	return []Currency{CNY, USD, EUR, GBP, HKD, JPY}
}

// Convert normalizes an amount denominated in `from` into `to` using the
// fixed rate table: amount * rate(to) / rate(from). An unknown currency on
// either side is a configuration error.
func Convert(amount decimal.Decimal, from, to Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(from))
	}
	toRate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(to))
	}
	return amount.Mul(toRate).Div(fromRate), nil
}

// Format renders an amount as a display string with the currency's symbol
// and fraction rules ("¥1,013.89"). Falls back to a plain fixed-point
// rendering for codes the formatting library does not know.
func Format(amount decimal.Decimal, currency Currency) string {
	cur := money.GetCurrency(string(currency))
	if cur == nil {
		return amount.StringFixed(2) + " " + string(currency)
	}
	units := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(units, string(currency)).Display()
}
