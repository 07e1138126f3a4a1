// Package allowance computes the German commuter allowance
// (Entfernungspauschale) from a one-way distance or from a year's total
// business distance.
package allowance

import (
	"github.com/shopspring/decimal"
)

// Rates holds the statutory parameters of one tax year.
type Rates struct {
	// StandardRate is paid per km up to ThresholdKm, in EUR.
	StandardRate decimal.Decimal
	// ExtendedRate is paid per km beyond ThresholdKm, in EUR.
	ExtendedRate decimal.Decimal
	ThresholdKm  decimal.Decimal
	// DefaultWorkingDays is used when a caller does not supply a day count.
	DefaultWorkingDays int
}

// DefaultRates are the rates in force since the 2022 tax year.
var DefaultRates = Rates{
	StandardRate:       decimal.RequireFromString("0.30"),
	ExtendedRate:       decimal.RequireFromString("0.38"),
	ThresholdKm:        decimal.NewFromInt(20),
	DefaultWorkingDays: 230,
}

// Result is the allowance split by tier. Amounts are in EUR rounded to cents.
type Result struct {
	OneWayKm       decimal.Decimal `json:"one_way_km"`
	WorkingDays    int             `json:"working_days"`
	StandardKm     decimal.Decimal `json:"standard_km"`
	ExtendedKm     decimal.Decimal `json:"extended_km"`
	StandardAmount decimal.Decimal `json:"standard_amount"`
	ExtendedAmount decimal.Decimal `json:"extended_amount"`
	Total          decimal.Decimal `json:"total"`
}

// IsZero reports whether no allowance is due.
func (r Result) IsZero() bool { return r.Total.IsZero() }

// Calculator applies a fixed set of Rates.
type Calculator struct {
	rates Rates
}

// NewCalculator returns a Calculator for r.
func NewCalculator(r Rates) *Calculator {
	return &Calculator{rates: r}
}

// Rates returns the rates the calculator applies.
func (c *Calculator) Rates() Rates { return c.rates }

// Calculate returns the allowance for commuting oneWayKm on workingDays days.
// The first ThresholdKm are paid at StandardRate, the rest at ExtendedRate.
// A non-positive distance or day count yields a zero Result.
func (c *Calculator) Calculate(oneWayKm float64, workingDays int) Result {
	if oneWayKm <= 0 || workingDays <= 0 {
		return Result{WorkingDays: max(workingDays, 0)}
	}

	d := decimal.NewFromFloat(oneWayKm)
	days := decimal.NewFromInt(int64(workingDays))

	standardKm := decimal.Min(d, c.rates.ThresholdKm)
	extendedKm := decimal.Max(decimal.Zero, d.Sub(c.rates.ThresholdKm))

	standard := standardKm.Mul(c.rates.StandardRate).Mul(days).Round(2)
	extended := extendedKm.Mul(c.rates.ExtendedRate).Mul(days).Round(2)

	return Result{
		OneWayKm:       d,
		WorkingDays:    workingDays,
		StandardKm:     standardKm,
		ExtendedKm:     extendedKm,
		StandardAmount: standard,
		ExtendedAmount: extended,
		Total:          standard.Add(extended),
	}
}

// FromTotalDistance treats totalKm as the round-trip business distance of a
// year and derives the one-way distance per working day before delegating to
// Calculate.
func (c *Calculator) FromTotalDistance(totalKm float64, workingDays int) Result {
	if totalKm <= 0 || workingDays <= 0 {
		return Result{WorkingDays: max(workingDays, 0)}
	}
	oneWay := decimal.NewFromFloat(totalKm).
		Div(decimal.NewFromInt(2)).
		Div(decimal.NewFromInt(int64(workingDays)))
	return c.Calculate(oneWay.InexactFloat64(), workingDays)
}
