package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/fahrtenbuch/internal/allowance"
)

// AllowanceService applies the allowance calculator to recorded trips.
type AllowanceService struct {
	Deps
	calc *allowance.Calculator
}

// NewAllowanceService constructs an AllowanceService.
func NewAllowanceService(d Deps, calc *allowance.Calculator) *AllowanceService {
	return &AllowanceService{Deps: d, calc: calc}
}

func (s *AllowanceService) days(workingDays int) int {
	if workingDays <= 0 {
		return s.calc.Rates().DefaultWorkingDays
	}
	return workingDays
}

// ForYear computes the allowance from the business distance of the completed
// trips dated in year. workingDays <= 0 uses the rates' default.
func (s *AllowanceService) ForYear(ctx context.Context, year, workingDays int) (allowance.Result, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	km, err := s.Trips.BusinessDistance(ctx, from, from.AddDate(1, 0, 0))
	if err != nil {
		return allowance.Result{}, fmt.Errorf("service.AllowanceService.ForYear: %w", err)
	}
	return s.calc.FromTotalDistance(km, s.days(workingDays)), nil
}

// ForCommute computes the allowance of a fixed one-way commute.
// workingDays <= 0 uses the rates' default.
func (s *AllowanceService) ForCommute(oneWayKm float64, workingDays int) allowance.Result {
	return s.calc.Calculate(oneWayKm, s.days(workingDays))
}
