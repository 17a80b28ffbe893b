// Package reserve implements the minimum-payment reservation calculator. It
// determines how much of current cash must be protected from extra-payment
// allocation so that every upcoming minimum payment can be made on its due
// date, given the timing of expected income.
package reserve

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bfinch/debt-optimizer/internal/model"
)

// Result is the output of Compute. Total always equals the sum of the
// PerObligation values.
type Result struct {
	Total         decimal.Decimal
	PerObligation map[string]decimal.Decimal
}

// Compute calculates the portion of current cash that must be reserved for
// the given obligations. Income is treated as a consumable resource
// allocated to obligations in due-date order; income arriving on the exact
// due date counts as available, income arriving strictly after a due date
// can never cover it. Each income dollar covers at most one obligation.
//
// cashOnHand is the pool the reservation protects; it does not enter the
// shortfall arithmetic, and Total may exceed it. Feasibility is the
// caller's check.
func Compute(referenceDate time.Time, cashOnHand decimal.Decimal, incomes []model.CashEvent, obligations []model.Obligation) (Result, error) {
	_ = cashOnHand

	for _, income := range incomes {
		if income.Amount.IsNegative() {
			return Result{}, fmt.Errorf("income on %s has negative amount %s",
				income.Date.Format("2006-01-02"), income.Amount)
		}
		if income.Date.Before(referenceDate) {
			return Result{}, fmt.Errorf("income on %s predates reference date %s",
				income.Date.Format("2006-01-02"), referenceDate.Format("2006-01-02"))
		}
	}
	for _, obligation := range obligations {
		if obligation.MinAmount.IsNegative() {
			return Result{}, fmt.Errorf("obligation %s has negative minimum %s",
				obligation.DebtName, obligation.MinAmount)
		}
		if obligation.DueDate.Before(referenceDate) {
			return Result{}, fmt.Errorf("obligation %s due %s predates reference date %s",
				obligation.DebtName, obligation.DueDate.Format("2006-01-02"),
				referenceDate.Format("2006-01-02"))
		}
	}

	// Ties on due date keep input order.
	ordered := make([]model.Obligation, len(obligations))
	copy(ordered, obligations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DueDate.Before(ordered[j].DueDate)
	})

	result := Result{
		Total:         decimal.Zero,
		PerObligation: make(map[string]decimal.Decimal, len(ordered)),
	}

	incomeConsumed := decimal.Zero
	for _, obligation := range ordered {
		available := decimal.Zero
		for _, income := range incomes {
			if !income.Date.After(obligation.DueDate) {
				available = available.Add(income.Amount)
			}
		}
		available = available.Sub(incomeConsumed)
		if available.IsNegative() {
			available = decimal.Zero
		}

		covered := decimal.Min(obligation.MinAmount, available)
		reserved := obligation.MinAmount.Sub(covered)
		incomeConsumed = incomeConsumed.Add(covered)

		if existing, ok := result.PerObligation[obligation.DebtName]; ok {
			result.PerObligation[obligation.DebtName] = existing.Add(reserved)
		} else {
			result.PerObligation[obligation.DebtName] = reserved
		}
		result.Total = result.Total.Add(reserved)
	}

	return result, nil
}
