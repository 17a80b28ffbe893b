// Package strategy provides the pluggable ordering rules the simulator
// consults when deciding where surplus cash goes.
package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bfinch/debt-optimizer/pkg/constants"
)

// DebtState is the snapshot of one debt a policy ranks on. Policies are pure
// functions of these values so repeated runs are deterministic.
type DebtState struct {
	Name       string
	Balance    decimal.Decimal
	AnnualRate decimal.Decimal
}

// Policy orders debts by payoff priority, highest priority first.
type Policy interface {
	Name() string
	Rank(debts []DebtState) []string
}

// Avalanche pays the highest annual rate first; ties broken by larger
// balance.
type Avalanche struct{}

func (Avalanche) Name() string { return "avalanche" }

func (Avalanche) Rank(debts []DebtState) []string {
	ordered := snapshot(debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].AnnualRate.Equal(ordered[j].AnnualRate) {
			return ordered[i].Balance.GreaterThan(ordered[j].Balance)
		}
		return ordered[i].AnnualRate.GreaterThan(ordered[j].AnnualRate)
	})
	return names(ordered)
}

// Snowball pays the smallest balance first; ties broken by higher rate.
type Snowball struct{}

func (Snowball) Name() string { return "snowball" }

func (Snowball) Rank(debts []DebtState) []string {
	ordered := snapshot(debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Balance.Equal(ordered[j].Balance) {
			return ordered[i].AnnualRate.GreaterThan(ordered[j].AnnualRate)
		}
		return ordered[i].Balance.LessThan(ordered[j].Balance)
	})
	return names(ordered)
}

// Hybrid blends the rate and balance signals into a single score using the
// fixed weights in pkg/constants.
type Hybrid struct{}

func (Hybrid) Name() string { return "hybrid" }

func (Hybrid) Rank(debts []DebtState) []string {
	if len(debts) == 0 {
		return nil
	}

	minRate, maxRate := debts[0].AnnualRate, debts[0].AnnualRate
	minBalance, maxBalance := debts[0].Balance, debts[0].Balance
	for _, d := range debts[1:] {
		minRate = decimal.Min(minRate, d.AnnualRate)
		maxRate = decimal.Max(maxRate, d.AnnualRate)
		minBalance = decimal.Min(minBalance, d.Balance)
		maxBalance = decimal.Max(maxBalance, d.Balance)
	}

	rateSpan := maxRate.Sub(minRate)
	balanceSpan := maxBalance.Sub(minBalance)

	scores := make(map[string]float64, len(debts))
	for _, d := range debts {
		rateScore := 0.0
		if rateSpan.IsPositive() {
			rateScore, _ = d.AnnualRate.Sub(minRate).Div(rateSpan).Float64()
		}
		balanceScore := 0.0
		if balanceSpan.IsPositive() {
			normalized, _ := d.Balance.Sub(minBalance).Div(balanceSpan).Float64()
			balanceScore = 1 - normalized
		}
		scores[d.Name] = constants.HybridRateWeight*rateScore +
			constants.HybridBalanceWeight*balanceScore
	}

	ordered := snapshot(debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i].Name] > scores[ordered[j].Name]
	})
	return names(ordered)
}

// All returns one instance of every policy in comparison order.
func All() []Policy {
	return []Policy{Avalanche{}, Snowball{}, Hybrid{}}
}

// ForName resolves a policy by its label.
func ForName(name string) (Policy, error) {
	for _, policy := range All() {
		if policy.Name() == name {
			return policy, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

func snapshot(debts []DebtState) []DebtState {
	ordered := make([]DebtState, len(debts))
	copy(ordered, debts)
	return ordered
}

func names(debts []DebtState) []string {
	out := make([]string, len(debts))
	for i, d := range debts {
		out[i] = d.Name
	}
	return out
}
