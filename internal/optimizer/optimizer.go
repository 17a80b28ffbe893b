// Package optimizer drives the simulator once per requested goal and runs
// the side-by-side strategy comparison.
package optimizer

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bfinch/debt-optimizer/internal/engine"
	"github.com/bfinch/debt-optimizer/internal/model"
	"github.com/bfinch/debt-optimizer/internal/strategy"
)

// Goal selects the policy and termination preference for one optimizer run.
type Goal string

const (
	GoalMinimizeInterest Goal = "minimize_interest"
	GoalMinimizeTime     Goal = "minimize_time"
	GoalMaximizeCashflow Goal = "maximize_cashflow"
)

// ParseGoal validates a goal string from external input.
func ParseGoal(value string) (Goal, error) {
	switch Goal(value) {
	case GoalMinimizeInterest, GoalMinimizeTime, GoalMaximizeCashflow:
		return Goal(value), nil
	}
	return "", fmt.Errorf("unknown optimization goal %q", value)
}

// Optimizer maps goals onto simulator runs.
type Optimizer struct {
	logger    *zap.Logger
	simulator *engine.Simulator
}

// New constructs an Optimizer. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{logger: logger, simulator: engine.New(logger)}
}

// Optimize runs the simulation for the given goal.
//
// MinimizeInterest uses avalanche, MaximizeCashflow uses snowball (freeing
// minimum-payment cash fastest), and MinimizeTime runs every policy and
// keeps the one reaching zero balances in the fewest periods, ties broken by
// lowest total interest.
func (o *Optimizer) Optimize(inputs engine.Inputs, goal Goal, extraPayment decimal.Decimal) (*engine.Result, error) {
	switch goal {
	case GoalMinimizeInterest:
		return o.run(inputs, strategy.Avalanche{}, extraPayment)
	case GoalMaximizeCashflow:
		return o.run(inputs, strategy.Snowball{}, extraPayment)
	case GoalMinimizeTime:
		var best *engine.Result
		for _, policy := range strategy.All() {
			result, err := o.run(inputs, policy, extraPayment)
			if err != nil {
				return nil, err
			}
			if best == nil || betterTime(result, best) {
				best = result
			}
		}
		return best, nil
	}
	return nil, fmt.Errorf("unknown optimization goal %q", goal)
}

// RunStrategy runs the simulation under an explicitly named policy,
// bypassing goal mapping. This backs the `strategy` settings key.
func (o *Optimizer) RunStrategy(inputs engine.Inputs, name string, extraPayment decimal.Decimal) (*engine.Result, error) {
	policy, err := strategy.ForName(name)
	if err != nil {
		return nil, err
	}
	return o.run(inputs, policy, extraPayment)
}

func (o *Optimizer) run(inputs engine.Inputs, policy strategy.Policy, extraPayment decimal.Decimal) (*engine.Result, error) {
	result, err := o.simulator.Simulate(inputs, policy, extraPayment)
	if err != nil {
		return nil, err
	}
	o.logger.Info("optimization run complete",
		zap.String("op", "optimizer.run"),
		zap.String("strategy", result.Strategy),
		zap.Int("months", result.TotalMonths),
		zap.String("totalInterest", result.TotalInterest.StringFixed(2)),
		zap.Bool("converged", result.Converged),
	)
	return result, nil
}

func betterTime(candidate, current *engine.Result) bool {
	if candidate.Converged != current.Converged {
		return candidate.Converged
	}
	if candidate.TotalMonths != current.TotalMonths {
		return candidate.TotalMonths < current.TotalMonths
	}
	return candidate.TotalInterest.LessThan(current.TotalInterest)
}

// ComparisonRow is one line of the comparator output.
type ComparisonRow struct {
	Strategy        string
	TotalInterest   decimal.Decimal
	MonthsToFreedom int
	TotalCost       decimal.Decimal
	Converged       bool
	Note            string
}

// Compare runs the simulator once per policy from identical starting state.
// A policy whose run fails contributes a row carrying the failure note so
// the remaining policies still report.
func (o *Optimizer) Compare(inputs engine.Inputs, extraPayment decimal.Decimal) []ComparisonRow {
	policies := strategy.All()
	rows := make([]ComparisonRow, 0, len(policies))
	for _, policy := range policies {
		result, err := o.simulator.Simulate(inputs, policy, extraPayment)
		if err != nil {
			o.logger.Warn("comparison run failed",
				zap.String("op", "optimizer.Compare"),
				zap.String("strategy", policy.Name()),
				zap.Error(err),
			)
			rows = append(rows, ComparisonRow{Strategy: policy.Name(), Note: err.Error()})
			continue
		}
		row := ComparisonRow{
			Strategy:        result.Strategy,
			TotalInterest:   result.TotalInterest,
			MonthsToFreedom: result.TotalMonths,
			TotalCost:       result.TotalCost,
			Converged:       result.Converged,
		}
		if !result.Converged {
			row.Note = "did not reach zero balances within the period ceiling"
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary holds point-in-time aggregate statistics over the debts. No
// simulation is involved.
type Summary struct {
	TotalDebt           decimal.Decimal
	TotalMinimumPayment decimal.Decimal
	WeightedAverageRate decimal.Decimal
	DebtCount           int
}

// Summarize computes the aggregates in a single pass. The weighted average
// rate is balance-weighted; an all-zero portfolio reports a zero rate.
func Summarize(debts []model.Debt) Summary {
	summary := Summary{
		TotalDebt:           decimal.Zero,
		TotalMinimumPayment: decimal.Zero,
		WeightedAverageRate: decimal.Zero,
	}

	weighted := decimal.Zero
	for _, d := range debts {
		summary.TotalDebt = summary.TotalDebt.Add(d.Balance)
		summary.TotalMinimumPayment = summary.TotalMinimumPayment.Add(d.MinPayment)
		weighted = weighted.Add(d.Balance.Mul(d.AnnualRate))
		summary.DebtCount++
	}
	if summary.TotalDebt.IsPositive() {
		summary.WeightedAverageRate = weighted.Div(summary.TotalDebt)
	}
	return summary
}
