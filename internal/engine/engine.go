// Package engine implements the month-by-month cash-flow simulator. Each
// simulated period applies interest accrual, the reservation guard, minimum
// payments, and a policy-selected extra-payment allocation, emitting one
// schedule row per debt touched.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bfinch/debt-optimizer/internal/model"
	"github.com/bfinch/debt-optimizer/internal/reserve"
	"github.com/bfinch/debt-optimizer/internal/strategy"
	"github.com/bfinch/debt-optimizer/pkg/constants"
	"github.com/bfinch/debt-optimizer/pkg/datetime"
	"github.com/bfinch/debt-optimizer/pkg/money"
)

// ScheduleEntry is one row of the amortization output. Entries are appended,
// never mutated, for the lifetime of one Result.
type ScheduleEntry struct {
	Period           int
	DebtName         string
	BalanceBefore    decimal.Decimal
	BalanceAfter     decimal.Decimal
	TotalPayment     decimal.Decimal
	InterestCharge   decimal.Decimal
	PrincipalPayment decimal.Decimal
}

// Result is the output of one simulation run. The schedule is ordered by
// period ascending, then by debt input order within a period.
type Result struct {
	Strategy      string
	Schedule      []ScheduleEntry
	TotalInterest decimal.Decimal
	TotalMonths   int
	TotalCost     decimal.Decimal

	// Converged is false when the period ceiling was reached with nonzero
	// balances. That is a legitimate planning outcome, not an error.
	Converged      bool
	FinalBalances  map[string]decimal.Decimal
	MonthlyMinimum decimal.Decimal
}

// InfeasiblePeriodError reports a period whose minimum payments exceed all
// cash available in that period. The simulator does not guess a partial
// payment.
type InfeasiblePeriodError struct {
	Period    int
	Shortfall decimal.Decimal
}

func (e *InfeasiblePeriodError) Error() string {
	return fmt.Sprintf("period %d: minimum payments exceed available cash by %s",
		e.Period, e.Shortfall.StringFixed(2))
}

// Inputs is the fully materialized snapshot a simulation runs on. The engine
// never mutates it; every run copies the balances it needs.
type Inputs struct {
	Debts    []model.Debt
	Incomes  []model.Income
	Expenses []model.RecurringExpense

	// FutureIncome and FutureExpenses are date-keyed overrides realized
	// verbatim when the simulation advances into their period.
	FutureIncome   []model.CashEvent
	FutureExpenses []model.CashEvent

	// StartDate is the explicit "today"; simulated time is threaded from it,
	// never read from a process-wide clock.
	StartDate    time.Time
	StartingCash decimal.Decimal
	MaxPeriods   int
}

// Simulator runs deterministic single-threaded simulations. Distinct runs
// share no mutable state and may execute concurrently.
type Simulator struct {
	logger *zap.Logger
}

// New creates a Simulator. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger}
}

type debtRuntime struct {
	model.Debt
	balance decimal.Decimal
}

// Simulate produces a full amortization schedule under the given policy.
func (s *Simulator) Simulate(inputs Inputs, policy strategy.Policy, extraPayment decimal.Decimal) (*Result, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy cannot be nil")
	}
	if extraPayment.IsNegative() {
		return nil, fmt.Errorf("extra payment cannot be negative")
	}
	if inputs.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}
	maxPeriods := inputs.MaxPeriods
	if maxPeriods <= 0 {
		maxPeriods = constants.DefaultMaxPeriods
	}

	debts := make([]*debtRuntime, 0, len(inputs.Debts))
	seen := make(map[string]bool, len(inputs.Debts))
	monthlyMinimum := decimal.Zero
	for _, d := range inputs.Debts {
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate debt name %q", d.Name)
		}
		seen[d.Name] = true
		debts = append(debts, &debtRuntime{Debt: d, balance: money.Round(d.Balance)})
		monthlyMinimum = monthlyMinimum.Add(d.MinPayment)
	}

	result := &Result{
		Strategy:       policy.Name(),
		TotalInterest:  decimal.Zero,
		TotalCost:      decimal.Zero,
		MonthlyMinimum: monthlyMinimum,
	}

	cash := money.Round(inputs.StartingCash)
	referenceDate := inputs.StartDate

	for period := 1; period <= maxPeriods; period++ {
		if allPaid(debts) {
			result.Converged = true
			break
		}

		periodEnd := datetime.NextMonth(referenceDate).AddDate(0, 0, -1)
		incomes := s.incomeEvents(inputs, referenceDate, periodEnd)
		expenseTotal := s.expenseTotal(inputs, referenceDate, periodEnd)

		// ACCRUE
		interest := make(map[string]decimal.Decimal, len(debts))
		for _, d := range debts {
			if !d.balance.IsPositive() {
				continue
			}
			charge := money.Round(d.balance.Mul(money.MonthlyRate(d.AnnualRate)))
			interest[d.Name] = charge
			d.balance = d.balance.Add(charge)
			result.TotalInterest = result.TotalInterest.Add(charge)
		}

		// RESERVE: the period's own obligations against the period's known
		// income events. Diagnostic only: MINIMUM_PAY deducts this period's
		// minimums in full, and the guard on extra allocation is the forward
		// reserve below. Total may exceed cash.
		obligations := dueObligations(debts, referenceDate, periodEnd)
		periodReserve, err := reserve.Compute(referenceDate, cash, incomes, obligations)
		if err != nil {
			return nil, fmt.Errorf("period %d reservation: %w", period, err)
		}

		// MINIMUM_PAY: funded first from period income, then carried cash.
		incomeTotal := decimal.Zero
		for _, event := range incomes {
			incomeTotal = incomeTotal.Add(event.Amount)
		}
		pool := cash.Add(incomeTotal).Sub(expenseTotal)

		paid := make(map[string]decimal.Decimal, len(debts))
		totalMinimumDue := decimal.Zero
		for _, d := range debts {
			if !d.balance.IsPositive() {
				continue
			}
			totalMinimumDue = totalMinimumDue.Add(money.Min(d.MinPayment, d.balance))
		}
		if pool.LessThan(totalMinimumDue) {
			return nil, &InfeasiblePeriodError{
				Period:    period,
				Shortfall: money.Round(totalMinimumDue.Sub(pool)),
			}
		}
		for _, d := range debts {
			if !d.balance.IsPositive() {
				continue
			}
			payment := money.Min(d.MinPayment, d.balance)
			d.balance = d.balance.Sub(payment)
			paid[d.Name] = payment
		}
		cash = pool.Sub(totalMinimumDue)

		// ALLOCATE_EXTRA: cash beyond the reserve protecting the next
		// period's obligations goes to the policy's top-ranked debt,
		// cascading within the period when a debt pays off.
		nextStart := datetime.NextMonth(referenceDate)
		nextEnd := datetime.NextMonth(nextStart).AddDate(0, 0, -1)
		nextObligations := dueObligations(debts, nextStart, nextEnd)
		nextIncomes := s.incomeEvents(inputs, nextStart, nextEnd)
		futureReserve, err := reserve.Compute(nextStart, cash, nextIncomes, nextObligations)
		if err != nil {
			return nil, fmt.Errorf("period %d forward reservation: %w", period, err)
		}

		budget := money.Min(extraPayment, cash.Sub(futureReserve.Total))
		for budget.IsPositive() {
			ranked := policy.Rank(liveStates(debts))
			if len(ranked) == 0 {
				break
			}
			target := findDebt(debts, ranked[0])
			if target == nil || !target.balance.IsPositive() {
				break
			}
			payment := money.Min(budget, target.balance)
			target.balance = target.balance.Sub(payment)
			paid[target.Name] = paid[target.Name].Add(payment)
			cash = cash.Sub(payment)
			budget = budget.Sub(payment)
		}

		s.logger.Debug("period complete",
			zap.String("op", "engine.Simulate"),
			zap.String("strategy", policy.Name()),
			zap.Int("period", period),
			zap.String("cash", cash.StringFixed(2)),
			zap.String("reserved", periodReserve.Total.StringFixed(2)),
		)

		// RECORD: one row per debt that saw interest or a payment, in debt
		// input order.
		for _, d := range debts {
			charge := interest[d.Name]
			payment := paid[d.Name]
			if charge.IsZero() && payment.IsZero() {
				continue
			}
			balanceAfter := money.Round(d.balance)
			d.balance = balanceAfter
			result.Schedule = append(result.Schedule, ScheduleEntry{
				Period:           period,
				DebtName:         d.Name,
				BalanceBefore:    balanceAfter.Add(payment).Sub(charge),
				BalanceAfter:     balanceAfter,
				TotalPayment:     payment,
				InterestCharge:   charge,
				PrincipalPayment: payment.Sub(charge),
			})
			result.TotalCost = result.TotalCost.Add(payment)
		}
		result.TotalMonths = period
		cash = money.Round(cash)

		// ADVANCE
		referenceDate = nextStart
	}

	if allPaid(debts) {
		result.Converged = true
	} else {
		result.FinalBalances = make(map[string]decimal.Decimal)
		for _, d := range debts {
			if d.balance.IsPositive() {
				result.FinalBalances[d.Name] = d.balance
			}
		}
		s.logger.Warn("simulation reached period ceiling with nonzero balances",
			zap.String("op", "engine.Simulate"),
			zap.String("strategy", policy.Name()),
			zap.Int("periods", result.TotalMonths),
			zap.Int("remainingDebts", len(result.FinalBalances)),
		)
	}

	return result, nil
}

func (s *Simulator) incomeEvents(inputs Inputs, start, end time.Time) []model.CashEvent {
	var events []model.CashEvent
	for _, income := range inputs.Incomes {
		for _, date := range income.DatesWithin(start, end) {
			events = append(events, model.CashEvent{Date: date, Amount: income.Amount})
		}
	}
	for _, override := range inputs.FutureIncome {
		if !override.Date.Before(start) && !override.Date.After(end) {
			events = append(events, override)
		}
	}
	return events
}

func (s *Simulator) expenseTotal(inputs Inputs, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range inputs.Expenses {
		occurrences := expense.DatesWithin(start, end)
		total = total.Add(expense.Amount.Mul(decimal.NewFromInt(int64(len(occurrences)))))
	}
	for _, override := range inputs.FutureExpenses {
		if !override.Date.Before(start) && !override.Date.After(end) {
			total = total.Add(override.Amount)
		}
	}
	return total
}

// dueObligations derives the dated minimum-payment requirements for debts
// whose due day falls inside [start, end]. Due days already past in a
// partial first period belong to the caller's history, not the plan.
func dueObligations(debts []*debtRuntime, start, end time.Time) []model.Obligation {
	var obligations []model.Obligation
	for _, d := range debts {
		if !d.balance.IsPositive() {
			continue
		}
		dueDate := datetime.ClampDay(start, d.DueDay)
		if dueDate.Before(start) || dueDate.After(end) {
			continue
		}
		obligations = append(obligations, model.Obligation{
			DebtName:  d.Name,
			DueDate:   dueDate,
			MinAmount: money.Min(d.MinPayment, d.balance),
		})
	}
	return obligations
}

func liveStates(debts []*debtRuntime) []strategy.DebtState {
	var states []strategy.DebtState
	for _, d := range debts {
		if d.balance.IsPositive() {
			states = append(states, strategy.DebtState{
				Name:       d.Name,
				Balance:    d.balance,
				AnnualRate: d.AnnualRate,
			})
		}
	}
	return states
}

func findDebt(debts []*debtRuntime, name string) *debtRuntime {
	for _, d := range debts {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func allPaid(debts []*debtRuntime) bool {
	for _, d := range debts {
		if d.balance.IsPositive() {
			return false
		}
	}
	return true
}
