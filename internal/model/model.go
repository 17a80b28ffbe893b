// Package model defines the value records the optimization engine operates
// on. Instances are constructed once from external input and are read-only
// for the duration of a run.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bfinch/debt-optimizer/pkg/constants"
	"github.com/bfinch/debt-optimizer/pkg/datetime"
)

// Frequency describes how often an income or expense recurs.
type Frequency string

const (
	FrequencyOnce     Frequency = "one-time"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// ParseFrequency validates a frequency string from external input.
func ParseFrequency(value string) (Frequency, error) {
	switch Frequency(value) {
	case FrequencyOnce, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return Frequency(value), nil
	}
	return "", fmt.Errorf("unknown frequency %q", value)
}

// Debt is one payable balance.
type Debt struct {
	Name       string
	Balance    decimal.Decimal
	MinPayment decimal.Decimal
	AnnualRate decimal.Decimal // fraction, e.g. 0.2499 for 24.99% APR
	DueDay     int             // day of month the minimum payment is due, 1-31
}

// NewDebt validates and constructs a Debt.
func NewDebt(name string, balance, minPayment, annualRate decimal.Decimal, dueDay int) (Debt, error) {
	if name == "" {
		return Debt{}, fmt.Errorf("debt name cannot be empty")
	}
	if balance.IsNegative() {
		return Debt{}, fmt.Errorf("debt %s: balance cannot be negative", name)
	}
	if minPayment.IsNegative() {
		return Debt{}, fmt.Errorf("debt %s: minimum payment cannot be negative", name)
	}
	if annualRate.IsNegative() {
		return Debt{}, fmt.Errorf("debt %s: annual rate cannot be negative", name)
	}
	if dueDay < 1 || dueDay > 31 {
		return Debt{}, fmt.Errorf("debt %s: due day %d out of range 1-31", name, dueDay)
	}
	return Debt{
		Name:       name,
		Balance:    balance,
		MinPayment: minPayment,
		AnnualRate: annualRate,
		DueDay:     dueDay,
	}, nil
}

// Income is a recurring or one-off inflow.
type Income struct {
	Source     string
	Amount     decimal.Decimal
	Frequency  Frequency
	AnchorDate time.Time
}

// NewIncome validates and constructs an Income.
func NewIncome(source string, amount decimal.Decimal, frequency Frequency, anchor time.Time) (Income, error) {
	if source == "" {
		return Income{}, fmt.Errorf("income source cannot be empty")
	}
	if !amount.IsPositive() {
		return Income{}, fmt.Errorf("income %s: amount must be positive", source)
	}
	if _, err := ParseFrequency(string(frequency)); err != nil {
		return Income{}, fmt.Errorf("income %s: %w", source, err)
	}
	if anchor.IsZero() {
		return Income{}, fmt.Errorf("income %s: anchor date is required", source)
	}
	return Income{Source: source, Amount: amount, Frequency: frequency, AnchorDate: anchor}, nil
}

// DatesWithin returns every occurrence of the income in [start, end],
// inclusive on both bounds.
func (in Income) DatesWithin(start, end time.Time) []time.Time {
	return occurrences(in.AnchorDate, in.Frequency, start, end)
}

// RecurringExpense is a recurring outflow.
type RecurringExpense struct {
	Name      string
	Amount    decimal.Decimal
	Frequency Frequency
	Day       int // day of period for monthly expenses
	StartDate time.Time
}

// NewRecurringExpense validates and constructs a RecurringExpense.
func NewRecurringExpense(name string, amount decimal.Decimal, frequency Frequency, day int, start time.Time) (RecurringExpense, error) {
	if name == "" {
		return RecurringExpense{}, fmt.Errorf("expense name cannot be empty")
	}
	if !amount.IsPositive() {
		return RecurringExpense{}, fmt.Errorf("expense %s: amount must be positive", name)
	}
	if _, err := ParseFrequency(string(frequency)); err != nil {
		return RecurringExpense{}, fmt.Errorf("expense %s: %w", name, err)
	}
	if frequency == FrequencyMonthly && (day < 1 || day > 31) {
		return RecurringExpense{}, fmt.Errorf("expense %s: day %d out of range 1-31", name, day)
	}
	if start.IsZero() {
		return RecurringExpense{}, fmt.Errorf("expense %s: start date is required", name)
	}
	return RecurringExpense{Name: name, Amount: amount, Frequency: frequency, Day: day, StartDate: start}, nil
}

// DatesWithin returns every occurrence of the expense in [start, end],
// inclusive on both bounds. Monthly expenses fall on the configured day of
// month, clamped to short months.
func (e RecurringExpense) DatesWithin(start, end time.Time) []time.Time {
	if e.Frequency != FrequencyMonthly {
		return occurrences(e.StartDate, e.Frequency, start, end)
	}

	var dates []time.Time
	for month := datetime.MonthStart(e.StartDate); !month.After(end); month = datetime.NextMonth(month) {
		date := datetime.ClampDay(month, e.Day)
		if date.Before(e.StartDate) || date.Before(start) {
			continue
		}
		if date.After(end) {
			break
		}
		dates = append(dates, date)
	}
	return dates
}

// Obligation is a derived, dated minimum-payment requirement for one
// simulated period. It is recomputed fresh each period and not persisted.
type Obligation struct {
	DebtName  string
	DueDate   time.Time
	MinAmount decimal.Decimal
}

// CashEvent is a dated cash inflow or outflow used by the reservation
// calculator and the simulator.
type CashEvent struct {
	Date   time.Time
	Amount decimal.Decimal
}

func occurrences(anchor time.Time, frequency Frequency, start, end time.Time) []time.Time {
	var dates []time.Time
	switch frequency {
	case FrequencyOnce:
		if !anchor.Before(start) && !anchor.After(end) {
			dates = append(dates, anchor)
		}
	case FrequencyWeekly:
		for d := anchor; !d.After(end); d = d.AddDate(0, 0, constants.DaysPerWeek) {
			if !d.Before(start) {
				dates = append(dates, d)
			}
		}
	case FrequencyBiWeekly:
		for d := anchor; !d.After(end); d = d.AddDate(0, 0, constants.DaysPerBiWeek) {
			if !d.Before(start) {
				dates = append(dates, d)
			}
		}
	case FrequencyMonthly:
		// AddDate normalizes Jan 31 + 1 month to Mar 3, so step by calendar
		// month and clamp the anchor day into each month.
		day := anchor.Day()
		for month := datetime.MonthStart(anchor); !month.After(end); month = datetime.NextMonth(month) {
			d := datetime.ClampDay(month, day)
			if d.Before(anchor) || d.Before(start) {
				continue
			}
			if d.After(end) {
				break
			}
			dates = append(dates, d)
		}
	}
	return dates
}
