// Package output provides utilities for formatting and displaying
// optimization results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bfinch/debt-optimizer/internal/engine"
	"github.com/bfinch/debt-optimizer/internal/optimizer"
)

var percentFactor = decimal.NewFromInt(100)

// PrettyFormat writes a human-readable payment schedule.
func PrettyFormat(w io.Writer, result *engine.Result) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(w, "--- Payment plan (%s) ---\n", result.Strategy)
	_, _ = p.Fprintf(w, "Period | Debt                 | Payment     | Interest    | Balance\n")
	_, _ = p.Fprintf(w, "______ | ____                 | _______     | ________    | _______\n")
	for _, entry := range result.Schedule {
		_, _ = p.Fprintf(w, "%6d | %-20s | $%-10s | $%-10s | $%s\n",
			entry.Period, entry.DebtName,
			entry.TotalPayment.StringFixed(2),
			entry.InterestCharge.StringFixed(2),
			entry.BalanceAfter.StringFixed(2),
		)
	}
	_, _ = p.Fprintf(w, "\nTotal interest: $%s\n", result.TotalInterest.StringFixed(2))
	_, _ = p.Fprintf(w, "Total cost:     $%s\n", result.TotalCost.StringFixed(2))
	_, _ = p.Fprintf(w, "Months:         %d\n", result.TotalMonths)
	if !result.Converged {
		_, _ = p.Fprintf(w, "Warning: plan did not reach zero balances within the period ceiling\n")
		for name, balance := range result.FinalBalances {
			_, _ = p.Fprintf(w, "  remaining %s: $%s\n", name, balance.StringFixed(2))
		}
	}
}

// CsvFormat writes the payment schedule in comma-separated value format.
func CsvFormat(w io.Writer, result *engine.Result) {
	fmt.Fprintf(w, `"period","debt","balance_before","balance_after","total_payment","interest_charge","principal_payment"`)
	fmt.Fprintf(w, "\n")
	for _, entry := range result.Schedule {
		fmt.Fprintf(w, `"%d","%s","%s","%s","%s","%s","%s"`,
			entry.Period,
			strings.ReplaceAll(entry.DebtName, `"`, `""`),
			entry.BalanceBefore.StringFixed(2),
			entry.BalanceAfter.StringFixed(2),
			entry.TotalPayment.StringFixed(2),
			entry.InterestCharge.StringFixed(2),
			entry.PrincipalPayment.StringFixed(2),
		)
		fmt.Fprintf(w, "\n")
	}
}

// PrettyComparison writes the strategy comparison table.
func PrettyComparison(w io.Writer, rows []optimizer.ComparisonRow) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(w, "--- Strategy comparison ---\n")
	_, _ = p.Fprintf(w, "Strategy   | Months | Total interest | Total cost   | Notes\n")
	_, _ = p.Fprintf(w, "________   | ______ | ______________ | __________   | _____\n")
	for _, row := range rows {
		_, _ = p.Fprintf(w, "%-10s | %6d | $%-13s | $%-11s | %s\n",
			row.Strategy, row.MonthsToFreedom,
			row.TotalInterest.StringFixed(2),
			row.TotalCost.StringFixed(2),
			row.Note,
		)
	}
}

// PrettySummary writes the point-in-time debt summary.
func PrettySummary(w io.Writer, summary optimizer.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(w, "Debts:                 %d\n", summary.DebtCount)
	_, _ = p.Fprintf(w, "Total debt:            $%s\n", summary.TotalDebt.StringFixed(2))
	_, _ = p.Fprintf(w, "Total minimum payment: $%s\n", summary.TotalMinimumPayment.StringFixed(2))
	_, _ = p.Fprintf(w, "Weighted average APR:  %s%%\n",
		summary.WeightedAverageRate.Mul(percentFactor).StringFixed(2))
}
