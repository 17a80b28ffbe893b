// Package ledger reads account balances from a Quicken-format SQLite
// database and reconciles them against configured debt names. The database
// is always opened read-only; this package never writes to it.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bfinch/debt-optimizer/pkg/money"
)

// cocoaEpochOffset converts Unix timestamps into Apple Cocoa timestamps
// (seconds since 2001-01-01), the format Quicken stores posted dates in.
const cocoaEpochOffset = 978307200

// Account is one active ledger account.
type Account struct {
	ID      int64
	Name    string
	Type    string // CREDITCARD, CHECKING, SAVINGS
	Balance decimal.Decimal
}

// Reader loads balances from a ledger database.
type Reader struct {
	logger *zap.Logger
}

// NewReader constructs a Reader. A nil logger is replaced with a no-op
// logger.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// LoadBalances opens the database read-only and returns the active credit
// card, checking, and savings account balances. The online ledger balance is
// preferred when present; otherwise transactions posted up to now are
// summed. now is the explicit reference time, never the process clock.
func (r *Reader) LoadBalances(dbPath string, now time.Time) ([]Account, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database %s: %w", dbPath, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			r.logger.Warn("failed to close ledger database",
				zap.String("op", "ledger.LoadBalances"),
				zap.Error(closeErr),
			)
		}
	}()

	cocoaNow := now.Unix() - cocoaEpochOffset
	rows, err := db.Query(`
		SELECT
			a.Z_PK AS id,
			a.ZNAME AS name,
			a.ZTYPENAME AS type,
			COALESCE(
				a.ZONLINEBANKINGLEDGERBALANCEAMOUNT,
				SUM(CASE
					WHEN t.ZPOSTEDDATE IS NOT NULL AND t.ZPOSTEDDATE <= ?
					THEN t.ZAMOUNT
					ELSE 0
				END),
				0
			) AS balance
		FROM ZACCOUNT a
		LEFT JOIN ZTRANSACTION t ON t.ZACCOUNT = a.Z_PK
		WHERE a.ZACTIVE = 1
		  AND a.ZTYPENAME IN ('CREDITCARD','CHECKING','SAVINGS')
		GROUP BY a.Z_PK, a.ZNAME, a.ZTYPENAME, a.ZONLINEBANKINGLEDGERBALANCEAMOUNT`,
		cocoaNow,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger accounts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var accounts []Account
	for rows.Next() {
		var account Account
		var balance float64
		if err := rows.Scan(&account.ID, &account.Name, &account.Type, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan ledger account: %w", err)
		}
		account.Type = strings.ToUpper(strings.TrimSpace(account.Type))
		account.Balance = money.FromFloat(balance)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger accounts: %w", err)
	}

	r.logger.Info("loaded ledger balances",
		zap.String("op", "ledger.LoadBalances"),
		zap.Int("accounts", len(accounts)),
	)
	return accounts, nil
}

// Match pairs a configured debt with a ledger account. Exact name matches
// carry a score of 100; fuzzy matches carry their similarity score.
type Match struct {
	DebtName    string
	AccountName string
	Balance     decimal.Decimal
	Score       int
	Exact       bool
}

// MatchDebts reconciles debt names against credit card accounts. Exact
// matches are taken directly; otherwise the best fuzzy candidate at or above
// the threshold (0-100) is proposed. Credit card balances are reported as
// positive amounts regardless of the ledger's sign convention.
func MatchDebts(debtNames []string, accounts []Account, threshold int) []Match {
	byName := make(map[string]Account)
	var cardNames []string
	for _, account := range accounts {
		if account.Type != "CREDITCARD" {
			continue
		}
		byName[account.Name] = account
		cardNames = append(cardNames, account.Name)
	}

	var matches []Match
	for _, debtName := range debtNames {
		trimmed := strings.TrimSpace(debtName)
		if account, ok := byName[trimmed]; ok {
			matches = append(matches, Match{
				DebtName:    debtName,
				AccountName: account.Name,
				Balance:     account.Balance.Abs(),
				Score:       100,
				Exact:       true,
			})
			continue
		}

		best, score := closestName(trimmed, cardNames)
		if best == "" || score < threshold {
			continue
		}
		account := byName[best]
		matches = append(matches, Match{
			DebtName:    debtName,
			AccountName: account.Name,
			Balance:     account.Balance.Abs(),
			Score:       score,
		})
	}
	return matches
}

// closestName returns the candidate with the best similarity score. The
// Levenshtein distance from fuzzysearch is normalized into a 0-100 score
// against the longer of the two names.
func closestName(name string, candidates []string) (string, int) {
	bestScore := -1
	bestName := ""
	for _, candidate := range candidates {
		distance := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(candidate))
		longest := len(name)
		if len(candidate) > longest {
			longest = len(candidate)
		}
		if longest == 0 {
			continue
		}
		score := 100 - (distance*100)/longest
		if score > bestScore {
			bestScore = score
			bestName = candidate
		}
	}
	return bestName, bestScore
}
