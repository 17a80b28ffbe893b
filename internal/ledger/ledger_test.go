package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bfinch/debt-optimizer/pkg/money"
)

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func cocoa(t time.Time) int64 {
	return t.Unix() - cocoaEpochOffset
}

// createLedger builds a minimal Quicken-shaped database in a temp directory.
func createLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.sqlite")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE ZACCOUNT (
			Z_PK INTEGER PRIMARY KEY,
			ZNAME TEXT,
			ZTYPENAME TEXT,
			ZACTIVE INTEGER,
			ZONLINEBANKINGLEDGERBALANCEAMOUNT REAL
		)`,
		`CREATE TABLE ZTRANSACTION (
			Z_PK INTEGER PRIMARY KEY,
			ZACCOUNT INTEGER,
			ZPOSTEDDATE REAL,
			ZAMOUNT REAL
		)`,
		// Card with an online ledger balance; transactions must be ignored.
		`INSERT INTO ZACCOUNT VALUES (1, 'Prime Visa', 'CREDITCARD', 1, -3200.55)`,
		// Card without an online balance; balance is the posted-transaction sum.
		`INSERT INTO ZACCOUNT VALUES (2, 'Store Card', 'CREDITCARD', 1, NULL)`,
		`INSERT INTO ZACCOUNT VALUES (3, 'Everyday Checking', 'CHECKING', 1, 1523.75)`,
		// Inactive and out-of-scope accounts never appear.
		`INSERT INTO ZACCOUNT VALUES (4, 'Closed Card', 'CREDITCARD', 0, -99.00)`,
		`INSERT INTO ZACCOUNT VALUES (5, 'Brokerage', 'INVESTMENT', 1, 50000.00)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seeding test database: %v", err)
		}
	}

	insert := `INSERT INTO ZTRANSACTION (ZACCOUNT, ZPOSTEDDATE, ZAMOUNT) VALUES (?, ?, ?)`
	past := cocoa(testNow.AddDate(0, 0, -10))
	future := cocoa(testNow.AddDate(0, 1, 0))
	rows := []struct {
		account int64
		posted  int64
		amount  float64
	}{
		{2, past, -300.00},
		{2, past, -150.25},
		{1, past, -999.99},    // ignored: online balance wins
		{2, future, -5000.00}, // ignored: posted after the reference time
	}
	for _, row := range rows {
		if _, err := db.Exec(insert, row.account, row.posted, row.amount); err != nil {
			t.Fatalf("seeding transactions: %v", err)
		}
	}
	return path
}

func TestLoadBalances(t *testing.T) {
	accounts, err := NewReader(nil).LoadBalances(createLedger(t), testNow)
	if err != nil {
		t.Fatalf("LoadBalances: %v", err)
	}

	byName := make(map[string]Account, len(accounts))
	for _, account := range accounts {
		byName[account.Name] = account
	}
	if len(byName) != 3 {
		t.Fatalf("loaded %d accounts, want 3: %v", len(byName), byName)
	}

	tests := []struct {
		name    string
		typ     string
		balance string
	}{
		{"Prime Visa", "CREDITCARD", "-3200.55"},
		{"Store Card", "CREDITCARD", "-450.25"},
		{"Everyday Checking", "CHECKING", "1523.75"},
	}
	for _, tt := range tests {
		account, ok := byName[tt.name]
		if !ok {
			t.Errorf("account %s missing", tt.name)
			continue
		}
		if account.Type != tt.typ {
			t.Errorf("%s: type = %q, want %q", tt.name, account.Type, tt.typ)
		}
		if got := account.Balance.StringFixed(2); got != tt.balance {
			t.Errorf("%s: balance = %s, want %s", tt.name, got, tt.balance)
		}
	}

	if _, ok := byName["Closed Card"]; ok {
		t.Error("inactive account was loaded")
	}
	if _, ok := byName["Brokerage"]; ok {
		t.Error("out-of-scope account type was loaded")
	}
}

func TestLoadBalancesMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.sqlite")
	if _, err := NewReader(nil).LoadBalances(missing, testNow); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestMatchDebts(t *testing.T) {
	accounts := []Account{
		{ID: 1, Name: "Prime Visa", Type: "CREDITCARD", Balance: money.MustParse("-3200.55")},
		{ID: 2, Name: "Store Card", Type: "CREDITCARD", Balance: money.MustParse("-450.25")},
		{ID: 3, Name: "Everyday Checking", Type: "CHECKING", Balance: money.MustParse("1523.75")},
	}

	matches := MatchDebts([]string{"Prime Visa", "Store Crad", "Mortgage"}, accounts, 80)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}

	exact := matches[0]
	if !exact.Exact || exact.Score != 100 || exact.AccountName != "Prime Visa" {
		t.Errorf("exact match = %+v", exact)
	}
	if got := exact.Balance.StringFixed(2); got != "3200.55" {
		t.Errorf("card balance = %s, want positive 3200.55", got)
	}

	// "Store Crad" is a transposition; Levenshtein distance 2 over 10
	// characters scores 80.
	fuzzyMatch := matches[1]
	if fuzzyMatch.Exact {
		t.Error("transposed name reported as exact")
	}
	if fuzzyMatch.AccountName != "Store Card" || fuzzyMatch.Score != 80 {
		t.Errorf("fuzzy match = %+v", fuzzyMatch)
	}
}

func TestMatchDebtsRespectsThreshold(t *testing.T) {
	accounts := []Account{
		{ID: 1, Name: "Prime Visa", Type: "CREDITCARD", Balance: money.MustParse("-3200.55")},
	}
	if matches := MatchDebts([]string{"Mortgage"}, accounts, 80); len(matches) != 0 {
		t.Errorf("below-threshold name matched: %+v", matches)
	}
}

func TestMatchDebtsIgnoresNonCardAccounts(t *testing.T) {
	accounts := []Account{
		{ID: 1, Name: "Everyday Checking", Type: "CHECKING", Balance: money.MustParse("1523.75")},
	}
	if matches := MatchDebts([]string{"Everyday Checking"}, accounts, 80); len(matches) != 0 {
		t.Errorf("checking account matched as a debt: %+v", matches)
	}
}
