package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const planConfig = `
startDate: 2025-01-01
settings:
  extraPayment: 100.00
  goal: minimize_interest
debts:
  - name: Car Loan
    balance: 1200.00
    minPayment: 100.00
    annualRate: 0.0
    dueDay: 15
incomeSources:
  - source: Paycheck
    amount: 2000.00
    frequency: monthly
    anchorDate: 2025-01-01
`

func fixedNow() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func newTestHandler() http.Handler {
	return NewHandler(nil, 0, "1.2.3", fixedNow)
}

func postYAML(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-yaml")
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(recorder.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestVersionEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	recorder := httptest.NewRecorder()
	newTestHandler().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body map[string]string
	decodeJSON(t, recorder, &body)
	if body["version"] != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", body["version"])
	}
}

func TestVersionRejectsPost(t *testing.T) {
	recorder := postYAML(t, newTestHandler(), "/api/version", "")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", recorder.Code)
	}
}

func TestPlanEndpoint(t *testing.T) {
	recorder := postYAML(t, newTestHandler(), "/api/plan", planConfig)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", recorder.Code, recorder.Body.String())
	}

	var body struct {
		Strategy      string `json:"strategy"`
		TotalInterest string `json:"totalInterest"`
		TotalMonths   int    `json:"totalMonths"`
		TotalCost     string `json:"totalCost"`
		Converged     bool   `json:"converged"`
		Schedule      []struct {
			Period       int    `json:"period"`
			Debt         string `json:"debt"`
			TotalPayment string `json:"totalPayment"`
		} `json:"schedule"`
	}
	decodeJSON(t, recorder, &body)

	if body.Strategy != "avalanche" {
		t.Errorf("strategy = %q, want avalanche", body.Strategy)
	}
	if body.TotalMonths != 6 || !body.Converged {
		t.Errorf("months = %d converged = %v, want 6 and true", body.TotalMonths, body.Converged)
	}
	if body.TotalInterest != "0.00" {
		t.Errorf("total interest = %q, want 0.00", body.TotalInterest)
	}
	if body.TotalCost != "1200.00" {
		t.Errorf("total cost = %q, want 1200.00", body.TotalCost)
	}
	if len(body.Schedule) != 6 {
		t.Fatalf("schedule rows = %d, want 6", len(body.Schedule))
	}
	if body.Schedule[0].Debt != "Car Loan" || body.Schedule[0].TotalPayment != "200.00" {
		t.Errorf("first row = %+v", body.Schedule[0])
	}
}

func TestPlanHonorsStrategySetting(t *testing.T) {
	conf := strings.Replace(planConfig, "goal: minimize_interest", "strategy: snowball", 1)
	recorder := postYAML(t, newTestHandler(), "/api/plan", conf)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", recorder.Code, recorder.Body.String())
	}

	var body struct {
		Strategy string `json:"strategy"`
	}
	decodeJSON(t, recorder, &body)
	if body.Strategy != "snowball" {
		t.Errorf("strategy = %q, want snowball", body.Strategy)
	}
}

func TestPlanRejectsUnknownStrategy(t *testing.T) {
	conf := strings.Replace(planConfig, "goal: minimize_interest", "strategy: cascade", 1)
	recorder := postYAML(t, newTestHandler(), "/api/plan", conf)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestPlanRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/plan", nil)
	recorder := httptest.NewRecorder()
	newTestHandler().ServeHTTP(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", recorder.Code)
	}
}

func TestPlanRejectsBadYAML(t *testing.T) {
	recorder := postYAML(t, newTestHandler(), "/api/plan", "debts: [unclosed")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
	var body map[string]string
	decodeJSON(t, recorder, &body)
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestPlanRejectsUnknownGoal(t *testing.T) {
	conf := strings.Replace(planConfig, "minimize_interest", "minimize_regret", 1)
	recorder := postYAML(t, newTestHandler(), "/api/plan", conf)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestPlanInfeasibleIsUnprocessable(t *testing.T) {
	conf := `
startDate: 2025-01-01
debts:
  - name: Card
    balance: 1000.00
    minPayment: 500.00
    annualRate: 0.0
    dueDay: 15
incomeSources:
  - source: Paycheck
    amount: 100.00
    frequency: monthly
    anchorDate: 2025-01-01
`
	recorder := postYAML(t, newTestHandler(), "/api/plan", conf)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", recorder.Code)
	}
}

func TestPlanEnforcesUploadLimit(t *testing.T) {
	h := NewHandler(nil, 64, "test", fixedNow)
	recorder := postYAML(t, h, "/api/plan", strings.Repeat("# padding\n", 100))
	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", recorder.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	recorder := postYAML(t, newTestHandler(), "/api/compare", planConfig)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", recorder.Code, recorder.Body.String())
	}

	var body struct {
		Rows []struct {
			Strategy        string `json:"strategy"`
			MonthsToFreedom int    `json:"monthsToFreedom"`
			Converged       bool   `json:"converged"`
		} `json:"rows"`
	}
	decodeJSON(t, recorder, &body)

	if len(body.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(body.Rows))
	}
	want := []string{"avalanche", "snowball", "hybrid"}
	for i, row := range body.Rows {
		if row.Strategy != want[i] {
			t.Errorf("row %d strategy = %q, want %q", i, row.Strategy, want[i])
		}
		// Single zero-rate debt: every strategy converges in the same time.
		if row.MonthsToFreedom != 6 || !row.Converged {
			t.Errorf("row %d = %+v, want 6 converged months", i, row)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	conf := `
debts:
  - name: Prime Visa
    balance: 1000.00
    minPayment: 25.00
    annualRate: 20.0
    dueDay: 15
  - name: Car Loan
    balance: 3000.00
    minPayment: 90.00
    annualRate: 10.0
    dueDay: 10
`
	recorder := postYAML(t, newTestHandler(), "/api/summary", conf)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", recorder.Code, recorder.Body.String())
	}

	var body struct {
		TotalDebt           string `json:"totalDebt"`
		TotalMinimumPayment string `json:"totalMinimumPayment"`
		WeightedAverageRate string `json:"weightedAverageRate"`
		DebtCount           int    `json:"debtCount"`
	}
	decodeJSON(t, recorder, &body)

	if body.TotalDebt != "4000.00" || body.TotalMinimumPayment != "115.00" {
		t.Errorf("totals = %s / %s", body.TotalDebt, body.TotalMinimumPayment)
	}
	if body.WeightedAverageRate != "0.1250" {
		t.Errorf("weighted rate = %q, want 0.1250", body.WeightedAverageRate)
	}
	if body.DebtCount != 2 {
		t.Errorf("debt count = %d, want 2", body.DebtCount)
	}
}
