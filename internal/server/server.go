// Package server exposes the optimization engine over a small JSON API.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bfinch/debt-optimizer/internal/config"
	"github.com/bfinch/debt-optimizer/internal/engine"
	"github.com/bfinch/debt-optimizer/internal/optimizer"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the optimization API.
// now supplies the reference date for configs that omit startDate.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, now func() time.Time) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = 256 * 1024
	}
	if now == nil {
		now = time.Now
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, now: now}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan", h.handlePlan)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/version", h.handleVersion)
	return mux
}

type scheduleRowJSON struct {
	Period           int    `json:"period"`
	Debt             string `json:"debt"`
	BalanceBefore    string `json:"balanceBefore"`
	BalanceAfter     string `json:"balanceAfter"`
	TotalPayment     string `json:"totalPayment"`
	InterestCharge   string `json:"interestCharge"`
	PrincipalPayment string `json:"principalPayment"`
}

type planResponse struct {
	Strategy      string            `json:"strategy"`
	TotalInterest string            `json:"totalInterest"`
	TotalMonths   int               `json:"totalMonths"`
	TotalCost     string            `json:"totalCost"`
	Converged     bool              `json:"converged"`
	Schedule      []scheduleRowJSON `json:"schedule"`
	Warnings      []string          `json:"warnings,omitempty"`
	Duration      string            `json:"duration"`
}

type compareRowJSON struct {
	Strategy        string `json:"strategy"`
	TotalInterest   string `json:"totalInterest"`
	MonthsToFreedom int    `json:"monthsToFreedom"`
	TotalCost       string `json:"totalCost"`
	Converged       bool   `json:"converged"`
	Note            string `json:"note,omitempty"`
}

type compareResponse struct {
	Rows     []compareRowJSON `json:"rows"`
	Warnings []string         `json:"warnings,omitempty"`
	Duration string           `json:"duration"`
}

type summaryResponse struct {
	TotalDebt           string `json:"totalDebt"`
	TotalMinimumPayment string `json:"totalMinimumPayment"`
	WeightedAverageRate string `json:"weightedAverageRate"`
	DebtCount           int    `json:"debtCount"`
}

func (h *handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	cfg, warnings, ok := h.readConfig(w, r, "server.handlePlan")
	if !ok {
		return
	}
	start := time.Now()

	inputs, err := cfg.EngineInputs(h.now())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handlePlan")
		return
	}

	var result *engine.Result
	opt := optimizer.New(h.logger)
	if cfg.Settings.Strategy != "" {
		result, err = opt.RunStrategy(inputs, cfg.Settings.Strategy, cfg.ExtraPayment())
	} else {
		goal := optimizer.GoalMinimizeInterest
		if cfg.Settings.Goal != "" {
			goal, err = optimizer.ParseGoal(cfg.Settings.Goal)
			if err != nil {
				h.respondError(w, http.StatusBadRequest, err.Error(), "server.handlePlan")
				return
			}
		}
		result, err = opt.Optimize(inputs, goal, cfg.ExtraPayment())
	}
	if err != nil {
		var infeasible *engine.InfeasiblePeriodError
		if errors.As(err, &infeasible) {
			h.respondError(w, http.StatusUnprocessableEntity, err.Error(), "server.handlePlan")
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handlePlan")
		return
	}

	response := planResponse{
		Strategy:      result.Strategy,
		TotalInterest: result.TotalInterest.StringFixed(2),
		TotalMonths:   result.TotalMonths,
		TotalCost:     result.TotalCost.StringFixed(2),
		Converged:     result.Converged,
		Warnings:      warnings,
		Duration:      time.Since(start).String(),
	}
	for _, entry := range result.Schedule {
		response.Schedule = append(response.Schedule, scheduleRowJSON{
			Period:           entry.Period,
			Debt:             entry.DebtName,
			BalanceBefore:    entry.BalanceBefore.StringFixed(2),
			BalanceAfter:     entry.BalanceAfter.StringFixed(2),
			TotalPayment:     entry.TotalPayment.StringFixed(2),
			InterestCharge:   entry.InterestCharge.StringFixed(2),
			PrincipalPayment: entry.PrincipalPayment.StringFixed(2),
		})
	}

	h.logger.Info("plan computed",
		zap.String("op", "server.handlePlan"),
		zap.String("strategy", response.Strategy),
		zap.Int("months", response.TotalMonths),
		zap.Bool("converged", response.Converged),
	)
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	cfg, warnings, ok := h.readConfig(w, r, "server.handleCompare")
	if !ok {
		return
	}
	start := time.Now()

	inputs, err := cfg.EngineInputs(h.now())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleCompare")
		return
	}

	rows := optimizer.New(h.logger).Compare(inputs, cfg.ExtraPayment())
	response := compareResponse{Warnings: warnings, Duration: time.Since(start).String()}
	for _, row := range rows {
		jsonRow := compareRowJSON{
			Strategy:        row.Strategy,
			MonthsToFreedom: row.MonthsToFreedom,
			Converged:       row.Converged,
			Note:            row.Note,
		}
		jsonRow.TotalInterest = row.TotalInterest.StringFixed(2)
		jsonRow.TotalCost = row.TotalCost.StringFixed(2)
		response.Rows = append(response.Rows, jsonRow)
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := h.readConfig(w, r, "server.handleSummary")
	if !ok {
		return
	}

	inputs, err := cfg.EngineInputs(h.now())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleSummary")
		return
	}

	summary := optimizer.Summarize(inputs.Debts)
	h.writeJSON(w, http.StatusOK, summaryResponse{
		TotalDebt:           summary.TotalDebt.StringFixed(2),
		TotalMinimumPayment: summary.TotalMinimumPayment.StringFixed(2),
		WeightedAverageRate: summary.WeightedAverageRate.StringFixed(4),
		DebtCount:           summary.DebtCount,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// readConfig decodes the YAML configuration body shared by the POST
// endpoints and returns its validation warnings.
func (h *handler) readConfig(w http.ResponseWriter, r *http.Request, op string) (*config.Configuration, []string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil, nil, false
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, nil, false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read configuration: %v", err), op)
		return nil, nil, false
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return nil, nil, false
	}
	return cfg, cfg.ValidateConfiguration(), true
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
