package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bfinch/debt-optimizer/internal/config"
	"github.com/bfinch/debt-optimizer/internal/engine"
	"github.com/bfinch/debt-optimizer/internal/ledger"
	"github.com/bfinch/debt-optimizer/internal/optimizer"
	"github.com/bfinch/debt-optimizer/pkg/constants"
	"github.com/bfinch/debt-optimizer/pkg/money"
	"github.com/bfinch/debt-optimizer/pkg/output"
	"github.com/bfinch/debt-optimizer/pkg/validation"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}
		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	mode := flag.String("mode", "optimize", "run mode: optimize, compare, summary")
	goalFlag := flag.String("goal", "", "optimization goal override: minimize_interest, minimize_time, maximize_cashflow")
	strategyFlag := flag.String("strategy", "", "explicit strategy override, bypassing the goal: avalanche, snowball, hybrid")
	extraPaymentFlag := flag.Float64("extra-payment", -1, "extra payment override (negative means use config value)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	ledgerDB := flag.String("ledger-db", "", "optional path to a ledger database to sync balances from")
	matchThreshold := flag.Int("match-threshold", constants.DefaultMatchThreshold, "fuzzy match threshold for ledger account names (0-100)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	if err := validation.ValidateMode(*mode); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning, zap.String("op", "main"))
	}

	now := time.Now()

	if *ledgerDB != "" {
		syncBalances(logger, conf, *ledgerDB, *matchThreshold, now)
	}

	inputs, err := conf.EngineInputs(now)
	if err != nil {
		logger.Fatal("failed to build engine inputs",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch *mode {
	case "summary":
		output.PrettySummary(os.Stdout, optimizer.Summarize(inputs.Debts))
	case "compare":
		rows := optimizer.New(logger).Compare(inputs, conf.ExtraPayment())
		output.PrettyComparison(os.Stdout, rows)
	case "optimize":
		extraPayment := conf.ExtraPayment()
		if *extraPaymentFlag >= 0 {
			extraPayment = money.FromFloat(*extraPaymentFlag)
		}

		// An explicit strategy bypasses goal mapping; a -goal flag wins over
		// the config's strategy setting.
		strategyName := conf.Settings.Strategy
		if *strategyFlag != "" {
			strategyName = *strategyFlag
		}

		var result *engine.Result
		if strategyName != "" && *goalFlag == "" {
			result, err = optimizer.New(logger).RunStrategy(inputs, strategyName, extraPayment)
		} else {
			goal := optimizer.GoalMinimizeInterest
			goalName := conf.Settings.Goal
			if *goalFlag != "" {
				goalName = *goalFlag
			}
			if goalName != "" {
				goal, err = optimizer.ParseGoal(goalName)
				if err != nil {
					logger.Fatal(err.Error(), zap.String("op", "main"))
				}
			}
			result, err = optimizer.New(logger).Optimize(inputs, goal, extraPayment)
		}
		if err != nil {
			var infeasible *engine.InfeasiblePeriodError
			if errors.As(err, &infeasible) {
				logger.Fatal("plan is infeasible: income cannot cover minimum payments",
					zap.String("op", "main"),
					zap.Int("period", infeasible.Period),
					zap.String("shortfall", infeasible.Shortfall.StringFixed(2)),
				)
			}
			logger.Fatal("failed to compute plan",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}

		switch outputFormat {
		case constants.OutputFormatPretty:
			output.PrettyFormat(os.Stdout, result)
		case constants.OutputFormatCSV:
			output.CsvFormat(os.Stdout, result)
		}
	}
}

// syncBalances refreshes configured debt balances from the ledger database
// before the plan runs. Matches below the threshold are skipped.
func syncBalances(logger *zap.Logger, conf *config.Configuration, dbPath string, threshold int, now time.Time) {
	accounts, err := ledger.NewReader(logger).LoadBalances(dbPath, now)
	if err != nil {
		logger.Fatal("failed to load ledger balances",
			zap.String("op", "main.syncBalances"),
			zap.Error(err),
		)
	}

	names := make([]string, len(conf.Debts))
	for i, d := range conf.Debts {
		names[i] = d.Name
	}

	for _, match := range ledger.MatchDebts(names, accounts, threshold) {
		for i := range conf.Debts {
			if conf.Debts[i].Name != match.DebtName {
				continue
			}
			oldBalance := conf.Debts[i].Balance
			newBalance, _ := match.Balance.Float64()
			conf.Debts[i].Balance = newBalance
			logger.Info("synced debt balance from ledger",
				zap.String("op", "main.syncBalances"),
				zap.String("debt", match.DebtName),
				zap.String("account", match.AccountName),
				zap.Int("score", match.Score),
				zap.Float64("oldBalance", oldBalance),
				zap.Float64("newBalance", newBalance),
			)
		}
	}
}
