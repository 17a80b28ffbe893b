// Package config defines the data structures related to configuration and
// includes functions for loading, validating, and converting the config
// into the engine's entity snapshot.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/bfinch/debt-optimizer/internal/engine"
	"github.com/bfinch/debt-optimizer/internal/model"
	"github.com/bfinch/debt-optimizer/pkg/constants"
	"github.com/bfinch/debt-optimizer/pkg/money"
)

// DateTimeLayout is the format expected in config files and is also the
// output date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for debt-optimizer.
type Configuration struct {
	StartDate         string
	Settings          Settings
	Debts             []DebtConfig
	IncomeSources     []IncomeConfig
	RecurringExpenses []ExpenseConfig
	FutureIncome      []OverrideConfig
	FutureExpenses    []OverrideConfig
	Logging           LoggingConfig `yaml:"logging,omitempty"`
	Output            OutputConfig  `yaml:"output,omitempty"`
}

// Settings holds run-level knobs for the optimizer.
type Settings struct {
	ExtraPayment float64
	CurrentCash  float64
	Goal         string
	Strategy     string
	MaxPeriods   int
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// DebtConfig is one payable balance as written in the config file. The rate
// is a percentage (24.99 means 24.99% APR).
type DebtConfig struct {
	Name       string
	Balance    float64
	MinPayment float64
	AnnualRate float64
	DueDay     int
}

// IncomeConfig is a recurring or one-off inflow.
type IncomeConfig struct {
	Source     string
	Amount     float64
	Frequency  string
	AnchorDate string
}

// ExpenseConfig is a recurring outflow.
type ExpenseConfig struct {
	Name      string
	Amount    float64
	Frequency string
	Day       int
	StartDate string
}

// OverrideConfig is a future-dated one-off cash event applied verbatim when
// the simulation advances into its period.
type OverrideConfig struct {
	Date   string
	Amount float64
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return unmarshalConfiguration(v)
}

// LoadConfigurationFromReader loads a YAML configuration from an in-memory
// source, e.g. an HTTP upload.
func LoadConfigurationFromReader(reader io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return unmarshalConfiguration(v)
}

func unmarshalConfiguration(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation and returns warnings.
// Hard errors are reported by EngineInputs instead.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Debts) == 0 {
		warnings = append(warnings, "no debts configured; nothing to optimize")
	}
	if c.Settings.ExtraPayment == 0 {
		warnings = append(warnings, "extraPayment is 0; the plan will follow minimum payments only")
	}
	if len(c.IncomeSources) == 0 {
		warnings = append(warnings, "no income sources configured; minimum payments must be funded from current cash")
	}
	for _, d := range c.Debts {
		monthlyInterest := d.Balance * (d.AnnualRate / 100) / constants.MonthsPerYear
		if d.Balance > 0 && d.MinPayment < monthlyInterest {
			warnings = append(warnings,
				fmt.Sprintf("debt %s: minimum payment %.2f does not cover monthly interest %.2f; balance will grow",
					d.Name, d.MinPayment, monthlyInterest))
		}
	}
	return warnings
}

// EngineInputs converts the configuration into the engine's entity snapshot.
// now supplies the reference date when the config omits startDate; simulated
// time is always threaded explicitly from here.
func (c *Configuration) EngineInputs(now time.Time) (engine.Inputs, error) {
	startDate := now
	if c.StartDate != "" {
		parsed, err := time.Parse(DateTimeLayout, c.StartDate)
		if err != nil {
			return engine.Inputs{}, fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
		}
		startDate = parsed
	}
	startDate = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)

	inputs := engine.Inputs{
		StartDate:    startDate,
		StartingCash: money.FromFloat(c.Settings.CurrentCash),
		MaxPeriods:   c.Settings.MaxPeriods,
	}

	percent := decimal.NewFromInt(100)
	seen := make(map[string]bool, len(c.Debts))
	for _, d := range c.Debts {
		if seen[d.Name] {
			return engine.Inputs{}, fmt.Errorf("duplicate debt name %q", d.Name)
		}
		seen[d.Name] = true
		debt, err := model.NewDebt(
			d.Name,
			money.FromFloat(d.Balance),
			money.FromFloat(d.MinPayment),
			decimal.NewFromFloat(d.AnnualRate).Div(percent),
			d.DueDay,
		)
		if err != nil {
			return engine.Inputs{}, err
		}
		inputs.Debts = append(inputs.Debts, debt)
	}

	for _, in := range c.IncomeSources {
		frequency, err := model.ParseFrequency(in.Frequency)
		if err != nil {
			return engine.Inputs{}, fmt.Errorf("income %s: %w", in.Source, err)
		}
		anchor, err := time.Parse(DateTimeLayout, in.AnchorDate)
		if err != nil {
			return engine.Inputs{}, fmt.Errorf("income %s: invalid anchor date %q: %w", in.Source, in.AnchorDate, err)
		}
		income, err := model.NewIncome(in.Source, money.FromFloat(in.Amount), frequency, anchor)
		if err != nil {
			return engine.Inputs{}, err
		}
		inputs.Incomes = append(inputs.Incomes, income)
	}

	for _, e := range c.RecurringExpenses {
		frequency, err := model.ParseFrequency(e.Frequency)
		if err != nil {
			return engine.Inputs{}, fmt.Errorf("expense %s: %w", e.Name, err)
		}
		start, err := time.Parse(DateTimeLayout, e.StartDate)
		if err != nil {
			return engine.Inputs{}, fmt.Errorf("expense %s: invalid start date %q: %w", e.Name, e.StartDate, err)
		}
		expense, err := model.NewRecurringExpense(e.Name, money.FromFloat(e.Amount), frequency, e.Day, start)
		if err != nil {
			return engine.Inputs{}, err
		}
		inputs.Expenses = append(inputs.Expenses, expense)
	}

	var err error
	inputs.FutureIncome, err = convertOverrides(c.FutureIncome, "future income")
	if err != nil {
		return engine.Inputs{}, err
	}
	inputs.FutureExpenses, err = convertOverrides(c.FutureExpenses, "future expense")
	if err != nil {
		return engine.Inputs{}, err
	}

	return inputs, nil
}

// ExtraPayment returns the configured extra payment as a currency amount.
func (c *Configuration) ExtraPayment() decimal.Decimal {
	return money.FromFloat(c.Settings.ExtraPayment)
}

func convertOverrides(overrides []OverrideConfig, kind string) ([]model.CashEvent, error) {
	var events []model.CashEvent
	for _, o := range overrides {
		date, err := time.Parse(DateTimeLayout, o.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid date %q: %w", kind, o.Date, err)
		}
		if o.Amount < 0 {
			return nil, fmt.Errorf("%s on %s: amount cannot be negative", kind, o.Date)
		}
		events = append(events, model.CashEvent{Date: date, Amount: money.FromFloat(o.Amount)})
	}
	return events, nil
}
