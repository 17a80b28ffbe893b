// Package constants provides shared constants for the debt-optimizer application.
package constants

// DateTimeLayout is the format expected for dates in config files and is also
// the output date format. Due dates and income dates carry a day of month.
const DateTimeLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MoneyPlaces is the number of decimal places for currency rounding
	MoneyPlaces = 2

	// DefaultMaxPeriods is the simulation period ceiling guarding against
	// non-convergence
	DefaultMaxPeriods = 600

	// DaysPerWeek is used when expanding weekly income schedules
	DaysPerWeek = 7

	// DaysPerBiWeek is used when expanding bi-weekly income schedules
	DaysPerBiWeek = 14
)

// Hybrid strategy weights. The blended score is
// HybridRateWeight*normalizedRate + HybridBalanceWeight*normalizedInverseBalance.
const (
	HybridRateWeight    = 0.7
	HybridBalanceWeight = 0.3
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML
	// configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Ledger sync defaults
const (
	// DefaultMatchThreshold is the minimum fuzzy match score (0-100) for a
	// ledger account name to be proposed as a balance update
	DefaultMatchThreshold = 80
)
