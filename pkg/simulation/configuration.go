package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

const (
	DatasetDuckDB     = "duckdb"
	DatasetHistorical = "historical"
	DatasetSynthetic  = "synthetic"
)

type SyntheticTicker struct {
	Symbol     string `mapstructure:"symbol"`
	StartPrice string `mapstructure:"start_price"`
	Mu         string `mapstructure:"mu"`
	Sigma      string `mapstructure:"sigma"`
}

type DatasetConfiguration struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`

	// Synthetic only.
	Tickers []SyntheticTicker `mapstructure:"tickers"`
}

// Configuration of a simulation run. Decimals and timestamps are kept as
// text so they survive config files exactly.
type Configuration struct {
	Name     string `mapstructure:"name"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Episodes int    `mapstructure:"episodes"`
	Seed     int64  `mapstructure:"seed"`

	Resolution     time.Duration `mapstructure:"resolution"`
	StepIncrement  time.Duration `mapstructure:"step"`
	WindowSize     int           `mapstructure:"window_size"`
	ObserverWindow int           `mapstructure:"observer_window"`

	Quote               string `mapstructure:"quote"`
	QuotePrecision      int    `mapstructure:"quote_precision"`
	InstrumentPrecision int    `mapstructure:"instrument_precision"`
	InitialCash         string `mapstructure:"initial_cash"`
	Slippage            string `mapstructure:"slippage"`
	FeeRate             string `mapstructure:"fee_rate"`

	Strategy string `mapstructure:"strategy"`
	Symbol   string `mapstructure:"symbol"`
	Journal  string `mapstructure:"journal"`

	Dataset DatasetConfiguration `mapstructure:"dataset"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Name:                "merchant",
		Episodes:            1,
		Resolution:          time.Minute,
		StepIncrement:       time.Minute,
		WindowSize:          100,
		ObserverWindow:      512,
		Quote:               "USD",
		QuotePrecision:      8,
		InstrumentPrecision: 4,
		InitialCash:         "10000",
		Slippage:            "0.0001",
		FeeRate:             "0",
		Strategy:            StrategyNoop,
		Dataset: DatasetConfiguration{
			Kind: DatasetSynthetic,
			Tickers: []SyntheticTicker{
				{Symbol: "BTC", StartPrice: "40000", Mu: "0.05", Sigma: "0.6"},
			},
		},
	}
}

// Fingerprint hashes every setting that shapes the simulated market and the
// strategy. Runs with equal fingerprints replay identically.
func (c Configuration) Fingerprint() string {
	c.Name, c.Journal, c.Episodes = "", "", 0
	return fmt.Sprintf("%016x", xxh3.HashString(fmt.Sprintf("%+v", c)))
}

// Parsed holds the typed values of a validated configuration.
type Parsed struct {
	Start       time.Time
	End         time.Time
	InitialCash fixed.Point
	Slippage    fixed.Point
	FeeRate     fixed.Point
}

func (c Configuration) Parse() (Parsed, error) {
	var parsed Parsed
	var err error

	if parsed.Start, err = time.Parse(time.RFC3339, c.Start); err != nil {
		return Parsed{}, fmt.Errorf("%w: start: %v", ErrInvalidConfiguration, err)
	}
	if parsed.End, err = time.Parse(time.RFC3339, c.End); err != nil {
		return Parsed{}, fmt.Errorf("%w: end: %v", ErrInvalidConfiguration, err)
	}
	if !parsed.End.After(parsed.Start) {
		return Parsed{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidConfiguration, c.End, c.Start)
	}

	for name, dst := range map[string]struct {
		text string
		dst  *fixed.Point
	}{
		"initial_cash": {c.InitialCash, &parsed.InitialCash},
		"slippage":     {c.Slippage, &parsed.Slippage},
		"fee_rate":     {c.FeeRate, &parsed.FeeRate},
	} {
		text := dst.text
		if text == "" {
			text = "0"
		}
		v, err := fixed.Parse(text)
		if err != nil {
			return Parsed{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, name, err)
		}
		if v.IsNeg() {
			return Parsed{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfiguration, name)
		}
		*dst.dst = v
	}

	switch {
	case c.Episodes <= 0:
		return Parsed{}, fmt.Errorf("%w: episodes must be positive", ErrInvalidConfiguration)
	case c.Resolution <= 0:
		return Parsed{}, fmt.Errorf("%w: resolution must be positive", ErrInvalidConfiguration)
	case c.StepIncrement <= 0:
		return Parsed{}, fmt.Errorf("%w: step must be positive", ErrInvalidConfiguration)
	case c.Quote == "":
		return Parsed{}, fmt.Errorf("%w: quote instrument is required", ErrInvalidConfiguration)
	}

	return parsed, nil
}
