package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/peter-kozarec/merchant/pkg/simulation"
)

const envPrefix = "MERCHANT"

// configFlags maps command line flags onto configuration keys.
var configFlags = map[string]string{
	"seed":     "seed",
	"episodes": "episodes",
	"strategy": "strategy",
	"symbol":   "symbol",
	"journal":  "journal",
	"start":    "start",
	"end":      "end",
}

// loadConfiguration layers defaults, the config file at path, MERCHANT_*
// environment variables and changed flags, in increasing priority.
func loadConfiguration(path string, flags *pflag.FlagSet) (simulation.Configuration, error) {
	cfg := simulation.DefaultConfiguration()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range configFlags {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return cfg, err
				}
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg simulation.Configuration) {
	v.SetDefault("name", cfg.Name)
	v.SetDefault("start", cfg.Start)
	v.SetDefault("end", cfg.End)
	v.SetDefault("episodes", cfg.Episodes)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("resolution", cfg.Resolution)
	v.SetDefault("step", cfg.StepIncrement)
	v.SetDefault("window_size", cfg.WindowSize)
	v.SetDefault("observer_window", cfg.ObserverWindow)
	v.SetDefault("quote", cfg.Quote)
	v.SetDefault("quote_precision", cfg.QuotePrecision)
	v.SetDefault("instrument_precision", cfg.InstrumentPrecision)
	v.SetDefault("initial_cash", cfg.InitialCash)
	v.SetDefault("slippage", cfg.Slippage)
	v.SetDefault("fee_rate", cfg.FeeRate)
	v.SetDefault("strategy", cfg.Strategy)
	v.SetDefault("symbol", cfg.Symbol)
	v.SetDefault("journal", cfg.Journal)
	v.SetDefault("dataset.kind", cfg.Dataset.Kind)
	v.SetDefault("dataset.path", cfg.Dataset.Path)
	v.SetDefault("dataset.tickers", cfg.Dataset.Tickers)
}
