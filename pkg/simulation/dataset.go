package simulation

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/datasource"
	"github.com/peter-kozarec/merchant/pkg/datasource/duckdb"
	"github.com/peter-kozarec/merchant/pkg/datasource/historical"
	"github.com/peter-kozarec/merchant/pkg/datasource/synthetic"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

func nopClose() error { return nil }

// OpenDataset builds the dataset a configuration names. The returned close
// function releases its resources.
func OpenDataset(ctx context.Context, logger *zap.Logger, cfg Configuration, parsed Parsed) (datasource.Dataset, func() error, error) {
	switch cfg.Dataset.Kind {
	case DatasetDuckDB:
		store, err := duckdb.Open(ctx, cfg.Dataset.Path, duckdb.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case DatasetHistorical:
		store, err := historical.Open(cfg.Dataset.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case DatasetSynthetic:
		tickers := make([]synthetic.Ticker, 0, len(cfg.Dataset.Tickers))
		for _, ticker := range cfg.Dataset.Tickers {
			t, err := syntheticTicker(ticker)
			if err != nil {
				return nil, nil, err
			}
			tickers = append(tickers, t)
		}
		if len(tickers) == 0 {
			return nil, nil, fmt.Errorf("%w: synthetic dataset needs at least one ticker", ErrInvalidConfiguration)
		}

		steps := int64(parsed.End.Sub(parsed.Start)/cfg.Resolution) + 1
		table, err := synthetic.NewDataset(rand.New(rand.NewSource(cfg.Seed)), parsed.Start, cfg.Resolution, steps, tickers...)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("synthetic dataset generated", zap.Int("tickers", len(tickers)), zap.Int64("steps", steps))
		return table, nopClose, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown dataset kind %q", ErrInvalidConfiguration, cfg.Dataset.Kind)
}

func syntheticTicker(ticker SyntheticTicker) (synthetic.Ticker, error) {
	t := synthetic.Ticker{Symbol: ticker.Symbol}
	for _, f := range []struct {
		name string
		text string
		dst  *fixed.Point
	}{
		{"start_price", ticker.StartPrice, &t.StartPrice},
		{"mu", ticker.Mu, &t.Mu},
		{"sigma", ticker.Sigma, &t.Sigma},
	} {
		v, err := fixed.Parse(f.text)
		if err != nil {
			return synthetic.Ticker{}, fmt.Errorf("%w: %s %s: %v", ErrInvalidConfiguration, ticker.Symbol, f.name, err)
		}
		*f.dst = v
	}
	if !t.StartPrice.IsPos() {
		return synthetic.Ticker{}, fmt.Errorf("%w: %s start price must be positive", ErrInvalidConfiguration, ticker.Symbol)
	}
	return t, nil
}
