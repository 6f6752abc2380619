package historical

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/datasource"
)

const (
	FileExtension = ".bin"

	storeComponentName = "datasource.historical.store"
)

// Store is a dataset backed by one <TICKER>.bin file per ticker.
type Store struct {
	tickers []string
	sources map[string]*Source[BinaryCandle]
}

func Open(dir string, logger *zap.Logger) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", datasource.ErrDatasetNotFound, dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+FileExtension))
	if err != nil {
		return nil, fmt.Errorf("unable to list %q: %w", dir, err)
	}

	s := &Store{sources: make(map[string]*Source[BinaryCandle])}
	for _, file := range files {
		ticker := strings.TrimSuffix(filepath.Base(file), FileExtension)
		source := NewSource[BinaryCandle](file)
		if err := source.Open(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%w: %w", datasource.ErrSchemaMismatch, err)
		}
		if source.EntryCount() == 0 {
			_ = source.Close()
			continue
		}
		s.tickers = append(s.tickers, ticker)
		s.sources[ticker] = source
	}
	if len(s.tickers) == 0 {
		return nil, fmt.Errorf("%w: %s", datasource.ErrEmptyDataset, dir)
	}
	sort.Strings(s.tickers)

	if logger != nil {
		logger.Info("dataset opened",
			zap.String("component", storeComponentName),
			zap.String("dir", dir),
			zap.Strings("tickers", s.tickers))
	}
	return s, nil
}

func (s *Store) Close() error {
	var firstErr error
	for _, source := range s.sources {
		if err := source.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) Tickers(context.Context) ([]string, error) {
	return append([]string(nil), s.tickers...), nil
}

func (s *Store) Slice(_ context.Context, from, to time.Time) ([]common.Candle, error) {
	var result []common.Candle
	for _, ticker := range s.tickers {
		source := s.sources[ticker]
		lo, err := lookupIndex(source, from.UnixNano())
		if err != nil {
			return nil, err
		}
		hi, err := lookupIndex(source, to.UnixNano())
		if err != nil {
			return nil, err
		}
		candles, err := readRange(source, ticker, lo, hi)
		if err != nil {
			return nil, err
		}
		result = append(result, candles...)
	}
	datasource.SortCandles(result)
	return result, nil
}

func (s *Store) Get(_ context.Context, ts time.Time, count int, direction datasource.Direction) ([]common.Candle, error) {
	if count <= 0 {
		return nil, nil
	}

	var result []common.Candle
	for _, ticker := range s.tickers {
		source := s.sources[ticker]

		var lo, hi int64
		switch direction {
		case datasource.Backward:
			end, err := lookupIndex(source, ts.UnixNano()+1)
			if err != nil {
				return nil, err
			}
			lo, hi = max(0, end-int64(count)), end
		case datasource.Forward:
			begin, err := lookupIndex(source, ts.UnixNano())
			if err != nil {
				return nil, err
			}
			lo, hi = begin, min(source.EntryCount(), begin+int64(count))
		}

		candles, err := readRange(source, ticker, lo, hi)
		if err != nil {
			return nil, err
		}
		result = append(result, candles...)
	}
	datasource.SortCandles(result)
	return result, nil
}

func readRange(source *Source[BinaryCandle], ticker string, lo, hi int64) ([]common.Candle, error) {
	if hi <= lo {
		return nil, nil
	}
	candles := make([]common.Candle, 0, hi-lo)
	var entry BinaryCandle
	for i := lo; i < hi; i++ {
		if err := source.Read(i, &entry); err != nil {
			return nil, fmt.Errorf("error reading entry at index %d: %w", i, err)
		}
		candle, err := entry.ToCandle(ticker)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", datasource.ErrSchemaMismatch, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// lookupIndex returns the index of the first entry with TimeStamp >= ts, or
// the entry count when there is none.
func lookupIndex(source *Source[BinaryCandle], ts int64) (int64, error) {
	var entry BinaryCandle

	low := int64(0)
	high := source.EntryCount() - 1

	for low <= high {
		mid := (low + high) / 2

		if err := source.Read(mid, &entry); err != nil {
			return 0, fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < ts {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return low, nil
}
