package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/peter-kozarec/merchant/pkg/common"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

// ReadCSV reads candles from CSV with a header row holding Columns in any
// order. Timestamps are RFC3339 or unix seconds.
func ReadCSV(r io.Reader) ([]common.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range Columns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, column)
		}
	}

	var candles []common.Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		candle, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, ErrEmptyDataset
	}
	SortCandles(candles)
	return candles, nil
}

func parseRecord(record []string, index map[string]int) (common.Candle, error) {
	get := func(column string) string {
		return strings.TrimSpace(record[index[column]])
	}

	ts, err := parseTimestamp(get("timestamp"))
	if err != nil {
		return common.Candle{}, err
	}
	trades, err := strconv.ParseInt(get("trades"), 10, 64)
	if err != nil {
		return common.Candle{}, fmt.Errorf("%w: trades: %v", ErrSchemaMismatch, err)
	}

	candle := common.Candle{Symbol: get("ticker"), TimeStamp: ts, Trades: trades}
	for column, dst := range map[string]*fixed.Point{
		"open":     &candle.Open,
		"high":     &candle.High,
		"low":      &candle.Low,
		"close":    &candle.Close,
		"volume":   &candle.Volume,
		"vw_price": &candle.VWPrice,
	} {
		v, err := fixed.Parse(get(column))
		if err != nil {
			return common.Candle{}, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, column, err)
		}
		*dst = v
	}
	return candle, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrSchemaMismatch, s)
	}
	return ts.UTC(), nil
}
