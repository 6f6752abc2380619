package simulation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/merchant/pkg/portfolio"
	"github.com/peter-kozarec/merchant/pkg/utility/fixed"
)

type Report struct {
	Episode             int
	StartDate           time.Time
	EndDate             time.Time
	InitialValue        fixed.Point
	FinalValue          fixed.Point
	TotalProfit         fixed.Point
	AnnualizedReturn    fixed.Point
	MaxDrawdown         fixed.Point
	TotalTrades         int
	ClosedPositions     int
	WinningPositions    int
	LosingPositions     int
	WinRate             fixed.Point
	Expectancy          fixed.Point
	ProfitFactor        fixed.Point
	AverageWin          fixed.Point
	AverageLoss         fixed.Point
	RiskRewardRatio     fixed.Point
	AveragePositionTime time.Duration
	RecoveryFactor      fixed.Point
	SharpeRatio         fixed.Point
	SortinoRatio        fixed.Point
	Volatility          fixed.Point
	CalmarRatio         fixed.Point
}

// GenerateReport summarizes the value and position history of p. Benchmarks
// that lack history stay zero.
func GenerateReport(p *portfolio.Portfolio) Report {
	report := Report{}

	history := p.ValueHistory()
	if len(history) > 0 {
		first, last := history[0], history[len(history)-1]
		report.StartDate = first.TimeStamp
		report.EndDate = last.TimeStamp
		report.InitialValue = first.Value.Quantity()
		report.FinalValue = last.Value.Quantity()
		if report.InitialValue.IsPos() {
			report.TotalProfit = report.FinalValue.Div(report.InitialValue).Sub(fixed.One).Mul(fixed.Hundred).Rescale(2)
		}
	}

	benchmarks := portfolio.NewBenchmarks(p)
	if cagr, err := benchmarks.CAGR(); err == nil {
		report.AnnualizedReturn = cagr.Mul(fixed.Hundred).Rescale(2)
	}
	if drawdown, err := benchmarks.MaxDrawdown(); err == nil {
		report.MaxDrawdown = drawdown.Mul(fixed.Hundred).Rescale(2)
	}
	if volatility, err := benchmarks.Volatility(); err == nil {
		report.Volatility = volatility.Mul(fixed.Hundred).Rescale(4)
	}
	if sharpe, err := benchmarks.SharpeRatio(fixed.Zero); err == nil {
		report.SharpeRatio = sharpe.Rescale(5)
	}
	if sortino, err := benchmarks.SortinoRatio(fixed.Zero); err == nil {
		report.SortinoRatio = sortino.Rescale(5)
	}
	if calmar, err := benchmarks.CalmarRatio(); err == nil {
		report.CalmarRatio = calmar.Rescale(5)
	}

	report.TotalTrades = len(p.TradeHistory())

	var (
		totalDuration time.Duration
		totalProfit   = fixed.Zero
		totalLoss     = fixed.Zero
	)
	for _, position := range p.PositionHistory() {
		pnl, err := position.RealizedPnL()
		if err != nil {
			continue
		}
		report.ClosedPositions++
		totalDuration += position.Duration()

		if pnl.Quantity().IsPos() {
			totalProfit = totalProfit.Add(pnl.Quantity())
			report.WinningPositions++
		} else {
			totalLoss = totalLoss.Add(pnl.Quantity().Neg())
			report.LosingPositions++
		}
	}

	if report.WinningPositions > 0 {
		report.AverageWin = totalProfit.DivInt(report.WinningPositions)
	}
	if report.LosingPositions > 0 {
		report.AverageLoss = totalLoss.DivInt(report.LosingPositions)
	}
	if totalLoss.IsPos() {
		report.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if report.AverageLoss.IsPos() {
		report.RiskRewardRatio = report.AverageWin.Div(report.AverageLoss)
	}
	if report.ClosedPositions > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt(report.ClosedPositions)
		report.AveragePositionTime = totalDuration / time.Duration(report.ClosedPositions)
		report.WinRate = fixed.FromInt(report.WinningPositions, 0).DivInt(report.ClosedPositions).Mul(fixed.Hundred).Rescale(2)
	}
	if report.MaxDrawdown.IsPos() {
		report.RecoveryFactor = report.TotalProfit.Div(report.MaxDrawdown).Rescale(5)
	}

	return report
}

func (report Report) Print(logger *zap.Logger) {
	logger.Info("performance report",
		zap.Int("episode", report.Episode),
		zap.Time("start", report.StartDate),
		zap.Time("end", report.EndDate),
		zap.String("initial_value", report.InitialValue.String()),
		zap.String("final_value", report.FinalValue.String()),
		zap.String("total_profit", fmt.Sprintf("%s%%", report.TotalProfit.String())),
		zap.String("annualized_return", fmt.Sprintf("%s%%", report.AnnualizedReturn.String())),
		zap.String("max_drawdown", fmt.Sprintf("%s%%", report.MaxDrawdown.String())),
		zap.String("recovery_factor", report.RecoveryFactor.String()),
	)

	logger.Info("position statistics",
		zap.Int("total_trades", report.TotalTrades),
		zap.Int("closed_positions", report.ClosedPositions),
		zap.Int("winning_positions", report.WinningPositions),
		zap.Int("losing_positions", report.LosingPositions),
		zap.String("win_rate", fmt.Sprintf("%s%%", report.WinRate.String())),
		zap.String("expectancy", report.Expectancy.String()),
		zap.String("profit_factor", report.ProfitFactor.String()),
		zap.String("average_win", report.AverageWin.String()),
		zap.String("average_loss", report.AverageLoss.String()),
		zap.String("risk_reward_ratio", report.RiskRewardRatio.String()),
		zap.Duration("average_position_time", report.AveragePositionTime),
	)

	logger.Info("risk metrics",
		zap.String("sharpe_ratio", report.SharpeRatio.String()),
		zap.String("sortino_ratio", report.SortinoRatio.String()),
		zap.String("calmar_ratio", report.CalmarRatio.String()),
		zap.String("volatility", fmt.Sprintf("%s%%", report.Volatility.String())),
	)
}
