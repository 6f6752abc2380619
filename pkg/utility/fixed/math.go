package fixed

func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	sum := Zero
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum.DivInt(len(points))
}

// Returns converts a series of values into simple period returns. Periods
// starting from a zero value are skipped.
func Returns(values []Point) []Point {
	if len(values) < 2 {
		return nil
	}
	returns := make([]Point, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1].IsZero() {
			continue
		}
		returns = append(returns, values[i].Sub(values[i-1]).Div(values[i-1]))
	}
	return returns
}

func Variance(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	return squaredDeviations(points, mean).DivInt(len(points))
}

func SampleVariance(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	return squaredDeviations(points, mean).DivInt(len(points) - 1)
}

func StdDev(points []Point, mean Point) Point {
	return Variance(points, mean).Sqrt()
}

func SampleStdDev(points []Point, mean Point) Point {
	return SampleVariance(points, mean).Sqrt()
}

func DownsideDev(points []Point, threshold Point) Point {
	sum, count := downsideSquares(points, threshold)
	if count <= 1 {
		return Zero
	}
	return sum.DivInt(count).Sqrt()
}

func SampleDownsideDev(points []Point, threshold Point) Point {
	sum, count := downsideSquares(points, threshold)
	if count <= 1 {
		return Zero
	}
	return sum.DivInt(count - 1).Sqrt()
}

func SharpeRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	volatility := StdDev(points, mean)
	if volatility.IsZero() {
		return Zero
	}

	return mean.Sub(riskFreeRate).Div(volatility)
}

func SortinoRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	downsideDeviation := DownsideDev(points, riskFreeRate)
	if downsideDeviation.IsZero() {
		return Zero
	}

	return mean.Sub(riskFreeRate).Div(downsideDeviation)
}

// MaxDrawdown returns the largest peak-to-trough decline of values as a
// positive fraction of the peak.
func MaxDrawdown(values []Point) Point {
	maxDrawdown := Zero
	if len(values) == 0 {
		return maxDrawdown
	}

	peak := values[0]
	for _, value := range values[1:] {
		if value.Gt(peak) {
			peak = value
			continue
		}
		if !peak.IsPos() {
			continue
		}
		if drawdown := peak.Sub(value).Div(peak); drawdown.Gt(maxDrawdown) {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

func squaredDeviations(points []Point, mean Point) Point {
	sum := Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}
	return sum
}

func downsideSquares(points []Point, threshold Point) (Point, int) {
	sum := Zero
	count := 0
	for _, point := range points {
		if point.Lt(threshold) {
			diff := point.Sub(threshold)
			sum = sum.Add(diff.Mul(diff))
			count++
		}
	}
	return sum, count
}
