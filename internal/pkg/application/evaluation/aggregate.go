package evaluation

import (
	"math"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

// Average returns the per-metric mean rounded to two decimals, or zeros for no samples.
func Average(samples []types.Sample) types.Averages {
	if len(samples) == 0 {
		return types.Averages{}
	}

	var sum types.Averages
	for _, s := range samples {
		sum.CO2 += s.CO2
		sum.Temperature += s.Temperature
		sum.Humidity += s.Humidity
	}

	n := float64(len(samples))

	return types.Averages{
		CO2:         round2(sum.CO2 / n),
		Temperature: round2(sum.Temperature / n),
		Humidity:    round2(sum.Humidity / n),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
