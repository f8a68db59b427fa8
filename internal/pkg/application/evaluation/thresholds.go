package evaluation

import (
	"github.com/diwise/iot-room-monitor/pkg/types"
)

const (
	CO2Warning     float64 = 1000
	TemperatureMin float64 = 19
	TemperatureMax float64 = 25
	HumidityMin    float64 = 30
	HumidityMax    float64 = 70
)

type Severity string

const (
	SeverityNone    Severity = "none"
	SeverityWarning Severity = "warning"
)

type Verdict struct {
	InRange   bool
	Severity  Severity
	Threshold float64
}

type rule func(value float64) Verdict

// The bounds are not symmetric across metrics: co2 and the lower humidity bound
// breach on equality, the temperature bounds and the upper humidity bound do not.
var rules = map[types.MetricType]rule{
	types.MetricCO2: func(v float64) Verdict {
		if v >= CO2Warning {
			return warning(CO2Warning)
		}
		return inRange(CO2Warning)
	},
	types.MetricTemperature: func(v float64) Verdict {
		if v > TemperatureMax {
			return warning(TemperatureMax)
		}
		if v < TemperatureMin {
			return warning(TemperatureMin)
		}
		return inRange(TemperatureMax)
	},
	types.MetricHumidity: func(v float64) Verdict {
		if v > HumidityMax {
			return warning(HumidityMax)
		}
		if v <= HumidityMin {
			return warning(HumidityMin)
		}
		return inRange(HumidityMax)
	},
}

// Evaluate applies the fixed threshold rule for a metric. NaN never compares
// true and is therefore reported as in range, as is any unknown metric type.
func Evaluate(metric types.MetricType, value float64) Verdict {
	r, ok := rules[metric]
	if !ok {
		return inRange(0)
	}
	return r(value)
}

func warning(threshold float64) Verdict {
	return Verdict{InRange: false, Severity: SeverityWarning, Threshold: threshold}
}

func inRange(threshold float64) Verdict {
	return Verdict{InRange: true, Severity: SeverityNone, Threshold: threshold}
}
