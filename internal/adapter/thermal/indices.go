package thermal

import (
	"math"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// formula is a closed-form index that returns a value for every finite
// input. It ignores the compute mode.
type formula struct {
	name   string
	inputs []domain.Field
	eval   func(ta, va, rh float64) float64
}

func (f formula) Name() string { return f.name }
func (f formula) Inputs() []domain.Field { return f.inputs }

func (f formula) ComputeBatch(in domain.ComfortInputs, _ domain.ComputeMode) []domain.ComfortOutcome {
	out := make([]domain.ComfortOutcome, in.Len())
	for i := range out {
		ta, va, rh := in.DryBulb[i], in.WindSpeed[i], in.RelativeHumidity[i]
		if !finite(ta, va, rh) {
			out[i].Err = &domain.ModelError{Model: f.name, Reason: "non-finite input"}
			continue
		}
		out[i].Value = f.eval(ta, va, rh)
	}
	return out
}

var tempHumidity = []domain.Field{domain.DryBulbTemperature, domain.RelativeHumidity}

var tempHumidityWind = []domain.Field{domain.DryBulbTemperature, domain.WindSpeed, domain.RelativeHumidity}

// HeatIndex is the US National Weather Service heat index in degrees
// Celsius: Steadman's simple estimate below 80 F, otherwise the Rothfusz
// regression with the low and high humidity adjustments.
func HeatIndex() domain.ComfortModel {
	return formula{name: "heat_index", inputs: tempHumidity, eval: heatIndex}
}

func heatIndex(tc, _, rh float64) float64 {
	t := tc*9/5 + 32

	simple := 0.5 * (t + 61 + (t-68)*1.2 + rh*0.094)
	if (simple+t)/2 < 80 {
		return fahrenheitToCelsius(simple)
	}

	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		6.83783e-3*t*t -
		5.481717e-2*rh*rh +
		1.22874e-3*t*t*rh +
		8.5282e-4*t*rh*rh -
		1.99e-6*t*t*rh*rh

	switch {
	case rh < 13 && t >= 80 && t <= 112:
		hi -= (13 - rh) / 4 * math.Sqrt((17-math.Abs(t-95))/17)
	case rh > 85 && t >= 80 && t <= 87:
		hi += (rh - 85) / 10 * (87 - t) / 5
	}
	return fahrenheitToCelsius(hi)
}

func fahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

// Humidex is the Canadian humidity index (Masterson and Richardson 1979).
func Humidex() domain.ComfortModel {
	return formula{name: "humidex", inputs: tempHumidity, eval: humidex}
}

func humidex(t, _, rh float64) float64 {
	e := 6.112 * math.Pow(10, 7.5*t/(237.7+t)) * rh / 100
	return t + 5.0/9.0*(e-10)
}

// ApparentTemperature is Steadman's apparent temperature including wind,
// without the radiation term.
func ApparentTemperature() domain.ComfortModel {
	return formula{name: "apparent_temperature", inputs: tempHumidityWind, eval: apparentTemperature}
}

func apparentTemperature(t, v, rh float64) float64 {
	e := rh / 100 * 6.105 * math.Exp(17.27*t/(237.7+t))
	return t + 0.33*e - 0.70*v - 4.0
}

// NormalEffectiveTemperature is Missenard's NET with the Li and Chan wind term.
func NormalEffectiveTemperature() domain.ComfortModel {
	return formula{name: "normal_effective_temperature", inputs: tempHumidityWind, eval: normalEffectiveTemperature}
}

func normalEffectiveTemperature(t, v, rh float64) float64 {
	frac := 1.76 + 1.4*math.Pow(v, 0.75)
	return 37 - (37-t)/(0.68-0.0014*rh+1/frac) - 0.29*t*(1-0.01*rh)
}
