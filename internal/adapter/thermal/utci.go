package thermal

import (
	"fmt"
	"math"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Validity range of the UTCI regression.
const (
	utciMinTemp   = -50.0
	utciMaxTemp   = 50.0
	utciMinDeltaR = -30.0
	utciMaxDeltaR = 70.0
	utciMinWind   = 0.5
	utciMaxWind   = 17.0
)

// UTCI is the Universal Thermal Climate Index, evaluated with the sixth-order
// polynomial approximation. Wind speed is taken at 10 m.
type UTCI struct{}

func (UTCI) Name() string { return "utci" }

func (UTCI) Inputs() []domain.Field {
	return []domain.Field{domain.DryBulbTemperature, domain.WindSpeed, domain.RelativeHumidity}
}

// WindSpeedBounds makes UTCI a domain.Saturable model.
func (UTCI) WindSpeedBounds() (float64, float64) { return utciMinWind, utciMaxWind }

func (u UTCI) ComputeBatch(in domain.ComfortInputs, mode domain.ComputeMode) []domain.ComfortOutcome {
	out := make([]domain.ComfortOutcome, in.Len())
	for i := range out {
		v, err := u.Compute(in.DryBulb[i], in.MeanRadiant[i], in.WindSpeed[i], in.RelativeHumidity[i], mode)
		out[i] = domain.ComfortOutcome{Value: v, Err: err}
	}
	return out
}

// Compute evaluates UTCI for one set of conditions: air temperature ta (C),
// mean radiant temperature tr (C), wind speed va (m/s) and relative
// humidity rh (%).
func (UTCI) Compute(ta, tr, va, rh float64, mode domain.ComputeMode) (float64, error) {
	if !finite(ta, tr, va, rh) {
		return 0, &domain.ModelError{Model: "utci", Reason: "non-finite input"}
	}
	dt := tr - ta
	if mode == domain.ModeBounded {
		switch {
		case ta < utciMinTemp || ta > utciMaxTemp:
			return 0, &domain.ModelError{Model: "utci", Reason: fmt.Sprintf("air temperature %g outside [%g, %g]", ta, utciMinTemp, utciMaxTemp)}
		case dt < utciMinDeltaR || dt > utciMaxDeltaR:
			return 0, &domain.ModelError{Model: "utci", Reason: fmt.Sprintf("radiant difference %g outside [%g, %g]", dt, utciMinDeltaR, utciMaxDeltaR)}
		case va < utciMinWind || va > utciMaxWind:
			return 0, &domain.ModelError{Model: "utci", Reason: fmt.Sprintf("wind speed %g outside [%g, %g]", va, utciMinWind, utciMaxWind)}
		}
	}

	pa := saturationVapourPressure(ta) * rh / 1000 // kPa

	var tp, vp, dp, pp [7]float64
	powers(&tp, ta)
	powers(&vp, va)
	powers(&dp, dt)
	powers(&pp, pa)

	sum := ta
	i := 0
	for p := 0; p <= 6; p++ {
		for d := 0; d <= 6-p; d++ {
			for v := 0; v <= 6-p-d; v++ {
				for t := 0; t <= 6-p-d-v; t++ {
					sum += utciCoefficients[i] * tp[t] * vp[v] * dp[d] * pp[p]
					i++
				}
			}
		}
	}
	return sum, nil
}

func powers(dst *[7]float64, x float64) {
	dst[0] = 1
	for i := 1; i < len(dst); i++ {
		dst[i] = dst[i-1] * x
	}
}

// saturationVapourPressure returns the saturation vapour pressure over water
// in hPa (Hardy 1998, ITS-90).
func saturationVapourPressure(ta float64) float64 {
	g := [8]float64{
		-2.8365744e3, -6.028076559e3, 1.954263612e1, -2.737830188e-2,
		1.6261698e-5, 7.0229056e-10, -1.8680009e-13, 2.7150305,
	}
	tk := ta + 273.15
	e := g[7] * math.Log(tk)
	for i := 0; i < 7; i++ {
		e += g[i] * math.Pow(tk, float64(i-2))
	}
	return math.Exp(e) * 0.01
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
