package thermal_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-merge/internal/adapter/thermal"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

func TestUTCI_ReferenceValues(t *testing.T) {
	tests := []struct {
		name           string
		ta, tr, va, rh float64
		want           float64
	}{
		{"neutral", 25, 25, 1, 50, 24.6121},
		{"warm radiant", 25, 27, 1, 50, 25.1909},
		{"humid breeze", 30, 30, 3, 60, 29.5093},
		{"cold wind", -10, -10, 5, 80, -27.473},
		{"hot sun", 40, 60, 0.5, 20, 44.3885},
		{"wind at upper bound", 25, 25, 17, 50, 11.8063},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := thermal.UTCI{}.Compute(tt.ta, tt.tr, tt.va, tt.rh, domain.ModeBounded)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-3)
		})
	}
}

func TestUTCI_Bounded(t *testing.T) {
	tests := []struct {
		name           string
		ta, tr, va, rh float64
	}{
		{"wind above range", 25, 25, 25, 50},
		{"wind below range", 25, 25, 0.1, 50},
		{"too cold", -55, -55, 2, 50},
		{"too hot", 55, 55, 2, 50},
		{"radiant too low", 25, -10, 2, 50},
		{"non-finite", math.NaN(), 25, 2, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := thermal.UTCI{}.Compute(tt.ta, tt.tr, tt.va, tt.rh, domain.ModeBounded)
			assert.ErrorIs(t, err, domain.ErrModelComputation)
		})
	}
}

func TestUTCI_ExtrapolateDiffersFromSaturated(t *testing.T) {
	u := thermal.UTCI{}

	extrapolated, err := u.Compute(25, 25, 25, 50, domain.ModeExtrapolate)
	require.NoError(t, err)
	atBound, err := u.Compute(25, 25, 17, 50, domain.ModeBounded)
	require.NoError(t, err)

	assert.InDelta(t, 26.1983, extrapolated, 1e-3)
	assert.NotEqual(t, atBound, extrapolated)
}

func TestUTCI_ComputeBatch(t *testing.T) {
	in := domain.ComfortInputs{
		DryBulb:          []float64{25, 25},
		MeanRadiant:      []float64{25, 25},
		WindSpeed:        []float64{1, 30},
		RelativeHumidity: []float64{50, 50},
	}

	out := thermal.UTCI{}.ComputeBatch(in, domain.ModeBounded)

	require.Len(t, out, 2)
	require.NoError(t, out[0].Err)
	assert.InDelta(t, 24.6121, out[0].Value, 1e-3)
	assert.ErrorIs(t, out[1].Err, domain.ErrModelComputation)
}

func TestUTCI_IsSaturable(t *testing.T) {
	var m domain.ComfortModel = thermal.UTCI{}
	s, ok := m.(domain.Saturable)
	require.True(t, ok)

	lo, hi := s.WindSpeedBounds()
	assert.Equal(t, 0.5, lo)
	assert.Equal(t, 17.0, hi)
}

func TestIndices_ReferenceValues(t *testing.T) {
	models := map[string]domain.ComfortModel{}
	for _, m := range thermal.DefaultModels() {
		models[m.Name()] = m
	}

	tests := []struct {
		model      string
		ta, va, rh float64
		want       float64
	}{
		{"heat_index", 30, 0, 60, 32.832},
		{"heat_index", 25, 0, 50, 24.8611},
		{"heat_index", 0, 0, 50, -2.6389},
		{"heat_index", -10, 0, 80, -12.8556},
		{"heat_index", 10, 0, 90, 9.4056},
		{"heat_index", 40, 0, 10, 36.7053},
		{"heat_index", 29, 0, 90, 37.2312},
		{"humidex", 25, 0, 50, 28.227},
		{"humidex", 30, 0, 60, 38.555},
		{"normal_effective_temperature", 37, 0.1, 100, 37.0},
		{"normal_effective_temperature", 20, 2, 50, 14.1713},
		{"apparent_temperature", 25, 0.1, 30, 24.0567},
		{"apparent_temperature", 30, 2, 60, 32.9729},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			m, ok := models[tt.model]
			require.True(t, ok)

			out := m.ComputeBatch(domain.ComfortInputs{
				DryBulb:          []float64{tt.ta},
				MeanRadiant:      []float64{tt.ta},
				WindSpeed:        []float64{tt.va},
				RelativeHumidity: []float64{tt.rh},
			}, domain.ModeBounded)

			require.Len(t, out, 1)
			require.NoError(t, out[0].Err)
			assert.InDelta(t, tt.want, out[0].Value, 1e-3)
		})
	}
}

func TestHeatIndex_StaysNearAirTemperatureWhenCool(t *testing.T) {
	var in domain.ComfortInputs
	for ta := -40.0; ta <= 20; ta += 5 {
		for rh := 0.0; rh <= 100; rh += 10 {
			in.DryBulb = append(in.DryBulb, ta)
			in.MeanRadiant = append(in.MeanRadiant, ta)
			in.WindSpeed = append(in.WindSpeed, 1)
			in.RelativeHumidity = append(in.RelativeHumidity, rh)
		}
	}

	for _, mode := range []domain.ComputeMode{domain.ModeBounded, domain.ModeExtrapolate} {
		out := thermal.HeatIndex().ComputeBatch(in, mode)
		require.Len(t, out, in.Len())
		for i, o := range out {
			require.NoError(t, o.Err)
			assert.InDelta(t, in.DryBulb[i], o.Value, 10, "ta=%v rh=%v", in.DryBulb[i], in.RelativeHumidity[i])
		}
	}
}

func TestIndices_RejectNonFinite(t *testing.T) {
	for _, m := range thermal.DefaultModels() {
		out := m.ComputeBatch(domain.ComfortInputs{
			DryBulb:          []float64{math.Inf(1)},
			MeanRadiant:      []float64{math.Inf(1)},
			WindSpeed:        []float64{1},
			RelativeHumidity: []float64{50},
		}, domain.ModeExtrapolate)

		require.Len(t, out, 1, m.Name())
		assert.ErrorIs(t, out[0].Err, domain.ErrModelComputation, m.Name())
	}
}

func TestDefaultModels_Order(t *testing.T) {
	assert.Equal(t,
		[]string{"utci", "heat_index", "humidex", "apparent_temperature", "normal_effective_temperature"},
		domain.ComfortColumns(thermal.DefaultModels()),
	)
}

func TestNewLoader(t *testing.T) {
	load := thermal.NewLoader()

	first, err := load()
	require.NoError(t, err)
	second, err := load()
	require.NoError(t, err)

	assert.Len(t, first, 5)
	assert.Same(t, &first[0], &second[0])
}
