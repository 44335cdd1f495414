package domain

import (
	"log/slog"
	"math"
)

// ComputeMode tells a model what to do with inputs outside its validity range.
type ComputeMode int

const (
	// ModeExtrapolate evaluates the model regardless of its validity range.
	ModeExtrapolate ComputeMode = iota
	// ModeBounded rejects inputs outside the validity range.
	ModeBounded
)

func (m ComputeMode) String() string {
	if m == ModeBounded {
		return "bounded"
	}
	return "extrapolate"
}

// ComfortInputs is a column-oriented batch of model inputs. All slices have
// the same length. Mean radiant temperature equals dry-bulb temperature since
// EPW carries no radiant temperature field.
type ComfortInputs struct {
	DryBulb          []float64 // C
	MeanRadiant      []float64 // C
	WindSpeed        []float64 // m/s at 10 m
	RelativeHumidity []float64 // %
}

// Len returns the batch size.
func (in ComfortInputs) Len() int { return len(in.DryBulb) }

// ComfortOutcome is the result for one batch element. Err is non-nil (and
// wraps ErrModelComputation) when the model rejected the input.
type ComfortOutcome struct {
	Value float64
	Err   error
}

// ComfortModel computes one derived comfort column from a batch of inputs.
// ComputeBatch must return exactly in.Len() outcomes.
type ComfortModel interface {
	Name() string
	Inputs() []Field
	ComputeBatch(in ComfortInputs, mode ComputeMode) []ComfortOutcome
}

// Saturable is implemented by models with a bounded wind-speed input. When
// saturation is enabled the wind speed is clamped to these bounds and the
// model runs in ModeBounded.
type Saturable interface {
	WindSpeedBounds() (lo, hi float64)
}

// ComfortResult maps model name to value for one record. A model is absent
// when it could not produce a value.
type ComfortResult map[string]float64

// ModelStats counts the per-record outcomes of one model over one file.
type ModelStats struct {
	Computed     int
	MissingInput int
	Rejected     int
	Saturated    int
}

// ComfortStats is keyed by model name.
type ComfortStats map[string]ModelStats

// ComfortColumns returns the column names the models produce, in model order.
func ComfortColumns(models []ComfortModel) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name()
	}
	return names
}

// ComputeComfortColumns runs every model over the records of one file and
// returns one ComfortResult per record, index-aligned with records. In strict
// mode it returns nil without touching the models.
//
// Each model sees a single batch made of the records whose required inputs
// are all present. Rejected or non-finite outcomes leave the value absent;
// nothing a model does is propagated to the caller.
func ComputeComfortColumns(records []HourlyRecord, models []ComfortModel, opts Options, logger *slog.Logger) ([]ComfortResult, ComfortStats) {
	if opts.Strict {
		return nil, nil
	}

	results := make([]ComfortResult, len(records))
	for i := range results {
		results[i] = make(ComfortResult, len(models))
	}
	stats := make(ComfortStats, len(models))

	for _, m := range models {
		name := m.Name()
		var st ModelStats

		idx, in := gatherInputs(records, m.Inputs(), &st)
		if len(idx) == 0 {
			stats[name] = st
			continue
		}

		mode := ModeExtrapolate
		if s, ok := m.(Saturable); ok && opts.LimitUTCI {
			lo, hi := s.WindSpeedBounds()
			for j, v := range in.WindSpeed {
				clamped := Saturate(v, lo, hi)
				if clamped != v {
					st.Saturated++
				}
				in.WindSpeed[j] = clamped
			}
			mode = ModeBounded
		}

		outcomes := m.ComputeBatch(in, mode)
		if len(outcomes) != len(idx) {
			logger.Warn("comfort model returned wrong number of outcomes",
				"model", name,
				"want", len(idx),
				"got", len(outcomes),
			)
			st.Rejected += len(idx)
			stats[name] = st
			continue
		}

		for j, o := range outcomes {
			if o.Err != nil || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
				st.Rejected++
				continue
			}
			results[idx[j]][name] = o.Value
			st.Computed++
		}
		if st.Rejected > 0 {
			logger.Debug("comfort model rejected records",
				"model", name,
				"mode", mode.String(),
				"rejected", st.Rejected,
			)
		}
		stats[name] = st
	}
	return results, stats
}

// gatherInputs builds the batch for one model and returns the record index of
// every batch element.
func gatherInputs(records []HourlyRecord, required []Field, st *ModelStats) ([]int, ComfortInputs) {
	idx := make([]int, 0, len(records))
	in := ComfortInputs{
		DryBulb:          make([]float64, 0, len(records)),
		MeanRadiant:      make([]float64, 0, len(records)),
		WindSpeed:        make([]float64, 0, len(records)),
		RelativeHumidity: make([]float64, 0, len(records)),
	}
	for i := range records {
		r := &records[i]
		if !hasAll(r, required) {
			st.MissingInput++
			continue
		}
		idx = append(idx, i)
		ta := r.Readings[DryBulbTemperature].Value
		in.DryBulb = append(in.DryBulb, ta)
		in.MeanRadiant = append(in.MeanRadiant, ta)
		in.WindSpeed = append(in.WindSpeed, r.Readings[WindSpeed].Value)
		in.RelativeHumidity = append(in.RelativeHumidity, r.Readings[RelativeHumidity].Value)
	}
	return idx, in
}

func hasAll(r *HourlyRecord, fields []Field) bool {
	for _, f := range fields {
		if !r.Readings[f].Valid {
			return false
		}
	}
	return true
}
