// Package thermal implements the human thermal comfort indices the merge
// engine can add to each hourly record.
package thermal

import (
	"fmt"
	"math"
	"sync"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// DefaultModels returns every model in output column order.
func DefaultModels() []domain.ComfortModel {
	return []domain.ComfortModel{
		UTCI{},
		HeatIndex(),
		Humidex(),
		ApparentTemperature(),
		NormalEffectiveTemperature(),
	}
}

// Reference point used to self-check the UTCI table on load.
const (
	checkTa, checkTr, checkVa, checkRh = 25.0, 25.0, 1.0, 50.0
	checkUTCI                          = 24.6121
)

// NewLoader returns a loader that builds the model library once, on first
// call. Callers that never need comfort columns never invoke it.
func NewLoader() func() ([]domain.ComfortModel, error) {
	return sync.OnceValues(func() ([]domain.ComfortModel, error) {
		got, err := UTCI{}.Compute(checkTa, checkTr, checkVa, checkRh, domain.ModeBounded)
		if err != nil {
			return nil, fmt.Errorf("utci self-check: %w", err)
		}
		if math.Abs(got-checkUTCI) > 1e-3 {
			return nil, fmt.Errorf("utci self-check: got %.4f at reference point, want %.4f", got, checkUTCI)
		}
		return DefaultModels(), nil
	})
}
