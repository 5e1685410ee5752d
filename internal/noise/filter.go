package noise

import "gonum.org/v1/gonum/floats"

// EMA is a per-component exponential moving average:
//
//	out[t] = alpha*raw[t] + (1-alpha)*out[t-1],  out[-1] = 0
type EMA struct {
	value []float64
}

func NewEMA(n int) *EMA {
	return &EMA{value: make([]float64, n)}
}

// Update folds raw into the average and returns the new value. The returned
// slice is owned by the filter.
func (f *EMA) Update(alpha float64, raw []float64) []float64 {
	floats.Scale(1-alpha, f.value)
	floats.AddScaled(f.value, alpha, raw)
	return f.value
}

func (f *EMA) Value() []float64 { return f.value }

func (f *EMA) Reset() {
	for i := range f.value {
		f.value[i] = 0
	}
}
