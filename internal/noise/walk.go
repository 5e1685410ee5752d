package noise

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/leap/internal/rotation"
)

// Walk is a 3-D random walk clamped to a box.
type Walk struct {
	value r3.Vec
}

// Step adds bias plus a zero-mean Gaussian increment with deviation std to
// every component, then clamps each component to [-max, max].
func (w *Walk) Step(bias r3.Vec, std, max float64, src rand.Source) r3.Vec {
	g := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	inc := r3.Vec{X: g.Rand(), Y: g.Rand(), Z: g.Rand()}
	w.value = rotation.Clamp(r3.Add(w.value, r3.Add(bias, inc)), max)
	return w.value
}

func (w *Walk) Value() r3.Vec { return w.value }

func (w *Walk) Reset() { w.value = r3.Vec{} }
