package metrics

import (
	"github.com/san-kum/leap/internal/dynamo"
	"github.com/san-kum/leap/internal/residual"
)

// Containment is the fraction of steps the cube spent inside the palm
// region, where the containment cost is zero.
type Containment struct {
	name    string
	inside  int
	samples int
}

func NewContainment() *Containment {
	return &Containment{
		name: "containment",
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(s dynamo.Sample) {
	if len(s.Residual) <= residual.Containment {
		return
	}
	c.samples++
	if s.Residual[residual.Containment] == 0 {
		c.inside++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return float64(c.inside) / float64(c.samples)
}

func (c *Containment) Reset() {
	c.inside = 0
	c.samples = 0
}
