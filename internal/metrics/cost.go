package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/leap/internal/dynamo"
)

// Cost is the mean quadratic cost 0.5*|r|^2 of the residual vector.
type Cost struct {
	name    string
	samples int
	total   float64
}

func NewCost() *Cost {
	return &Cost{
		name: "cost",
	}
}

func (c *Cost) Name() string { return c.name }

func (c *Cost) Observe(s dynamo.Sample) {
	if len(s.Residual) == 0 {
		return
	}
	n := floats.Norm(s.Residual, 2)
	c.total += 0.5 * n * n
	c.samples++
}

func (c *Cost) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.total / float64(c.samples)
}

func (c *Cost) Reset() {
	c.samples = 0
	c.total = 0
}
