package viz

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/leap/internal/rotation"
)

var cubeCorners = [8]r3.Vec{
	{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// view looks at the palm from the front, slightly above.
var view = quat.Mul(rotation.AxisAngle(r3.Vec{X: 1}, 0.45), rotation.AxisAngle(r3.Vec{Z: 1}, -0.6))

// project maps a point in cube half-widths to canvas dots, z up.
func project(c *Canvas, p r3.Vec) (int, int) {
	w, h := c.Dots()
	s := float64(min(w, h)) / 4
	v := rotation.Rotate(view, p)
	return w/2 + int(v.X*s), h/2 - int(v.Z*s)
}

// DrawCube draws the wireframe of a cube at orientation q, with a cross on
// its +z face so that spins about z are visible.
func DrawCube(c *Canvas, q quat.Number) {
	q = rotation.Normalize(q)
	var pts [8][2]int
	for i, v := range cubeCorners {
		pts[i][0], pts[i][1] = project(c, rotation.Rotate(q, v))
	}
	for _, e := range cubeEdges {
		a, b := pts[e[0]], pts[e[1]]
		c.Line(a[0], a[1], b[0], b[1])
	}
	c.Line(pts[4][0], pts[4][1], pts[6][0], pts[6][1])
	c.Line(pts[5][0], pts[5][1], pts[7][0], pts[7][1])
}
