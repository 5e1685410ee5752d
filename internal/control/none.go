package control

// None holds the nominal hand pose and commands no cube motion.
type None struct{}

func NewNone() *None { return &None{} }

func (n *None) Compute(in Input, t float64) Command {
	return Command{Joints: nominal(in)}
}

func (n *None) Reset() {}
