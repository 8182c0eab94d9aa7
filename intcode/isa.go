package intcode

func registerBaseline(m *Machine) {
	m.Register(Add, func(c *Context) int {
		c.Store(3, c.Param(1)+c.Param(2))
		return c.Next(3)
	})
	m.Register(Mul, func(c *Context) int {
		c.Store(3, c.Param(1)*c.Param(2))
		return c.Next(3)
	})
	m.Register(In, func(c *Context) int {
		c.Store(1, c.Input())
		return c.Next(1)
	})
	m.Register(Out, func(c *Context) int {
		c.Output(c.Param(1))
		return c.Next(1)
	})
	m.Register(JumpNZ, func(c *Context) int {
		if c.Param(1) != 0 {
			return c.Jump(c.Param(2))
		}
		return c.Next(2)
	})
	m.Register(JumpZ, func(c *Context) int {
		if c.Param(1) == 0 {
			return c.Jump(c.Param(2))
		}
		return c.Next(2)
	})
	m.Register(Less, func(c *Context) int {
		c.Store(3, boolWord(c.Param(1) < c.Param(2)))
		return c.Next(3)
	})
	m.Register(Equal, func(c *Context) int {
		c.Store(3, boolWord(c.Param(1) == c.Param(2)))
		return c.Next(3)
	})
}

func boolWord(b bool) Word {
	if b {
		return 1
	}
	return 0
}
