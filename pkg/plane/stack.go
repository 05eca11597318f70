package plane

import "fmt"

// Above returns the plane directly above h, or None.
func (c *Context) Above(h Handle) Handle {
	if p := c.get(h); p != nil {
		return p.Above
	}
	return None
}

// Below returns the plane directly below h, or None.
func (c *Context) Below(h Handle) Handle {
	if p := c.get(h); p != nil {
		return p.Below
	}
	return None
}

// MoveTop makes h the frontmost plane.
func (c *Context) MoveTop(h Handle) error {
	if err := c.restackable(h); err != nil {
		return err
	}
	if c.top == h {
		return nil
	}
	c.unlink(h)
	c.insertTop(h)
	c.logger.Debug("raised plane", "plane", c.Token(h))
	return nil
}

// MoveBottom makes h the rearmost plane.
func (c *Context) MoveBottom(h Handle) error {
	if err := c.restackable(h); err != nil {
		return err
	}
	if c.bottom == h {
		return nil
	}
	c.unlink(h)
	c.insertBottom(h)
	c.logger.Debug("lowered plane", "plane", c.Token(h))
	return nil
}

// MoveAbove places h directly above target.
func (c *Context) MoveAbove(h, target Handle) error {
	if err := c.restackPair(h, target); err != nil {
		return err
	}
	if c.get(target).Above == h {
		return nil
	}
	c.unlink(h)
	c.insertAbove(h, target)
	c.logger.Debug("restacked plane", "plane", c.Token(h), "above", c.Token(target))
	return nil
}

// MoveBelow places h directly below target.
func (c *Context) MoveBelow(h, target Handle) error {
	if err := c.restackPair(h, target); err != nil {
		return err
	}
	if c.get(target).Below == h {
		return nil
	}
	c.unlink(h)
	c.insertBelow(h, target)
	c.logger.Debug("restacked plane", "plane", c.Token(h), "below", c.Token(target))
	return nil
}

func (c *Context) restackable(h Handle) error {
	if c.closed {
		return ErrClosed
	}
	if c.get(h) == nil {
		return fmt.Errorf("restack %s: %w", h, ErrUnknownPlane)
	}
	return nil
}

func (c *Context) restackPair(h, target Handle) error {
	if err := c.restackable(h); err != nil {
		return err
	}
	if c.get(target) == nil {
		return fmt.Errorf("restack target %s: %w", target, ErrUnknownPlane)
	}
	if h == target {
		return ErrSelfTarget
	}
	return nil
}

// insertTop links an unlinked plane in front of the current top. On an
// empty stack it becomes both top and bottom.
func (c *Context) insertTop(h Handle) {
	p := c.get(h)
	p.Above = None
	p.Below = c.top
	if old := c.get(c.top); old != nil {
		old.Above = h
	} else {
		c.bottom = h
	}
	c.top = h
}

func (c *Context) insertBottom(h Handle) {
	p := c.get(h)
	p.Below = None
	p.Above = c.bottom
	if old := c.get(c.bottom); old != nil {
		old.Below = h
	} else {
		c.top = h
	}
	c.bottom = h
}

func (c *Context) insertAbove(h, target Handle) {
	p, t := c.get(h), c.get(target)
	p.Below = target
	p.Above = t.Above
	if a := c.get(t.Above); a != nil {
		a.Below = h
	} else {
		c.top = h
	}
	t.Above = h
}

func (c *Context) insertBelow(h, target Handle) {
	p, t := c.get(h), c.get(target)
	p.Above = target
	p.Below = t.Below
	if b := c.get(t.Below); b != nil {
		b.Above = h
	} else {
		c.bottom = h
	}
	t.Below = h
}

// unlink splices h out of the stack, updating top and bottom when h was
// an endpoint, and clears its own links.
func (c *Context) unlink(h Handle) {
	p := c.get(h)
	if a := c.get(p.Above); a != nil {
		a.Below = p.Below
	} else {
		c.top = p.Below
	}
	if b := c.get(p.Below); b != nil {
		b.Above = p.Above
	} else {
		c.bottom = p.Above
	}
	p.Above, p.Below = None, None
}
