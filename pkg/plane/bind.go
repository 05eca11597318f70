package plane

import "fmt"

// Bind binds child to parent, inserting it at the head of the parent's
// bound list. A child bound elsewhere is rebound; binding a child to its
// current parent changes nothing.
//
// Bind fails with ErrSelfBinding when child == parent and with
// ErrBindingCycle when parent is a descendant of child; both match
// ErrInvalidBinding. The standard plane cannot be bound under another
// plane. On failure nothing changes.
func (c *Context) Bind(child, parent Handle) error {
	if err := c.checkBind(child, parent); err != nil {
		return err
	}
	cp := c.get(child)
	if cp.BoundTo == parent {
		return nil
	}
	c.unlinkBinding(child)
	c.link(child, parent)
	c.logger.Debug("bound plane", "plane", cp.ID, "parent", c.Token(parent))
	return nil
}

// Rebind moves child from its current parent to parent. The new binding
// is validated before the old one is dropped, so a failed Rebind leaves
// the old binding intact.
func (c *Context) Rebind(child, parent Handle) error {
	return c.Bind(child, parent)
}

// Unbind removes child from its parent's bound list. Unbinding a plane
// that is not bound is a no-op.
func (c *Context) Unbind(child Handle) error {
	if c.closed {
		return ErrClosed
	}
	cp := c.get(child)
	if cp == nil {
		return fmt.Errorf("unbind %s: %w", child, ErrUnknownPlane)
	}
	if cp.BoundTo == None {
		return nil
	}
	c.unlinkBinding(child)
	c.logger.Debug("unbound plane", "plane", cp.ID)
	return nil
}

// Parent returns the plane h is bound to, or None.
func (c *Context) Parent(h Handle) Handle {
	if p := c.get(h); p != nil {
		return p.BoundTo
	}
	return None
}

// Children returns the planes bound to h in list order, most recently
// bound first.
func (c *Context) Children(h Handle) []Handle {
	p := c.get(h)
	if p == nil {
		return nil
	}
	var out []Handle
	for child := p.BoundHead; child != None && len(out) < c.count; {
		cp := c.get(child)
		if cp == nil {
			break
		}
		out = append(out, child)
		child = cp.BoundNext
	}
	return out
}

// IsDescendant reports whether h is bound, directly or transitively,
// beneath of.
func (c *Context) IsDescendant(h, of Handle) bool {
	p := c.get(h)
	for steps := 0; p != nil && steps < c.count; steps++ {
		if p.BoundTo == None {
			return false
		}
		if p.BoundTo == of {
			return true
		}
		p = c.get(p.BoundTo)
	}
	return false
}

func (c *Context) checkBind(child, parent Handle) error {
	if c.closed {
		return ErrClosed
	}
	cp := c.get(child)
	if cp == nil {
		return fmt.Errorf("bind %s: %w", child, ErrUnknownPlane)
	}
	if c.get(parent) == nil {
		return fmt.Errorf("bind parent %s: %w", parent, ErrUnknownPlane)
	}
	if child == parent {
		return ErrSelfBinding
	}
	if cp.Std {
		return fmt.Errorf("bind: %w", ErrStdPlane)
	}
	if c.IsDescendant(parent, child) {
		return fmt.Errorf("%w: %s is bound beneath %s", ErrBindingCycle, c.Token(parent), c.Token(child))
	}
	return nil
}

// link makes child the head of parent's bound list. child must be
// unbound. The former head's back-reference moves to child.
func (c *Context) link(child, parent Handle) {
	cp, pp := c.get(child), c.get(parent)
	cp.BoundTo = parent
	cp.BoundPrev = None
	cp.BoundNext = pp.BoundHead
	if old := c.get(pp.BoundHead); old != nil {
		old.BoundPrev = child
	}
	pp.BoundHead = child
}

// unlinkBinding splices child out of its parent's list through the slot
// its back-reference names, then clears its binding links.
func (c *Context) unlinkBinding(child Handle) {
	cp := c.get(child)
	if cp.BoundTo == None {
		return
	}
	if prev := c.get(cp.BoundPrev); prev != nil {
		prev.BoundNext = cp.BoundNext
	} else if parent := c.get(cp.BoundTo); parent != nil {
		parent.BoundHead = cp.BoundNext
	}
	if next := c.get(cp.BoundNext); next != nil {
		next.BoundPrev = cp.BoundPrev
	}
	cp.BoundTo, cp.BoundPrev, cp.BoundNext = None, None, None
}

// bindSlot dereferences the back-reference of p: the handle stored in the
// slot that should point at p. ok is false for unbound planes, which have
// no such slot.
func (c *Context) bindSlot(p *Plane) (target Handle, ok bool) {
	if p.BoundPrev != None {
		if prev := c.get(p.BoundPrev); prev != nil {
			return prev.BoundNext, true
		}
		return None, true
	}
	if p.BoundTo != None {
		if parent := c.get(p.BoundTo); parent != nil {
			return parent.BoundHead, true
		}
		return None, true
	}
	return None, false
}
