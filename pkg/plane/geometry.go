package plane

import "fmt"

// Move places a plane at y, x. The coordinates are relative to the plane
// it is bound to, or absolute when it is unbound. Every plane bound
// beneath it moves by the same offset. The standard plane cannot move.
func (c *Context) Move(h Handle, y, x int) error {
	if c.closed {
		return ErrClosed
	}
	p := c.get(h)
	if p == nil {
		return fmt.Errorf("move %s: %w", h, ErrUnknownPlane)
	}
	if p.Std {
		return fmt.Errorf("move: %w", ErrStdPlane)
	}
	if parent := c.get(p.BoundTo); parent != nil {
		y += parent.AbsY
		x += parent.AbsX
	}
	dy, dx := y-p.AbsY, x-p.AbsX
	if dy == 0 && dx == 0 {
		return nil
	}
	c.shift(h, dy, dx, c.count)
	c.logger.Debug("moved plane", "plane", p.ID, "y", p.AbsY, "x", p.AbsX)
	return nil
}

// shift translates h and its bound descendants. depth bounds the
// recursion by the number of live planes.
func (c *Context) shift(h Handle, dy, dx, depth int) {
	p := c.get(h)
	if p == nil || depth < 0 {
		return
	}
	p.AbsY += dy
	p.AbsX += dx
	for child := p.BoundHead; child != None; {
		cp := c.get(child)
		if cp == nil {
			return
		}
		c.shift(child, dy, dx, depth-1)
		child = cp.BoundNext
	}
}

// Resize changes the geometry of a plane. The cursor is clamped into the
// new bounds; the origin is unchanged.
func (c *Context) Resize(h Handle, rows, cols int) error {
	if c.closed {
		return ErrClosed
	}
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, rows, cols)
	}
	p := c.get(h)
	if p == nil {
		return fmt.Errorf("resize %s: %w", h, ErrUnknownPlane)
	}
	p.Rows, p.Cols = rows, cols
	p.CursorY = min(p.CursorY, rows-1)
	p.CursorX = min(p.CursorX, cols-1)
	c.logger.Debug("resized plane", "plane", p.ID, "rows", rows, "cols", cols)
	return nil
}

// CursorMove moves the write cursor of a plane. The target must lie
// inside the plane.
func (c *Context) CursorMove(h Handle, y, x int) error {
	if c.closed {
		return ErrClosed
	}
	p := c.get(h)
	if p == nil {
		return fmt.Errorf("cursor %s: %w", h, ErrUnknownPlane)
	}
	if y < 0 || y >= p.Rows || x < 0 || x >= p.Cols {
		return fmt.Errorf("%w: %d,%d outside %dx%d", ErrCursorOutOfRange, y, x, p.Rows, p.Cols)
	}
	p.CursorY, p.CursorX = y, x
	return nil
}

// Home moves the cursor of a plane to its origin.
func (c *Context) Home(h Handle) error {
	return c.CursorMove(h, 0, 0)
}
