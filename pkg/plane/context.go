package plane

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// StdName is the reserved name of the standard plane.
const StdName = "std"

// nilToken renders the absent handle in reports.
const nilToken = "(nil)"

// slot is one arena cell. gen is bumped whenever the plane in it is
// destroyed, which invalidates every handle issued for it.
type slot struct {
	gen  uint32
	live bool
	p    Plane
}

// Context is a rendering context: the plane arena, both ends of the
// z-order stack and the standard plane.
//
// The zero value is not usable - use [New]. A Context is not safe for
// concurrent use.
type Context struct {
	slots []slot
	free  []uint32
	count int

	top    Handle
	bottom Handle
	std    Handle

	names    map[string]Handle
	identity IdentityFunc
	logger   *log.Logger
	closed   bool
}

// Option configures a Context.
type Option func(*Context)

// WithIdentity sets the identity token generator. The default assigns a
// random UUID to every plane.
func WithIdentity(f IdentityFunc) Option {
	return func(c *Context) {
		if f != nil {
			c.identity = f
		}
	}
}

// WithLogger sets the logger used for debug-level mutation logs.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a rendering context for a terminal of rows x cols and
// creates its standard plane at the origin with the same geometry.
// Returns ErrInvalidGeometry if either dimension is not positive.
func New(rows, cols int, opts ...Option) (*Context, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: terminal %dx%d", ErrInvalidGeometry, rows, cols)
	}
	c := &Context{
		names:    make(map[string]Handle),
		identity: func(Handle) string { return uuid.NewString() },
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	h := c.alloc()
	p := c.get(h)
	*p = Plane{
		Handle: h,
		ID:     c.identity(h),
		Name:   StdName,
		Rows:   rows,
		Cols:   cols,
		Std:    true,
	}
	c.std = h
	c.names[StdName] = h
	c.insertTop(h)
	c.logger.Debug("created standard plane", "plane", p.ID, "rows", rows, "cols", cols)
	return c, nil
}

// Create allocates a plane, places it at the top of the z-order stack and,
// when opts.Parent is set, binds it to that parent.
func (c *Context) Create(opts PlaneOptions) (Handle, error) {
	if c.closed {
		return None, ErrClosed
	}
	if opts.Rows <= 0 || opts.Cols <= 0 {
		return None, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, opts.Rows, opts.Cols)
	}
	absY, absX := opts.Y, opts.X
	if opts.Parent != None {
		parent := c.get(opts.Parent)
		if parent == nil {
			return None, fmt.Errorf("parent %s: %w", opts.Parent, ErrUnknownPlane)
		}
		absY += parent.AbsY
		absX += parent.AbsX
	}
	if opts.Name != "" {
		if _, dup := c.names[opts.Name]; dup {
			return None, fmt.Errorf("%w: %q", ErrDuplicateName, opts.Name)
		}
	}

	h := c.alloc()
	p := c.get(h)
	*p = Plane{
		Handle: h,
		ID:     c.identity(h),
		Name:   opts.Name,
		AbsY:   absY,
		AbsX:   absX,
		Rows:   opts.Rows,
		Cols:   opts.Cols,
	}
	if opts.Name != "" {
		c.names[opts.Name] = h
	}
	c.insertTop(h)
	if opts.Parent != None {
		c.link(h, opts.Parent)
	}
	c.logger.Debug("created plane", "plane", p.ID, "name", p.Name, "y", absY, "x", absX,
		"rows", opts.Rows, "cols", opts.Cols, "parent", c.Token(opts.Parent))
	return h, nil
}

// Destroy removes a plane from the z-order stack and the binding tree.
// Planes bound to it are rebound to its parent (or left unbound when it
// had none), keeping their absolute positions and their relative order.
// The standard plane cannot be destroyed; use [Context.Close].
func (c *Context) Destroy(h Handle) error {
	if c.closed {
		return ErrClosed
	}
	p := c.get(h)
	if p == nil {
		return fmt.Errorf("destroy %s: %w", h, ErrUnknownPlane)
	}
	if p.Std {
		return fmt.Errorf("destroy: %w", ErrStdPlane)
	}

	heir := p.BoundTo
	children := c.Children(h)
	for _, child := range children {
		c.unlinkBinding(child)
	}
	if heir != None {
		// link inserts at the head, so walk backwards to keep list order.
		for _, child := range slices.Backward(children) {
			c.link(child, heir)
		}
	}
	c.unlinkBinding(h)
	c.unlink(h)

	id, name := p.ID, p.Name
	if name != "" {
		delete(c.names, name)
	}
	c.release(h)
	c.logger.Debug("destroyed plane", "plane", id, "name", name, "orphans", len(children))
	return nil
}

// DropPlanes destroys every plane except the standard plane.
func (c *Context) DropPlanes() {
	if c.closed {
		return
	}
	dropped := 0
	for _, p := range c.Planes() {
		if p.Std {
			continue
		}
		if err := c.Destroy(p.Handle); err != nil {
			c.logger.Debug("drop planes: destroy failed", "plane", p.ID, "err", err)
			continue
		}
		dropped++
	}
	c.logger.Debug("dropped planes", "count", dropped)
}

// Close tears the context down, destroying every plane including the
// standard plane. Later mutations fail with ErrClosed.
func (c *Context) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.logger.Debug("closing context", "planes", c.count)
	c.slots = nil
	c.free = nil
	c.names = nil
	c.count = 0
	c.top, c.bottom, c.std = None, None, None
	c.closed = true
	return nil
}

// Std returns the standard plane, or None after Close.
func (c *Context) Std() Handle { return c.std }

// StdDim returns the geometry of the standard plane.
func (c *Context) StdDim() (rows, cols int) {
	if p := c.get(c.std); p != nil {
		return p.Rows, p.Cols
	}
	return 0, 0
}

// Top returns the frontmost plane.
func (c *Context) Top() Handle { return c.top }

// Bottom returns the rearmost plane.
func (c *Context) Bottom() Handle { return c.bottom }

// Len returns the number of live planes, standard plane included.
func (c *Context) Len() int { return c.count }

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.closed }

// Plane returns a copy of the plane addressed by h and true, or the zero
// Plane and false when h does not resolve.
func (c *Context) Plane(h Handle) (Plane, bool) {
	if p := c.get(h); p != nil {
		return *p, true
	}
	return Plane{}, false
}

// Planes returns copies of all live planes from top to bottom.
func (c *Context) Planes() []Plane {
	planes := make([]Plane, 0, c.count)
	for h := c.top; h != None && len(planes) < c.count; {
		p := c.get(h)
		if p == nil {
			break
		}
		planes = append(planes, *p)
		h = p.Below
	}
	return planes
}

// Lookup returns the live plane with the given name.
func (c *Context) Lookup(name string) (Handle, bool) {
	h, ok := c.names[name]
	return h, ok
}

// Token returns the identity token used in reports: the plane ID for a
// live plane, "(nil)" for None, and a marker naming the handle for a
// stale one.
func (c *Context) Token(h Handle) string {
	if h == None {
		return nilToken
	}
	if p := c.get(h); p != nil {
		return p.ID
	}
	return fmt.Sprintf("(stale %s)", h)
}

// get resolves h to the plane stored in the arena, or nil.
func (c *Context) get(h Handle) *Plane {
	if h == None {
		return nil
	}
	i := h.index()
	if int(i) >= len(c.slots) {
		return nil
	}
	s := &c.slots[i]
	if !s.live || s.gen != h.gen() {
		return nil
	}
	return &s.p
}

func (c *Context) alloc() Handle {
	var i uint32
	if n := len(c.free); n > 0 {
		i = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		i = uint32(len(c.slots))
		c.slots = append(c.slots, slot{gen: 1})
	}
	c.slots[i].live = true
	c.count++
	return makeHandle(i, c.slots[i].gen)
}

func (c *Context) release(h Handle) {
	s := &c.slots[h.index()]
	s.live = false
	s.p = Plane{}
	s.gen++
	c.free = append(c.free, h.index())
	c.count--
}
