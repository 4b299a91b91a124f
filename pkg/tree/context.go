package tree

import "sort"

// Context maps file paths to parsed trees for one side of a comparison.
type Context struct {
	trees map[string]*Tree
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{trees: make(map[string]*Tree)}
}

// Put registers the tree parsed from path, replacing any previous one.
func (c *Context) Put(path string, t *Tree) {
	c.trees[path] = t
}

// Get returns the tree registered for path.
func (c *Context) Get(path string) (*Tree, bool) {
	if c == nil {
		return nil, false
	}

	t, ok := c.trees[path]

	return t, ok
}

// Paths returns the registered paths in lexical order.
func (c *Context) Paths() []string {
	if c == nil {
		return nil
	}

	out := make([]string, 0, len(c.trees))
	for p := range c.trees {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}

// Len returns the number of registered files.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}

	return len(c.trees)
}
