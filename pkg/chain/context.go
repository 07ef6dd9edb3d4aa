package chain

import (
	"context"
	"fmt"
	"log/slog"
)

// FileLoader resolves a required-file name to its loaded table or
// passage value. Implementations sit in front of the corpus index and
// object store.
type FileLoader interface {
	Load(ctx context.Context, name string) (Value, error)
}

// Context is the execution state of one task validation: the per-context
// file cache, the ordered step outputs, and the set of files the chain
// actually touched. A Context is never shared across tasks; each task's
// grounding stays independent and reproducible.
type Context struct {
	log    *slog.Logger
	loader FileLoader

	files   map[string]Value
	outputs []Value
	used    map[string]struct{}
}

// NewContext creates the execution context for one task validation run.
func NewContext(log *slog.Logger, loader FileLoader) *Context {
	return &Context{
		log:    log,
		loader: loader,
		files:  make(map[string]Value),
		used:   make(map[string]struct{}),
	}
}

// loadFile returns the loaded value of a corpus file, fetching and
// parsing it at most once per context. Every load is recorded so the
// grader can flag required files the chain never touched.
func (c *Context) loadFile(ctx context.Context, name string) (Value, error) {
	c.used[name] = struct{}{}
	if v, ok := c.files[name]; ok {
		return v, nil
	}
	v, err := c.loader.Load(ctx, name)
	if err != nil {
		return Value{}, fmt.Errorf("failed to load %s: %w", name, err)
	}
	c.files[name] = v
	c.log.Debug("loaded corpus file", "name", name, "kind", v.Kind)
	return v, nil
}

// Output returns the recorded output of step i.
func (c *Context) Output(i int) (Value, bool) {
	if i < 0 || i >= len(c.outputs) {
		return Value{}, false
	}
	return c.outputs[i], true
}

// Outputs returns the ordered step outputs recorded so far.
func (c *Context) Outputs() []Value {
	out := make([]Value, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// UsedFiles reports which file names the executed chain loaded.
func (c *Context) UsedFiles() map[string]struct{} {
	out := make(map[string]struct{}, len(c.used))
	for name := range c.used {
		out[name] = struct{}{}
	}
	return out
}
