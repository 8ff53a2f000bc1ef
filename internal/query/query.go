// Package query implements the memoizing, cycle-detecting query engine that
// every compiler layer is built on.
//
// A query is a named provider function from an Input to an output value.
// Providers are registered on a Context and invoked through Call, which
// caches successful results per (query name, input key). Providers receive
// the same Context and use it to call other queries; the Context keeps an
// explicit stack of in-progress calls so that a query transitively
// depending on itself fails with a CyclicDependencyError instead of
// recursing forever.
//
// A Context is owned by one compilation session and is not safe for
// concurrent use.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jward/candyc/internal/diag"
)

// Input is a query argument. Key must return equal strings for equal inputs
// and different strings for different inputs.
type Input interface {
	Key() string
}

// Unit is the input of queries that take no argument.
type Unit struct{}

func (Unit) Key() string { return "()" }

// String is a plain string input.
type String string

func (s String) Key() string { return string(s) }

// Key is the memoization key of one query invocation.
type Key struct {
	Query string
	Input string
}

func (k Key) String() string {
	return k.Query + "(" + k.Input + ")"
}

// CyclicDependencyError reports a query that transitively depends on itself.
// Stack starts at the first occurrence of the repeated key and ends with
// the repeated key.
type CyclicDependencyError struct {
	Stack []Key
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Stack))
	for i, k := range e.Stack {
		parts[i] = k.String()
	}
	return "cyclic query dependency: " + strings.Join(parts, " -> ")
}

type provider struct {
	name           string
	evaluateAlways bool
	run            func(*Context, Input) (any, error)
}

// Stats counts provider invocations and cache hits of one query.
type Stats struct {
	Invocations int
	CacheHits   int
}

// Context owns the registry, cache and in-progress call stack of one
// session.
type Context struct {
	id        string
	std       context.Context
	logger    *slog.Logger
	providers map[string]*provider
	cache     map[Key]any
	stack     []Key
	onStack   map[Key]int
	stats     map[string]*Stats
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for provider tracing. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContext sets the context.Context handed to providers that talk to
// external collaborators. The engine itself never blocks on it.
func WithContext(ctx context.Context) Option {
	return func(c *Context) {
		if ctx != nil {
			c.std = ctx
		}
	}
}

// NewContext creates an empty Context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		id:        uuid.NewString(),
		std:       context.Background(),
		logger:    slog.Default(),
		providers: make(map[string]*provider),
		cache:     make(map[Key]any),
		onStack:   make(map[Key]int),
		stats:     make(map[string]*Stats),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session", c.id)
	return c
}

// ID returns the session identifier used in log records.
func (c *Context) ID() string { return c.id }

// Context returns the context.Context configured with WithContext.
func (c *Context) Context() context.Context { return c.std }

// Logger returns the session logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// RegisterOption configures a query registration.
type RegisterOption func(*provider)

// EvaluateAlways marks a query whose provider must run on every call, for
// providers that read state the engine cannot observe changing.
func EvaluateAlways() RegisterOption {
	return func(p *provider) { p.evaluateAlways = true }
}

// Register adds a typed provider under name. Registering a name twice is an
// error.
func Register[I Input, O any](c *Context, name string, fn func(*Context, I) (O, error), opts ...RegisterOption) error {
	if _, exists := c.providers[name]; exists {
		return fmt.Errorf("query: %q already registered", name)
	}
	p := &provider{
		name: name,
		run: func(ctx *Context, in Input) (any, error) {
			typed, ok := in.(I)
			if !ok {
				var want I
				return nil, diag.Internalf("query %s: input %T, want %T", name, in, want)
			}
			return fn(ctx, typed)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	c.providers[name] = p
	c.stats[name] = &Stats{}
	return nil
}

// MustRegister is Register for static wiring code; it panics on duplicate
// names.
func MustRegister[I Input, O any](c *Context, name string, fn func(*Context, I) (O, error), opts ...RegisterOption) {
	if err := Register(c, name, fn, opts...); err != nil {
		panic(err)
	}
}

// Registered reports whether a provider exists for name.
func (c *Context) Registered(name string) bool {
	_, ok := c.providers[name]
	return ok
}

// Call evaluates query name for input, returning the cached result when one
// exists and the query is not evaluate-always.
func Call[O any](c *Context, name string, input Input) (O, error) {
	var zero O
	v, err := c.call(name, input)
	if err != nil {
		return zero, err
	}
	out, ok := v.(O)
	if !ok && v != nil {
		return zero, diag.Internalf("query %s: result %T, want %T", name, v, zero)
	}
	return out, nil
}

func (c *Context) call(name string, input Input) (any, error) {
	p, ok := c.providers[name]
	if !ok {
		return nil, diag.Internalf("query %s: no provider registered", name)
	}
	key := Key{Query: name, Input: input.Key()}
	st := c.stats[name]

	if !p.evaluateAlways {
		if v, hit := c.cache[key]; hit {
			st.CacheHits++
			return v, nil
		}
	}

	if start, running := c.onStack[key]; running {
		cycle := make([]Key, 0, len(c.stack)-start+1)
		cycle = append(cycle, c.stack[start:]...)
		cycle = append(cycle, key)
		err := &CyclicDependencyError{Stack: cycle}
		c.logger.Warn("query cycle", "query", name, "input", key.Input, "depth", len(cycle))
		return nil, err
	}

	st.Invocations++
	v, err := c.invoke(p, key, input)
	if err != nil {
		return nil, err
	}
	c.cache[key] = v
	return v, nil
}

// invoke runs p with key pushed on the stack. The stack is restored even if
// the provider panics.
func (c *Context) invoke(p *provider, key Key, input Input) (any, error) {
	c.onStack[key] = len(c.stack)
	c.stack = append(c.stack, key)
	defer func() {
		c.stack = c.stack[:len(c.stack)-1]
		delete(c.onStack, key)
	}()
	c.logger.Debug("query run", "query", p.name, "input", key.Input, "depth", len(c.stack))
	return p.run(c, input)
}

// Stack returns a copy of the in-progress call stack, outermost first.
func (c *Context) Stack() []Key {
	out := make([]Key, len(c.stack))
	copy(out, c.stack)
	return out
}

// Stats returns the counters for query name.
func (c *Context) Stats(name string) Stats {
	if st, ok := c.stats[name]; ok {
		return *st
	}
	return Stats{}
}

// CacheSize returns the number of cached results.
func (c *Context) CacheSize() int { return len(c.cache) }
