package query

import (
	"bytes"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/candyc/internal/diag"
)

type intInput int

func (i intInput) Key() string { return strconv.Itoa(int(i)) }

func TestCall_MemoizesProviderResult(t *testing.T) {
	c := NewContext()
	calls := 0
	MustRegister(c, "double", func(_ *Context, in intInput) (int, error) {
		calls++
		return int(in) * 2, nil
	})

	for i := 0; i < 3; i++ {
		v, err := Call[int](c, "double", intInput(21))
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Invocations: 1, CacheHits: 2}, c.Stats("double"))

	_, err := Call[int](c, "double", intInput(1))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "different input is a different key")
}

func TestCall_EvaluateAlwaysBypassesCache(t *testing.T) {
	c := NewContext()
	calls := 0
	MustRegister(c, "tick", func(_ *Context, _ Unit) (int, error) {
		calls++
		return calls, nil
	}, EvaluateAlways())

	for i := 1; i <= 3; i++ {
		v, err := Call[int](c, "tick", Unit{})
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, c.Stats("tick").CacheHits)
}

func TestCall_DirectCycle(t *testing.T) {
	c := NewContext()
	MustRegister(c, "self", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "self", in)
	})

	_, err := Call[int](c, "self", intInput(7))
	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []Key{{"self", "7"}, {"self", "7"}}, cyc.Stack)
	assert.Empty(t, c.Stack(), "stack unwinds after the cycle")
}

func TestCall_MutualCycleTerminatesForAnyInput(t *testing.T) {
	c := NewContext()
	MustRegister(c, "A", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "B", in)
	})
	MustRegister(c, "B", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "A", in)
	})

	for _, x := range []intInput{0, 1, -5, 1 << 20} {
		_, err := Call[int](c, "A", x)
		var cyc *CyclicDependencyError
		require.ErrorAs(t, err, &cyc, "input %d", x)
		k := x.Key()
		assert.Equal(t, []Key{{"A", k}, {"B", k}, {"A", k}}, cyc.Stack)
	}
}

func TestCall_IndirectCycleStackStartsAtRepeatedKey(t *testing.T) {
	c := NewContext()
	MustRegister(c, "root", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "A", in)
	})
	MustRegister(c, "A", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "B", in)
	})
	MustRegister(c, "B", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "C", in)
	})
	MustRegister(c, "C", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "A", in)
	})

	_, err := Call[int](c, "root", intInput(1))
	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []Key{{"A", "1"}, {"B", "1"}, {"C", "1"}, {"A", "1"}}, cyc.Stack)
	assert.Contains(t, err.Error(), "A(1) -> B(1) -> C(1) -> A(1)")
}

func TestCall_EvaluateAlwaysStillDetectsCycles(t *testing.T) {
	c := NewContext()
	MustRegister(c, "loop", func(ctx *Context, in Unit) (int, error) {
		return Call[int](ctx, "loop", in)
	}, EvaluateAlways())

	_, err := Call[int](c, "loop", Unit{})
	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
}

func TestCall_ErrorsAreNotCached(t *testing.T) {
	c := NewContext()
	calls := 0
	boom := errors.New("boom")
	MustRegister(c, "flaky", func(_ *Context, _ Unit) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	})

	_, err := Call[string](c, "flaky", Unit{})
	require.ErrorIs(t, err, boom)

	v, err := Call[string](c, "flaky", Unit{})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)

	_, err = Call[string](c, "flaky", Unit{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "success is cached")
}

func TestCall_UnknownQueryIsInternalError(t *testing.T) {
	c := NewContext()
	_, err := Call[int](c, "missing", Unit{})
	require.Error(t, err)
	assert.True(t, diag.IsInternal(err))
}

func TestCall_ResultTypeMismatchIsInternalError(t *testing.T) {
	c := NewContext()
	MustRegister(c, "str", func(_ *Context, _ Unit) (string, error) { return "x", nil })

	_, err := Call[int](c, "str", Unit{})
	require.Error(t, err)
	assert.True(t, diag.IsInternal(err))
}

func TestCall_InputTypeMismatchIsInternalError(t *testing.T) {
	c := NewContext()
	MustRegister(c, "ints", func(_ *Context, in intInput) (int, error) { return int(in), nil })

	_, err := Call[int](c, "ints", String("x"))
	require.Error(t, err)
	assert.True(t, diag.IsInternal(err))
}

func TestCall_PanickingProviderRestoresStack(t *testing.T) {
	c := NewContext()
	MustRegister(c, "panics", func(_ *Context, _ Unit) (int, error) { panic("bad provider") })

	assert.Panics(t, func() { _, _ = Call[int](c, "panics", Unit{}) })
	assert.Empty(t, c.Stack())
}

func TestRegister_DuplicateName(t *testing.T) {
	c := NewContext()
	fn := func(_ *Context, _ Unit) (int, error) { return 0, nil }
	require.NoError(t, Register(c, "q", fn))
	require.Error(t, Register(c, "q", fn))
	assert.Panics(t, func() { MustRegister(c, "q", fn) })
	assert.True(t, c.Registered("q"))
}

func TestContexts_AreIndependent(t *testing.T) {
	newCounter := func() (*Context, *int) {
		c := NewContext()
		n := new(int)
		MustRegister(c, "count", func(_ *Context, _ Unit) (int, error) {
			*n++
			return *n, nil
		})
		return c, n
	}
	a, na := newCounter()
	b, nb := newCounter()

	_, err := Call[int](a, "count", Unit{})
	require.NoError(t, err)
	_, err = Call[int](b, "count", Unit{})
	require.NoError(t, err)

	assert.Equal(t, 1, *na)
	assert.Equal(t, 1, *nb)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestCall_NestedProvidersSeeStack(t *testing.T) {
	c := NewContext()
	var seen []Key
	MustRegister(c, "outer", func(ctx *Context, in intInput) (int, error) {
		return Call[int](ctx, "inner", in)
	})
	MustRegister(c, "inner", func(ctx *Context, in intInput) (int, error) {
		seen = ctx.Stack()
		return int(in), nil
	})

	_, err := Call[int](c, "outer", intInput(3))
	require.NoError(t, err)
	assert.Equal(t, []Key{{"outer", "3"}, {"inner", "3"}}, seen)
}

func TestWithLogger_TracesProviderRuns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewContext(WithLogger(logger))
	MustRegister(c, "traced", func(_ *Context, _ Unit) (int, error) { return 1, nil })

	_, err := Call[int](c, "traced", Unit{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query=traced")
	assert.Contains(t, buf.String(), "session="+c.ID())
}
