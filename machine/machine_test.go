package machine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/statekit/machine"
	"github.com/tailored-agentic-units/statekit/observability"
)

// trace records which handler served which request.
type trace struct {
	mu    sync.Mutex
	lines []string
}

func (t *trace) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
}

func (t *trace) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

type stateA struct{ tr *trace }
type stateB struct{ tr *trace }

func (s *stateA) Name() string { return "A" }
func (s *stateB) Name() string { return "B" }

func (s *stateA) Handle(ctx context.Context, t machine.Transitioner, req machine.Request) error {
	s.tr.add("A:" + req.Name)
	if req.Name == "request1" {
		return t.TransitionTo(&stateB{tr: s.tr})
	}
	return nil
}

func (s *stateB) Handle(ctx context.Context, t machine.Transitioner, req machine.Request) error {
	s.tr.add("B:" + req.Name)
	if req.Name == "request2" {
		return t.TransitionTo(&stateA{tr: s.tr})
	}
	return nil
}

func TestNew_RejectsNilHandler(t *testing.T) {
	m, err := machine.New(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, machine.ErrNilHandler)
}

func TestNew_InstallsInitialHandler(t *testing.T) {
	rec := observability.NewRecorder()
	m, err := machine.New(&stateA{tr: &trace{}}, machine.WithObserver(rec))
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID())
	assert.Equal(t, "A", m.Current().Name())
	assert.Equal(t, 1, m.Transitions())

	events := rec.Filter(machine.EventTransition)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].Data["from"])
	assert.Equal(t, "A", events[0].Data["to"])
}

func TestRequest_HandlerTransitionServesNextRequest(t *testing.T) {
	tr := &trace{}
	m, err := machine.New(&stateA{tr: tr})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Request(ctx, "request1"))
	assert.Equal(t, "B", m.Current().Name())

	require.NoError(t, m.Request(ctx, "request1"))
	assert.Equal(t, "B", m.Current().Name())

	require.NoError(t, m.Request(ctx, "request2"))
	assert.Equal(t, "A", m.Current().Name())

	assert.Equal(t, []string{"A:request1", "B:request1", "B:request2"}, tr.all())
	assert.Equal(t, 3, m.Transitions())
}

func TestRequest_LastTransitionWins(t *testing.T) {
	b := machine.NewMux("B")
	c := machine.NewMux("C")
	a := machine.NewMux("A").On("go", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		if err := t.TransitionTo(b); err != nil {
			return err
		}
		return t.TransitionTo(c)
	})

	rec := observability.NewRecorder()
	m, err := machine.New(a, machine.WithObserver(rec))
	require.NoError(t, err)

	require.NoError(t, m.Request(context.Background(), "go"))
	assert.Equal(t, "C", m.Current().Name())

	transitions := rec.Filter(machine.EventTransition)
	require.Len(t, transitions, 2, "initial install plus a single applied transition")
	assert.Equal(t, "A", transitions[1].Data["from"])
	assert.Equal(t, "C", transitions[1].Data["to"])
}

func TestRequest_NoTransition(t *testing.T) {
	a := machine.NewMux("A").On("stay", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		return nil
	})
	m, err := machine.New(a)
	require.NoError(t, err)

	require.NoError(t, m.Request(context.Background(), "stay"))
	assert.Same(t, a, m.Current())
	assert.Equal(t, 1, m.Transitions())
}

func TestRequest_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	next := machine.NewMux("recovering")
	a := machine.NewMux("A").On("fail", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		_ = t.TransitionTo(next)
		return boom
	})

	rec := observability.NewRecorder()
	m, err := machine.New(a, machine.WithObserver(rec))
	require.NoError(t, err)

	err = m.Request(context.Background(), "fail")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "A: fail")
	assert.Equal(t, "recovering", m.Current().Name(), "transition requested before failing still applies")
	assert.Len(t, rec.Filter(machine.EventRequestFailed), 1)
}

func TestRequest_UnknownRequest(t *testing.T) {
	m, err := machine.New(machine.NewMux("A"))
	require.NoError(t, err)

	err = m.Request(context.Background(), "missing")
	assert.ErrorIs(t, err, machine.ErrUnknownRequest)
}

func TestRequest_PassesArguments(t *testing.T) {
	var got []any
	a := machine.NewMux("A").On("add", func(ctx context.Context, _ machine.Transitioner, req machine.Request) error {
		got = req.Args
		v, ok := req.Arg(1)
		assert.True(t, ok)
		assert.Equal(t, "two", v)
		_, ok = req.Arg(5)
		assert.False(t, ok)
		return nil
	})
	m, err := machine.New(a)
	require.NoError(t, err)

	require.NoError(t, m.Request(context.Background(), "add", 1, "two"))
	assert.Equal(t, []any{1, "two"}, got)
}

func TestTransitioner_ClosedAfterDispatch(t *testing.T) {
	var kept machine.Transitioner
	a := machine.NewMux("A").On("keep", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		kept = t
		return nil
	})
	m, err := machine.New(a)
	require.NoError(t, err)

	require.NoError(t, m.Request(context.Background(), "keep"))
	assert.Equal(t, m.ID(), kept.MachineID())
	assert.ErrorIs(t, kept.TransitionTo(machine.NewMux("B")), machine.ErrDispatchClosed)
	assert.Equal(t, "A", m.Current().Name())
}

func TestTransitioner_RejectsNil(t *testing.T) {
	a := machine.NewMux("A").On("nil", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		return t.TransitionTo(nil)
	})
	m, err := machine.New(a)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Request(context.Background(), "nil"), machine.ErrNilHandler)
	assert.Equal(t, "A", m.Current().Name())
}

type boundHandler struct {
	*machine.Mux
	refs []machine.Ref
}

func (b *boundHandler) Bind(ref machine.Ref) {
	b.refs = append(b.refs, ref)
}

func TestBinder_ReceivesRefOnInstall(t *testing.T) {
	h := &boundHandler{Mux: machine.NewMux("bound")}
	m, err := machine.New(machine.NewMux("A"))
	require.NoError(t, err)

	require.NoError(t, m.TransitionTo(context.Background(), h))
	require.Len(t, h.refs, 1)
	assert.Equal(t, m.ID(), h.refs[0].ID())
}

func TestTransitionTo_External(t *testing.T) {
	m, err := machine.New(machine.NewMux("A"))
	require.NoError(t, err)

	assert.ErrorIs(t, m.TransitionTo(context.Background(), nil), machine.ErrNilHandler)
	require.NoError(t, m.TransitionTo(context.Background(), machine.NewMux("B")))
	assert.Equal(t, "B", m.Current().Name())
}

func TestNewFromConfig(t *testing.T) {
	cfg := machine.DefaultConfig()
	m, err := machine.NewFromConfig(machine.NewMux("A"), cfg)
	require.NoError(t, err)
	assert.Equal(t, "A", m.Current().Name())

	cfg.Merge(&machine.Config{Observer: "does-not-exist"})
	_, err = machine.NewFromConfig(machine.NewMux("A"), cfg)
	assert.Error(t, err)
}

func TestRequest_ConcurrentRequestsAreSerialised(t *testing.T) {
	var (
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	enter := func() {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		active--
		mu.Unlock()
	}

	var a, b *machine.Mux
	a = machine.NewMux("A")
	b = machine.NewMux("B")
	a.On("flip", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		enter()
		defer leave()
		return t.TransitionTo(b)
	})
	b.On("flip", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
		enter()
		defer leave()
		return t.TransitionTo(a)
	})

	m, err := machine.New(a)
	require.NoError(t, err)

	var g errgroup.Group
	for range 100 {
		g.Go(func() error {
			return m.Request(context.Background(), "flip")
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 101, m.Transitions())
	assert.Equal(t, "A", m.Current().Name(), "an even number of flips returns to A")
}
