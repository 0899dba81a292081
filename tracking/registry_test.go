package tracking

import (
	"context"
	"facetrack/stability"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mutex sync.Mutex
	t     time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.t = c.t.Add(d)
	c.mutex.Unlock()
}

func newTestRegistry(idle time.Duration) (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	r := NewRegistry(idle)
	r.now = clock.Now
	return r, clock
}

func TestRegistry_CreateAndEvaluate(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	s, err := r.Create(3, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, r.Len())

	res, err := r.Evaluate(s.ID, stability.Frame{{0, 0}, {10, 0}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, stability.NoBaseline, res.Outcome.Kind)

	res, err = r.Evaluate(s.ID, stability.Frame{{0, 4}, {10, 0}})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Seq)
	assert.Equal(t, stability.Outcome{Kind: stability.Stable, MeanDistance: 2}, res.Outcome)
	assert.Equal(t, uint64(2), s.Frames())
}

func TestRegistry_CreateInvalidConfig(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	_, err := r.Create(0, 2)
	assert.ErrorIs(t, err, stability.ErrInvalidConfig)
	assert.Zero(t, r.Len())
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	a, err := r.Create(1, 2)
	require.NoError(t, err)
	b, err := r.Create(1, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = r.Evaluate(a.ID, stability.Frame{{0, 0}})
	require.NoError(t, err)

	res, err := r.Evaluate(b.ID, stability.Frame{{5, 5, 5}, {1, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, stability.NoBaseline, res.Outcome.Kind)

	res, err = r.Evaluate(a.ID, stability.Frame{{0, 2}})
	require.NoError(t, err)
	assert.Equal(t, stability.Outcome{Kind: stability.Moved, MeanDistance: 2}, res.Outcome)
}

func TestRegistry_MismatchDoesNotAdvanceSequence(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	s, err := r.Create(1, 2)
	require.NoError(t, err)

	_, err = r.Evaluate(s.ID, stability.Frame{{0, 0}, {1, 1}})
	require.NoError(t, err)
	_, err = r.Evaluate(s.ID, stability.Frame{{0, 0}})
	assert.ErrorIs(t, err, stability.ErrInputMismatch)
	assert.Equal(t, uint64(1), s.Frames())
}

func TestRegistry_Reset(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	s, err := r.Create(1, 2)
	require.NoError(t, err)
	_, err = r.Evaluate(s.ID, stability.Frame{{0, 0}})
	require.NoError(t, err)

	require.NoError(t, r.Reset(s.ID))
	res, err := r.Evaluate(s.ID, stability.Frame{{0, 0}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, stability.NoBaseline, res.Outcome.Kind)

	assert.ErrorIs(t, r.Reset("missing"), ErrSessionNotFound)
}

func TestRegistry_Remove(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	var removed []string
	r.OnRemove = func(s *Session) { removed = append(removed, s.ID) }

	s, err := r.Create(1, 2)
	require.NoError(t, err)
	assert.True(t, r.Remove(s.ID))
	assert.False(t, r.Remove(s.ID))
	assert.Equal(t, []string{s.ID}, removed)

	_, err = r.Evaluate(s.ID, stability.Frame{{0, 0}})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_Cleanup(t *testing.T) {
	r, clock := newTestRegistry(time.Minute)
	var removed []string
	r.OnRemove = func(s *Session) { removed = append(removed, s.ID) }

	idle, err := r.Create(1, 2)
	require.NoError(t, err)
	active, err := r.Create(1, 2)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	_, err = r.Evaluate(active.ID, stability.Frame{{0, 0}})
	require.NoError(t, err)
	clock.Advance(40 * time.Second)

	got := r.Cleanup(clock.Now())
	assert.Equal(t, []string{idle.ID}, got)
	assert.Equal(t, []string{idle.ID}, removed)
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(active.ID)
	assert.NoError(t, err)
}

func TestRegistry_CleanupDisabled(t *testing.T) {
	r, clock := newTestRegistry(0)
	_, err := r.Create(1, 2)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	assert.Empty(t, r.Cleanup(clock.Now()))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistry_ConcurrentEvaluate(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	s, err := r.Create(1, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Evaluate(s.ID, stability.Frame{{float64(i), 0}, {0, float64(i)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, uint64(50), s.Frames())
}
