package session

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/accreditkit/quoteform/pkg/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m := NewManager(
		WithTTL(10*time.Minute),
		WithCleanupInterval(time.Hour),
		WithClock(clock.Now),
		WithLogger(logging.NopLogger{}),
	)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestCreateAndGet(t *testing.T) {
	m := newManager(t, &fakeClock{now: time.Now()})

	id, w, err := m.Create()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, w, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := newManager(t, &fakeClock{now: time.Now()})
	_, a, err := m.Create()
	require.NoError(t, err)
	_, b, err := m.Create()
	require.NoError(t, err)

	a.Store().Next()
	assert.NotEqual(t, a.Store().Step(), b.Store().Step())
	assert.Equal(t, 2, m.Len())
}

func TestIdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(t, clock)

	idle, _, err := m.Create()
	require.NoError(t, err)
	active, _, err := m.Create()
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = m.Get(active)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = m.Get(idle)
	assert.ErrorIs(t, err, ErrNotFound, "expired sessions are not served before the sweep")

	assert.Equal(t, 1, m.cleanup())
	assert.Equal(t, 1, m.Len())
	_, err = m.Get(active)
	assert.NoError(t, err)
}

func TestGetOrCreate(t *testing.T) {
	m := newManager(t, &fakeClock{now: time.Now()})

	id, w, err := m.GetOrCreate("")
	require.NoError(t, err)

	again, w2, err := m.GetOrCreate(id)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Same(t, w, w2)

	other, _, err := m.GetOrCreate("stale-id")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-id", other)
}

func TestClose(t *testing.T) {
	m := NewManager(WithLogger(logging.NopLogger{}))
	_, _, err := m.Create()
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	_, _, err = m.Create()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Get("x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, m.Len())
}

func TestCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "abc", false)

	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, FromRequest(req))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	assert.Equal(t, "abc", FromRequest(req))
}
