package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/editor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	summit = domain.Event{ID: "1", Name: "Summit", Status: domain.EventStatusUpcoming}
	expo   = domain.Event{ID: "2", Name: "Expo", Status: domain.EventStatusUpcoming}
)

func TestSession_EditBeforeLoad(t *testing.T) {
	s := New("s1")

	_, err := s.Edit(func(*editor.Editor) error { return nil })
	assert.ErrorIs(t, err, ErrNoSchema)

	snap := s.Snapshot()
	assert.Nil(t, snap.Event)
	assert.Nil(t, snap.Schema)
	assert.False(t, snap.Loading)
}

func TestSession_LoadLifecycle(t *testing.T) {
	s := New("s1")

	token := s.BeginLoad(summit)
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, "Summit", snap.Event.Name)

	require.True(t, s.ApplyLoad(token, domain.DefaultSchema("Summit"), ""))

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Schema)
	assert.Len(t, snap.Schema.Fields, 2)
	require.NotNil(t, snap.Preview)
	assert.Len(t, snap.Preview.Controls, 2)
	assert.False(t, snap.Dirty)
	assert.Nil(t, snap.Notice)
}

func TestSession_StaleLoadDiscarded(t *testing.T) {
	s := New("s1")

	first := s.BeginLoad(summit)
	second := s.BeginLoad(expo)

	assert.False(t, s.ApplyLoad(first, domain.DefaultSchema("Summit"), ""))
	assert.True(t, s.Snapshot().Loading, "stale result must not be applied")

	assert.True(t, s.ApplyLoad(second, domain.DefaultSchema("Expo"), ""))
	snap := s.Snapshot()
	assert.Equal(t, "Expo Registration", snap.Schema.Title)
	assert.Equal(t, "2", snap.Event.ID)
}

func TestSession_SwitchDiscardsUnsavedEdits(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "")

	_, err := s.Edit(func(e *editor.Editor) error {
		_, err := e.AddField(domain.FieldTypePhone)
		return err
	})
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Dirty)

	s.BeginLoad(expo)
	snap := s.Snapshot()
	assert.Nil(t, snap.Schema)
	assert.True(t, snap.Loading)
}

func TestSession_ApplyLoadNotice(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)

	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "saved form could not be read")

	snap := s.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, editor.NoticeError, snap.Notice.Level)
	assert.Equal(t, "saved form could not be read", snap.Notice.Message)
}

func TestSession_EditAt(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "")

	_, err := s.EditAt(token, func(e *editor.Editor) error {
		e.SetTitle("Current")
		return nil
	})
	require.NoError(t, err)

	next := s.BeginLoad(expo)
	s.ApplyLoad(next, domain.DefaultSchema("Expo"), "")

	_, err = s.EditAt(token, func(e *editor.Editor) error {
		e.SetTitle("Late")
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleLoad)
	assert.Equal(t, "Expo Registration", s.Snapshot().Schema.Title)
}

func TestSession_EditErrorReturnsSnapshot(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "")

	snap, err := s.Edit(func(e *editor.Editor) error {
		_, err := e.AddField(domain.FieldTypeEmail)
		return err
	})

	var rejection *editor.RejectionError
	require.True(t, errors.As(err, &rejection))
	require.NotNil(t, snap.Notice)
	assert.Equal(t, "Only one Email field is allowed per form.", snap.Notice.Message)
	assert.Len(t, snap.Schema.Fields, 2)
}

func TestSession_SubscribeReceivesPreviews(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "")

	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Len(t, initial.Controls, 2)

	_, err := s.Edit(func(e *editor.Editor) error {
		_, err := e.AddField(domain.FieldTypeText)
		return err
	})
	require.NoError(t, err)

	select {
	case form := <-ch:
		assert.Len(t, form.Controls, 3)
	case <-time.After(time.Second):
		t.Fatal("expected preview after edit")
	}
}

func TestSession_SubscriberSeesLatestOnly(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.DefaultSchema("Summit"), "")

	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		_, err := s.Edit(func(e *editor.Editor) error {
			_, err := e.AddField(domain.FieldTypeText)
			return err
		})
		require.NoError(t, err)
	}

	form := <-ch
	assert.Len(t, form.Controls, 7)
}

func TestSession_CancelAndClose(t *testing.T) {
	s := New("s1")

	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	ch2, cancel2 := s.Subscribe()
	s.Close()
	_, open = <-ch2
	assert.False(t, open)
	cancel2()

	_, err := s.Edit(func(*editor.Editor) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)

	ch3, _ := s.Subscribe()
	_, open = <-ch3
	assert.False(t, open)
}

func TestSession_LastAccessTracksUse(t *testing.T) {
	clock := newFakeClock()
	s := New("s1", WithClock(clock.Now))
	created := s.LastAccess()

	clock.Advance(time.Minute)
	s.BeginLoad(summit)

	assert.Equal(t, created.Add(time.Minute), s.LastAccess())
}

func TestSession_ConcurrentEdits(t *testing.T) {
	s := New("s1")
	token := s.BeginLoad(summit)
	s.ApplyLoad(token, domain.FormSchema{}, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Edit(func(e *editor.Editor) error {
				_, err := e.AddField(domain.FieldTypeText)
				return err
			})
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Schema.Fields, 20)
	seen := make(map[int64]bool)
	for _, f := range snap.Schema.Fields {
		assert.False(t, seen[f.ID])
		seen[f.ID] = true
	}
}
