// Package session holds the server-side state of each open designer: the
// selected event, its checked-out schema and live preview subscribers.
package session

import (
	"errors"
	"sync"
	"time"

	"registration-form-api/internal/domain"
	"registration-form-api/internal/editor"
	"registration-form-api/internal/preview"
)

var (
	// ErrNoSchema is returned when editing before any schema is loaded
	ErrNoSchema = errors.New("no form schema loaded")
	// ErrStaleLoad is returned when a result arrives for a superseded load
	ErrStaleLoad = errors.New("load superseded by a later event selection")
	// ErrClosed is returned when using a closed session
	ErrClosed = errors.New("session closed")
)

// Token identifies one load of a session. Results carrying an old token are discarded.
type Token uint64

// Snapshot is a consistent copy of a session's state
type Snapshot struct {
	ID         string
	Event      *domain.Event
	Token      Token
	Loading    bool
	Schema     *domain.FormSchema
	SelectedID int64
	Notice     *editor.Notice
	Dirty      bool
	Preview    *preview.Form
}

// Session is one designer's checked-out schema. All methods are safe for concurrent use.
type Session struct {
	id string

	mu          sync.Mutex
	event       *domain.Event
	generation  uint64
	editor      *editor.Editor
	lastAccess  time.Time
	closed      bool
	subscribers map[uint64]chan preview.Form
	nextSubID   uint64

	now        func() time.Time
	editorOpts []editor.Option
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the session clock
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithEditorOptions passes options to every editor the session creates
func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *Session) {
		s.editorOpts = append(s.editorOpts, opts...)
	}
}

// New creates an empty session with no event selected
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:          id,
		now:         time.Now,
		subscribers: make(map[uint64]chan preview.Form),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastAccess = s.now()
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// BeginLoad selects event, discarding the in-memory schema without saving.
// The returned token must accompany the load result.
func (s *Session) BeginLoad(event domain.Event) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	ev := event
	s.event = &ev
	s.editor = nil
	s.lastAccess = s.now()
	return Token(s.generation)
}

// ApplyLoad installs schema if token is still current. notice, when set, is
// shown to the designer.
func (s *Session) ApplyLoad(token Token, schema domain.FormSchema, notice string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || uint64(token) != s.generation {
		return false
	}
	s.editor = editor.New(schema, s.editorOpts...)
	if notice != "" {
		s.editor.SetNotice(editor.NoticeError, notice)
	}
	s.publishLocked()
	return true
}

// Current returns the token of the latest load
func (s *Session) Current() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Token(s.generation)
}

// Edit runs fn against the loaded schema and publishes the new preview
func (s *Session) Edit(fn func(*editor.Editor) error) (Snapshot, error) {
	return s.edit(0, false, fn)
}

// EditAt is Edit, but only while token is still the current load
func (s *Session) EditAt(token Token, fn func(*editor.Editor) error) (Snapshot, error) {
	return s.edit(token, true, fn)
}

func (s *Session) edit(token Token, checkToken bool, fn func(*editor.Editor) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	if checkToken && uint64(token) != s.generation {
		return Snapshot{}, ErrStaleLoad
	}
	if s.editor == nil {
		return Snapshot{}, ErrNoSchema
	}
	s.lastAccess = s.now()

	if err := fn(s.editor); err != nil {
		// rejected adds still set a notice, so the view is returned with the error
		return s.snapshotLocked(), err
	}
	s.publishLocked()
	return s.snapshotLocked(), nil
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:    s.id,
		Token: Token(s.generation),
	}
	if s.event != nil {
		ev := *s.event
		snap.Event = &ev
		snap.Loading = s.editor == nil
	}
	if s.editor == nil {
		return snap
	}

	schema := s.editor.Schema()
	form := preview.Render(schema)
	snap.Schema = &schema
	snap.Preview = &form
	snap.SelectedID = s.editor.SelectedID()
	snap.Dirty = s.editor.Dirty()
	if n, ok := s.editor.Notice(); ok {
		snap.Notice = &n
	}
	return snap
}

// Subscribe returns a channel receiving the preview after every change, and a
// func to stop receiving. Slow readers only see the latest preview.
func (s *Session) Subscribe() (<-chan preview.Form, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan preview.Form, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	if s.editor != nil {
		ch <- preview.Render(s.editor.Schema())
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 || s.editor == nil {
		return
	}
	form := preview.Render(s.editor.Schema())
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- form:
		default:
		}
	}
}

// LastAccess returns when the session was last used
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Close ends all subscriptions. Pending loads are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}
