// Package session runs one editor.Editor on its own goroutine and fans its
// View out to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/pkg/editor"
)

var (
	// ErrClosed is returned for work posted to a closed Session.
	ErrClosed = errors.New("session is closed")
	// ErrPanicked is returned by Call when fn panicked on the loop.
	ErrPanicked = errors.New("editor task panicked")
)

const taskBuffer = 64

type Deps struct {
	Gateway        editor.Gateway
	Suggester      editor.Suggester
	Observer       editor.Observer
	Logger         logger.ILogger
	GatewayTimeout time.Duration
}

// Session implements editor.Loop. Everything touching the editor runs on
// the goroutine started by New.
type Session struct {
	ID        string
	CreatedAt time.Time

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
	log       logger.ILogger

	// loop-owned
	editor *editor.Editor
	subs   map[*Subscription]struct{}
}

var _ editor.Loop = &Session{}

func New(id string, deps Deps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		tasks:     make(chan func(), taskBuffer),
		done:      make(chan struct{}),
		cancel:    cancel,
		log:       deps.Logger,
		subs:      make(map[*Subscription]struct{}),
	}
	if s.log == nil {
		s.log = logger.NewNopLogger()
	}

	opts := []editor.Option{editor.WithContext(ctx)}
	if deps.Suggester != nil {
		opts = append(opts, editor.WithSuggester(&loggingSuggester{next: deps.Suggester, timeout: deps.GatewayTimeout, log: s.log, id: id}))
	}
	if deps.Observer != nil {
		opts = append(opts, editor.WithObserver(deps.Observer))
	}
	gateway := &timeoutGateway{next: deps.Gateway, timeout: deps.GatewayTimeout}
	s.editor = editor.New(s, gateway, opts...)

	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.tasks:
			s.exec(fn)
		}
	}
}

func (s *Session) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logPanic(r)
		}
	}()
	fn()
	s.publish()
}

func (s *Session) logPanic(r interface{}) {
	s.log.Error("Session", "Recovered from panic in editor task", map[string]interface{}{
		"session_id": s.ID,
		"panic":      fmt.Sprint(r),
	})
}

// post queues fn on the loop. It reports false once the session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.tasks <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) AfterFunc(d time.Duration, fn func()) editor.Timer {
	return time.AfterFunc(d, func() {
		s.post(fn)
	})
}

func (s *Session) Spawn(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			s.post(cont)
		}
	}()
}

// Call runs fn on the loop and waits for its result.
func (s *Session) Call(ctx context.Context, fn func(ed *editor.Editor) error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logPanic(r)
				result <- fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()
		result <- fn(s.editor)
	}
	if !s.post(task) {
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch runs fn on the loop without waiting.
func (s *Session) Dispatch(fn func(ed *editor.Editor)) error {
	if !s.post(func() { fn(s.editor) }) {
		return ErrClosed
	}
	return nil
}

// View returns a snapshot taken on the loop.
func (s *Session) View(ctx context.Context) (editor.View, error) {
	var v editor.View
	err := s.Call(ctx, func(ed *editor.Editor) error {
		v = ed.View()
		return nil
	})
	return v, err
}

// Subscribe registers for View updates. The current View is delivered first.
func (s *Session) Subscribe(ctx context.Context) (*Subscription, error) {
	sub := &Subscription{ch: make(chan editor.View, 1), session: s}
	err := s.Call(ctx, func(ed *editor.Editor) error {
		s.subs[sub] = struct{}{}
		sub.offer(ed.View())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Session) publish() {
	if len(s.subs) == 0 || s.editor.Closed() {
		return
	}
	v := s.editor.View()
	for sub := range s.subs {
		sub.offer(v)
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops the editor, ends every subscription and stops the loop. It
// must not be called from the loop itself.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		finished := make(chan struct{})
		if s.post(func() {
			s.editor.Close()
			for sub := range s.subs {
				sub.close()
			}
			close(finished)
		}) {
			select {
			case <-finished:
			case <-time.After(5 * time.Second):
				s.log.Warn("Session", "Timed out waiting for the editor to close", map[string]interface{}{"session_id": s.ID})
			}
		}
		s.cancel()
		close(s.done)
		s.log.Info("Session", "Session closed", map[string]interface{}{"session_id": s.ID})
	})
}

// Subscription delivers the latest View. Intermediate Views are dropped
// when the reader falls behind.
type Subscription struct {
	ch      chan editor.View
	session *Session
	closed  bool // loop-owned
}

func (sub *Subscription) C() <-chan editor.View {
	return sub.ch
}

// Cancel stops delivery and closes C.
func (sub *Subscription) Cancel() {
	sub.session.post(func() {
		if _, ok := sub.session.subs[sub]; ok {
			sub.close()
		}
	})
}

func (sub *Subscription) offer(v editor.View) {
	select {
	case sub.ch <- v:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- v:
	default:
	}
}

func (sub *Subscription) close() {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(sub.session.subs, sub)
	close(sub.ch)
}

type timeoutGateway struct {
	next    editor.Gateway
	timeout time.Duration
}

func (g *timeoutGateway) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.next.Complete(ctx, prompt)
}

// loggingSuggester records failures the editor otherwise drops silently.
type loggingSuggester struct {
	next    editor.Suggester
	timeout time.Duration
	log     logger.ILogger
	id      string
}

func (l *loggingSuggester) Suggest(ctx context.Context, text string) ([]editor.Suggestion, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	items, err := l.next.Suggest(ctx, text)
	if err != nil {
		l.log.Warn("Session", "Suggestion gateway failed", map[string]interface{}{
			"session_id": l.id,
			"error":      err.Error(),
		})
	}
	return items, err
}
