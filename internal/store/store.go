package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/session"
)

// UserSource fetches the account behind the stored credential.
type UserSource interface {
	GetCurrentUser(ctx context.Context) (models.User, error)
}

// Listener receives every published snapshot, in publication order.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Store is the single writer of application state. Dispatch may be called
// from any goroutine, including from inside a Listener.
type Store struct {
	logger *zap.Logger

	mu        sync.Mutex
	state     Snapshot
	pending   []Snapshot
	notifying bool
	subs      []subscription
	nextID    int

	ready  chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a container in the initial state. When creds holds a
// credential, one background GetCurrentUser call tries to restore the
// session; Ready reports when it is over.
func New(creds session.Store, users UserSource, opts ...Option) *Store {
	s := &Store{
		logger: zap.NewNop(),
		state:  Initial(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "store"))

	if creds == nil || users == nil || !creds.IsPresent() {
		close(s.ready)
		s.cancel = func() {}
		return s
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.restore(ctx, creds, users)
	return s
}

func (s *Store) restore(ctx context.Context, creds session.Store, users UserSource) {
	defer s.wg.Done()
	defer close(s.ready)

	s.Dispatch(SetLoading{Loading: true})
	defer s.Dispatch(SetLoading{Loading: false})

	user, err := users.GetCurrentUser(ctx)
	if err != nil && ctx.Err() != nil {
		// Closed before the server answered; the credential is still good.
		s.logger.Debug("restore session cancelled", zap.Error(err))
		return
	}
	if err != nil {
		s.logger.Warn("restore session failed", zap.Error(err))
		if clearErr := creds.Clear(); clearErr != nil {
			s.logger.Error("clear credential", zap.Error(clearErr))
		}
		if unreachable(err) {
			s.Dispatch(ErrorText(api.MessageOf(err)))
		}
		return
	}
	s.Dispatch(SetUser{User: &user})
}

// unreachable reports a transport failure, as opposed to an answer from the
// server.
func unreachable(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == api.KindRequestFailed && apiErr.Status == 0
}

// Ready is closed once session restoration has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Close cancels an unfinished restoration and waits for it.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it. A listener
// removed during a notification round may still receive that round.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch applies t and notifies every listener. The new state is visible
// to Snapshot before Dispatch returns. Notifications are delivered one
// snapshot at a time in dispatch order; a Dispatch issued while another
// goroutine (or a listener) is delivering leaves its notification to that
// deliverer.
func (s *Store) Dispatch(t Transition) {
	s.mu.Lock()
	s.state = Reduce(s.state, t)
	s.pending = append(s.pending, s.state.Clone())
	s.logger.Debug("dispatch",
		zap.Stringer("transition", t),
		zap.Bool("authenticated", s.state.IsAuthenticated),
		zap.Int("suggestions", len(s.state.Suggestions)))
	if s.notifying {
		s.mu.Unlock()
		return
	}

	s.notifying = true
	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		subs := append([]subscription(nil), s.subs...)
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(snap.Clone())
		}

		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}
