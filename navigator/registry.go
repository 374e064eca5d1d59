package navigator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrUnknownSession is returned for IDs that were never started or already ended.
var ErrUnknownSession = errors.New("unknown session")

type registered struct {
	mu sync.Mutex // serializes every call into s
	s  *Session
}

// Registry holds live sessions by ID and serializes access to each of them.
// Distinct sessions may be driven concurrently.
type Registry struct {
	sessions *xsync.Map[uuid.UUID, *registered]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: xsync.NewMap[uuid.UUID, *registered]()}
}

// Start starts a session with opts and registers it.
func (r *Registry) Start(opts Options) (uuid.UUID, error) {
	s, err := Start(opts)
	if err != nil {
		return uuid.Nil, err
	}
	r.sessions.Store(s.ID(), &registered{s: s})
	return s.ID(), nil
}

// Do runs fn with exclusive access to the session id.
func (r *Registry) Do(id uuid.UUID, fn func(s *Session) error) error {
	reg, ok := r.sessions.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.s.closed {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return fn(reg.s)
}

// End ends and forgets the session id.
func (r *Registry) End(id uuid.UUID) error {
	reg, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.s.End()
}

// EndAll ends every registered session and joins their errors.
func (r *Registry) EndAll() error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.End(id); err != nil && !errors.Is(err, ErrUnknownSession) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IDs returns the IDs of every registered session in no particular order.
func (r *Registry) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, r.sessions.Size())
	r.sessions.Range(func(id uuid.UUID, _ *registered) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}
