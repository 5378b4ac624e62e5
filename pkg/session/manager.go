package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/google/uuid"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// ChangeFunc observes a session before and after a mutation. old is nil for new sessions
// and new is nil for deletions.
type ChangeFunc func(ctx context.Context, old, new *domain.Session)

// Manager orchestrates live simulations, ensuring safe concurrent operations.
// Every mutation loads the session, rebuilds a simulator from its description,
// applies the operation and saves the result while holding the session lock.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	simOpts  []turing.Option
	onChange ChangeFunc
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSimulatorOptions passes options (parse strictness, hooks, logger) to every
// simulator the manager builds.
func WithSimulatorOptions(opts ...turing.Option) Option {
	return func(m *Manager) {
		m.simOpts = append(m.simOpts, opts...)
	}
}

// WithChangeListener registers a callback run after each successful mutation.
func WithChangeListener(fn ChangeFunc) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// NewManager creates a new Session Manager with the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start validates desc, seeds a new simulation with input and stores it.
// Parse errors are returned unchanged so callers can classify them.
func (m *Manager) Start(ctx context.Context, desc domain.Description, input string) (*domain.Session, error) {
	sim, err := turing.Load(desc, m.simOpts...)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := m.now().UTC()
	var created *domain.Session

	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		sim.Reset(ctx, input)
		created = &domain.Session{
			ID:          id,
			Description: desc,
			Input:       input,
			CreatedAt:   now,
		}
		m.record(created, sim, domain.VerdictRunning, now)
		if err := m.store.Save(ctx, created); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(ctx, nil, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("session started", "session_id", id, "state", created.Configuration.State)
	return created, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		session, err = m.store.Load(ctx, sessionID)
		return err
	})
	return session, err
}

// Step answers one step request. A halted session is returned unchanged.
func (m *Manager) Step(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.mutate(ctx, sessionID, func(ctx context.Context, sim *turing.Simulator, s *domain.Session) (domain.Verdict, error) {
		if s.Verdict.Halted() {
			return s.Verdict, nil
		}
		return sim.Tick(ctx), nil
	})
}

// Run answers step requests until the machine halts or maxSteps requests were made.
// When the budget runs out first, the session is saved and domain.ErrStepLimit is
// returned alongside it.
func (m *Manager) Run(ctx context.Context, sessionID string, maxSteps int) (*domain.Session, error) {
	var limited bool
	session, err := m.mutate(ctx, sessionID, func(ctx context.Context, sim *turing.Simulator, s *domain.Session) (domain.Verdict, error) {
		verdict := s.Verdict
		for i := 0; !verdict.Halted(); i++ {
			if i >= maxSteps {
				limited = true
				break
			}
			if err := ctx.Err(); err != nil {
				return verdict, err
			}
			verdict = sim.Tick(ctx)
		}
		return verdict, nil
	})
	if err != nil {
		return session, err
	}
	if limited {
		return session, fmt.Errorf("%w (%d steps)", domain.ErrStepLimit, maxSteps)
	}
	return session, nil
}

// Reset seeds the session again. A nil input reuses the original input.
func (m *Manager) Reset(ctx context.Context, sessionID string, input *string) (*domain.Session, error) {
	return m.mutate(ctx, sessionID, func(ctx context.Context, sim *turing.Simulator, s *domain.Session) (domain.Verdict, error) {
		if input != nil {
			s.Input = *input
		}
		sim.Reset(ctx, s.Input)
		return domain.VerdictRunning, nil
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		old, err := m.store.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		if old != nil {
			m.notify(ctx, old, nil)
		}
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Simulator rebuilds a simulator positioned at the stored configuration.
// The caller owns it; changes are not saved.
func (m *Manager) Simulator(ctx context.Context, sessionID string) (*turing.Simulator, error) {
	s, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.restore(s)
}

type mutation func(ctx context.Context, sim *turing.Simulator, s *domain.Session) (domain.Verdict, error)

func (m *Manager) mutate(ctx context.Context, sessionID string, fn mutation) (*domain.Session, error) {
	var updated *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		old, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		sim, err := m.restore(old)
		if err != nil {
			return err
		}

		updated = old.Snapshot()
		verdict, err := fn(ctx, sim, updated)
		if err != nil {
			return err
		}

		if verdict == old.Verdict && verdict.Halted() {
			updated.Reason = old.Reason
			updated.UpdatedAt = old.UpdatedAt
			return nil
		}

		m.record(updated, sim, verdict, m.now().UTC())
		if err := m.store.Save(ctx, updated); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(ctx, old, updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (m *Manager) restore(s *domain.Session) (*turing.Simulator, error) {
	sim, err := turing.Load(s.Description, m.simOpts...)
	if err != nil {
		return nil, fmt.Errorf("stored description no longer parses: %w", err)
	}
	if err := sim.Restore(s.Input, s.Configuration, s.Verdict); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", s.ID, err)
	}
	return sim, nil
}

func (m *Manager) record(s *domain.Session, sim *turing.Simulator, verdict domain.Verdict, at time.Time) {
	s.Configuration = sim.Snapshot()
	s.Verdict = verdict
	s.Reason = sim.Reason()
	s.UpdatedAt = at
}

func (m *Manager) notify(ctx context.Context, old, new *domain.Session) {
	if m.onChange != nil {
		m.onChange(ctx, old, new)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
