package intake

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dealdesk/backend/internal/domain/crm"
	"github.com/dealdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session defaults. Idle sessions are swept so abandoned wizards do not
// accumulate; all per-session caches die with the session.
const (
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Session is one live wizard: a controller plus its per-session caches.
// The draft and caches exist only while the session does.
type Session struct {
	ID         uuid.UUID
	Controller *WizardController
	CreatedAt  time.Time

	lastSeen atomic.Int64
}

// Touch records activity, deferring expiry
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) expired(ttl time.Duration) bool {
	return time.Since(time.Unix(0, s.lastSeen.Load())) > ttl
}

// SessionManager owns the live wizard sessions and the shared collaborators
// each new session is wired with.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	directory crm.Directory
	catalog   crm.Catalog
	deals     crm.Deals
	guard     shared.SubmissionGuard
	logger    *zap.Logger
	ttl       time.Duration
	debounce  time.Duration
	pageSize  int

	stopCh  chan struct{}
	stopped int32
}

// SessionManagerOption configures a SessionManager
type SessionManagerOption func(*SessionManager)

// WithSessionTTL overrides the idle expiry
func WithSessionTTL(ttl time.Duration) SessionManagerOption {
	return func(m *SessionManager) {
		m.ttl = ttl
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(logger *zap.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		m.logger = logger
	}
}

// WithSearchTuning overrides the debounce window and page size new sessions
// search with.
func WithSearchTuning(debounce time.Duration, pageSize int) SessionManagerOption {
	return func(m *SessionManager) {
		m.debounce = debounce
		m.pageSize = pageSize
	}
}

// NewSessionManager creates a manager and starts its sweep loop
func NewSessionManager(
	directory crm.Directory,
	catalog crm.Catalog,
	deals crm.Deals,
	guard shared.SubmissionGuard,
	opts ...SessionManagerOption,
) *SessionManager {
	m := &SessionManager{
		sessions:  make(map[uuid.UUID]*Session),
		directory: directory,
		catalog:   catalog,
		deals:     deals,
		guard:     guard,
		logger:    zap.NewNop(),
		ttl:       defaultSessionTTL,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.sweep()

	return m
}

// OpenCreate opens a create-mode session, optionally pre-filled from seed
// defaults.
func (m *SessionManager) OpenCreate(identity SessionIdentity, seed *SeedDefaults) *Session {
	session := m.open(identity)
	if seed != nil {
		session.Controller.ApplySeedDefaults(*seed)
	}
	m.logger.Info("wizard session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("associate_id", identity.AssociateID))
	return session
}

// OpenEdit opens an edit-mode session hydrated from an existing deal
func (m *SessionManager) OpenEdit(ctx context.Context, identity SessionIdentity, dealID string) (*Session, error) {
	session := m.open(identity)
	if err := session.Controller.LoadForEdit(ctx, m.deals, dealID); err != nil {
		m.remove(session.ID)
		return nil, err
	}
	m.logger.Info("wizard session opened for edit",
		zap.String("session_id", session.ID.String()),
		zap.String("deal_id", dealID))
	return session, nil
}

func (m *SessionManager) open(identity SessionIdentity) *Session {
	composer := NewPayloadComposer(m.deals, m.guard, m.logger)
	controller := NewWizardController(WizardDeps{
		Directory: m.directory,
		Catalog:   m.catalog,
		Composer:  composer,
		Identity:  identity,
		Logger:    m.logger,
		Debounce:  m.debounce,
		PageSize:  m.pageSize,
	})

	session := &Session{
		ID:         uuid.New(),
		Controller: controller,
		CreatedAt:  time.Now(),
	}
	session.Touch()

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session
}

// Get returns a live session, touching it
func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, shared.ErrSessionExpired
	}
	session.Touch()
	return session, nil
}

// Close discards a session and everything it accumulated
func (m *SessionManager) Close(id uuid.UUID) {
	m.remove(id)
	m.logger.Info("wizard session closed", zap.String("session_id", id.String()))
}

func (m *SessionManager) remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops the sweep loop
func (m *SessionManager) Shutdown() {
	if atomic.CompareAndSwapInt32(&m.stopped, 0, 1) {
		close(m.stopCh)
	}
}

func (m *SessionManager) sweep() {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepExpired()
		}
	}
}

func (m *SessionManager) sweepExpired() {
	m.mu.Lock()
	var removed int
	for id, session := range m.sessions {
		if session.expired(m.ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Debug("swept expired wizard sessions", zap.Int("removed", removed))
	}
}
