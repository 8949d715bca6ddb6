// Package checkout implements the multi-step purchase conversation: a
// customer picks a package, a billing cycle, names the service, chooses a
// payment method and confirms. State lives in an in-process session store
// keyed by Telegram user id.
package checkout

import (
	"sync"
	"time"

	"hostingbot/internal/model"
)

// Step is the position inside the checkout conversation.
type Step int

const (
	StepCycle Step = iota
	StepServiceName
	StepDomain
	StepPayment
	StepConfirm
)

// SessionTTL is how long an idle checkout survives before it is dropped.
const SessionTTL = 30 * time.Minute

// Session is the full state of one customer's checkout. It carries the
// package snapshot taken when the flow started; the final confirm step
// re-reads the package so a mid-flow price or availability change wins.
type Session struct {
	TelegramID  int64
	UserID      int64
	Package     *model.Package
	Cycle       model.BillingCycle
	Amount      int64
	ServiceName string
	DomainName  string
	Method      model.PaymentMethod
	Step        Step
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// Store holds active checkout sessions. One session per Telegram user;
// starting a new checkout replaces any previous one.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates a new session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Put stores a session, replacing any existing one for the same user.
func (s *Store) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.UpdatedAt = time.Now()
	s.sessions[session.TelegramID] = session
}

// Get returns the live session for a user, or nil. Expired sessions are
// dropped on access.
func (s *Store) Get(telegramID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[telegramID]
	if !ok {
		return nil
	}
	if time.Since(session.UpdatedAt) > SessionTTL {
		delete(s.sessions, telegramID)
		return nil
	}
	return session
}

// Delete drops a user's session.
func (s *Store) Delete(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, telegramID)
}

// Len reports the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
