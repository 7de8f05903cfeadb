// Package session keeps short-lived per-user conversation buffers used as
// context for the generative fallback. Sessions live only in memory and are
// lost on restart.
package session

import (
	"sync"
	"time"

	"nik-bot/internal/llm"
)

const (
	DefaultTimeout     = 5 * time.Minute
	DefaultMaxMessages = 40
)

type state struct {
	lastActive time.Time
	messages   []llm.Message
}

// Manager owns the session table. A session is live only while the gap since
// its last activity is below the timeout; any access that observes an expired
// session discards it and starts fresh.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*state
	timeout     time.Duration
	maxMessages int
	clock       func() time.Time
}

func NewManager(timeout time.Duration, maxMessages int) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Manager{
		sessions:    make(map[string]*state),
		timeout:     timeout,
		maxMessages: maxMessages,
		clock:       time.Now,
	}
}

// GetOrCreate returns a copy of the user's live session messages, refreshing
// its activity timestamp. An expired or absent session yields an empty one.
func (m *Manager) GetOrCreate(userID string) []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.live(userID)
	st.lastActive = m.clock()
	out := make([]llm.Message, len(st.messages))
	copy(out, st.messages)
	return out
}

// Append adds a message to the user's session, starting a fresh session if
// none is live.
func (m *Manager) Append(userID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.live(userID)
	st.messages = append(st.messages, llm.Message{Role: role, Content: content})
	st.lastActive = m.clock()

	// Sliding window: drop the oldest turns, keeping the window anchored on
	// a user turn so the fallback context never opens mid-exchange.
	if len(st.messages) > m.maxMessages {
		st.messages = st.messages[len(st.messages)-m.maxMessages:]
		if st.messages[0].Role == llm.RoleAssistant {
			st.messages = st.messages[1:]
		}
	}
}

// Clear drops the user's session entirely.
func (m *Manager) Clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// live returns the user's session, replacing an expired one. Callers must
// hold the lock.
func (m *Manager) live(userID string) *state {
	st, ok := m.sessions[userID]
	if ok && m.clock().Sub(st.lastActive) < m.timeout {
		return st
	}
	st = &state{lastActive: m.clock()}
	m.sessions[userID] = st
	return st
}
