package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"nik-bot/internal/llm"
)

func newTestManager(timeout time.Duration, maxMessages int) (*Manager, *time.Time) {
	m := NewManager(timeout, maxMessages)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.clock = func() time.Time { return now }
	return m, &now
}

func TestGetOrCreateAndAppend(t *testing.T) {
	m, _ := newTestManager(5*time.Minute, 40)

	if msgs := m.GetOrCreate("u1"); len(msgs) != 0 {
		t.Fatalf("fresh session not empty: %d", len(msgs))
	}

	m.Append("u1", llm.RoleUser, "hello")
	m.Append("u1", llm.RoleAssistant, "hi")

	msgs := m.GetOrCreate("u1")
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected [0]: %+v", msgs[0])
	}

	// Returned slice is a copy
	msgs[0] = llm.Message{Role: llm.RoleUser, Content: "mutated"}
	if got := m.GetOrCreate("u1"); got[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestExpiryDiscardsSession(t *testing.T) {
	m, now := newTestManager(300*time.Second, 40)

	m.Append("u1", llm.RoleUser, "old message")

	// Just inside the window: still live, and the read refreshes it.
	*now = now.Add(299 * time.Second)
	if msgs := m.GetOrCreate("u1"); len(msgs) != 1 {
		t.Fatalf("session expired too early")
	}

	// One past the timeout since the refresh: gone.
	*now = now.Add(301 * time.Second)
	if msgs := m.GetOrCreate("u1"); len(msgs) != 0 {
		t.Fatalf("expired session not discarded, got %d messages", len(msgs))
	}
}

func TestAppendAfterExpiryStartsFresh(t *testing.T) {
	m, now := newTestManager(300*time.Second, 40)

	m.Append("u1", llm.RoleUser, "stale")
	*now = now.Add(301 * time.Second)
	m.Append("u1", llm.RoleUser, "fresh")

	msgs := m.GetOrCreate("u1")
	if len(msgs) != 1 || msgs[0].Content != "fresh" {
		t.Fatalf("append after expiry should start a fresh session, got %+v", msgs)
	}
}

func TestSlidingWindowCap(t *testing.T) {
	m, _ := newTestManager(5*time.Minute, 6)

	for i := 0; i < 10; i++ {
		m.Append("u1", llm.RoleUser, fmt.Sprintf("q%d", i))
		m.Append("u1", llm.RoleAssistant, fmt.Sprintf("a%d", i))
	}

	msgs := m.GetOrCreate("u1")
	if len(msgs) > 6 {
		t.Fatalf("cap not enforced: %d messages", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser {
		t.Fatalf("window starts with %s turn", msgs[0].Role)
	}
	if msgs[len(msgs)-1].Content != "a9" {
		t.Fatalf("newest message evicted: %+v", msgs[len(msgs)-1])
	}
}

func TestClear(t *testing.T) {
	m, _ := newTestManager(5*time.Minute, 40)
	m.Append("u1", llm.RoleUser, "hello")
	m.Append("u2", llm.RoleUser, "other")

	m.Clear("u1")
	if len(m.GetOrCreate("u1")) != 0 {
		t.Fatalf("clear did not drop session")
	}
	if len(m.GetOrCreate("u2")) != 1 {
		t.Fatalf("clear affected another user")
	}
}

func TestConcurrentAppendSameKeyLosesNothing(t *testing.T) {
	m := NewManager(5*time.Minute, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Append("u1", llm.RoleUser, "msg")
				m.GetOrCreate("u1")
			}
		}()
	}
	wg.Wait()

	if got := len(m.GetOrCreate("u1")); got != 400 {
		t.Fatalf("lost updates on rapid same-key appends: want 400, got %d", got)
	}
}

func TestConcurrentAccessDistinctKeys(t *testing.T) {
	m := NewManager(5*time.Minute, 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n)
			for j := 0; j < 50; j++ {
				m.Append(id, llm.RoleUser, "msg")
				m.GetOrCreate(id)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("user-%d", i)
		if got := len(m.GetOrCreate(id)); got != 50 {
			t.Fatalf("%s: want 50 messages, got %d", id, got)
		}
	}
}
