package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// stubModel replays scripted responses; once the script runs out the last
// entry repeats.
type stubModel struct {
	mu       sync.Mutex
	script   []stubReply
	calls    int
	requests []GenerateRequest
}

type stubReply struct {
	text string
	err  error
}

func (m *stubModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return "", errors.New("stub: no script")
	}
	i := m.calls
	if i >= len(m.script) {
		i = len(m.script) - 1
	}
	m.calls++
	return m.script[i].text, m.script[i].err
}

func (m *stubModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const validAnalysisJSON = `{
  "emotionalState": "Calm",
  "summary": "You had a quiet, grounded day.",
  "rawScore": 72,
  "scoreExplanation": "You feel balanced.",
  "supportMessage": "Keep making room for rest.",
  "themes": ["Rest", "Nature"],
  "suggestions": [{"title": "Walk", "detail": "Ten minutes outside tomorrow."}]
}`
