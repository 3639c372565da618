package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/deepseek"
	"github.com/starford/notelens/internal/index"
)

type memDocs struct {
	mu        sync.Mutex
	files     map[string]string
	links     map[string][]string
	created   []string
	failRead  map[string]bool
	createErr error
}

func newMemDocs() *memDocs {
	return &memDocs{files: map[string]string{}, links: map[string][]string{}, failRead: map[string]bool{}}
}

func (m *memDocs) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *memDocs) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead[path] {
		return nil, fmt.Errorf("read %s: permission denied", path)
	}
	data, ok := m.files[path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return []byte(data), nil
}

func (m *memDocs) LinkedPaths(_ context.Context, path string) ([]string, error) {
	return m.links[path], nil
}

func (m *memDocs) Create(_ context.Context, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.files[path]; ok {
		return apperr.ErrAlreadyExists
	}
	m.files[path] = string(content)
	m.created = append(m.created, path)
	return nil
}

type fakeLLM struct {
	mu     sync.Mutex
	calls  []deepseek.Request
	keys   []string
	answer string
	err    error
	panic  bool
}

func (f *fakeLLM) Complete(_ context.Context, apiKey string, req deepseek.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, apiKey)
	if f.panic {
		panic("boom")
	}
	return f.answer, f.err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recNotifier struct {
	mu       sync.Mutex
	statuses []Status
	notices  []string
}

func (n *recNotifier) Status(s Status) {
	n.mu.Lock()
	n.statuses = append(n.statuses, s)
	n.mu.Unlock()
}

func (n *recNotifier) Notice(msg string) {
	n.mu.Lock()
	n.notices = append(n.notices, msg)
	n.mu.Unlock()
}

type memHistory struct {
	mu   sync.Mutex
	runs []index.RunRow
	err  error
}

func (h *memHistory) RecordRun(_ context.Context, r index.RunRow) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, r)
	return h.err
}
