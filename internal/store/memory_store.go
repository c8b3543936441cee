package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinicalcopilot/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs tests and local runs
// that want real persistence semantics without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User // key: user ID
	email   map[string]string      // email -> user ID
	cases   map[string]domain.Case
	order   []string          // case IDs in insertion order
	reports map[string]string // case ID -> serialized output content
	outputs map[string]string // output ID -> case ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		email:   make(map[string]string),
		cases:   make(map[string]domain.Case),
		reports: make(map[string]string),
		outputs: make(map[string]string),
	}
}

// CreateOrGetUserByEmail registers a user on first login, returning the
// existing row on subsequent calls. The mutex makes lookup-and-insert atomic.
func (m *MemoryStore) CreateOrGetUserByEmail(_ context.Context, email, password string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.email[email]; ok {
		return m.users[id], nil
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: password,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.ID] = user
	m.email[email] = user.ID
	return user, nil
}

// CreateCase records a case and tracks insertion order for history reads.
func (m *MemoryStore) CreateCase(_ context.Context, userID string, input domain.CaseInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Case{
		ID:        uuid.NewString(),
		UserID:    userID,
		Complaint: input.Complaint,
		Symptoms:  input.Symptoms,
		Vitals:    input.Vitals,
		Labs:      input.Labs,
		CreatedAt: time.Now().UTC(),
	}
	m.cases[c.ID] = c
	m.order = append(m.order, c.ID)
	return c.ID, nil
}

// CreateOutput attaches report content to an existing case.
func (m *MemoryStore) CreateOutput(_ context.Context, caseID string, content domain.ClinicalReport) (string, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode output content: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[caseID]; !ok {
		return "", fmt.Errorf("create output: case %q not found", caseID)
	}
	if _, ok := m.reports[caseID]; !ok {
		m.reports[caseID] = string(raw)
	}
	id := uuid.NewString()
	m.outputs[id] = caseID
	return id, nil
}

// ListCasesByUser returns the user's cases newest-first with report content
// attached. Insertion order stands in for created_at, which may collide
// within a single clock tick.
func (m *MemoryStore) ListCasesByUser(_ context.Context, userID string) ([]domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Case, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		c, ok := m.cases[m.order[i]]
		if !ok || c.UserID != userID {
			continue
		}
		if report, ok := m.reports[c.ID]; ok {
			r := report
			c.Report = &r
		}
		res = append(res, c)
	}
	return res, nil
}
