package capture

import (
	"context"
	"sync"

	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// MockPrompter is a scripted test implementation of the Prompter
// interface. Each queue feeds one interaction kind; an exhausted queue
// answers with the zero value, which the orchestrator treats as cancel.
type MockPrompter struct {
	// ReviewEdit rewrites the presented draft before answering; nil
	// accepts the draft unchanged.
	ReviewEdit func(draft model.Draft) model.Draft

	methods []model.CaptureMethod
	files   []string
	drafts  []model.Draft
	actions []service.ReviewAction

	reviewed []model.Draft
	notices  []string
	mu       sync.Mutex
}

// NewMockPrompter creates an empty scripted prompter.
func NewMockPrompter() *MockPrompter {
	return &MockPrompter{}
}

// QueueMethod scripts the next method selection answers.
func (m *MockPrompter) QueueMethod(methods ...model.CaptureMethod) *MockPrompter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods = append(m.methods, methods...)
	return m
}

// QueueFile scripts the next upload path answers.
func (m *MockPrompter) QueueFile(paths ...string) *MockPrompter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, paths...)
	return m
}

// QueueDraft scripts the next manual entry answers.
func (m *MockPrompter) QueueDraft(drafts ...model.Draft) *MockPrompter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, drafts...)
	return m
}

// QueueAction scripts the next review outcomes.
func (m *MockPrompter) QueueAction(actions ...service.ReviewAction) *MockPrompter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, actions...)
	return m
}

// SelectMethod answers with the next scripted method.
func (m *MockPrompter) SelectMethod(_ context.Context) (model.CaptureMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.methods) == 0 {
		return "", nil
	}
	method := m.methods[0]
	m.methods = m.methods[1:]
	return method, nil
}

// SelectFile answers with the next scripted upload path.
func (m *MockPrompter) SelectFile(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.files) == 0 {
		return "", nil
	}
	path := m.files[0]
	m.files = m.files[1:]
	return path, nil
}

// CollectManualDraft answers with the next scripted draft.
func (m *MockPrompter) CollectManualDraft(_ context.Context) (model.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.drafts) == 0 {
		return model.Draft{}, nil
	}
	draft := m.drafts[0]
	m.drafts = m.drafts[1:]
	return draft, nil
}

// Review records the presented draft and answers with the next scripted
// action, applying ReviewEdit when set.
func (m *MockPrompter) Review(_ context.Context, draft model.Draft, _ []model.Category) (model.Draft, service.ReviewAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviewed = append(m.reviewed, draft)

	edited := draft
	if m.ReviewEdit != nil {
		edited = m.ReviewEdit(draft)
	}

	if len(m.actions) == 0 {
		return edited, service.ReviewCancel, nil
	}
	action := m.actions[0]
	m.actions = m.actions[1:]
	return edited, action, nil
}

// NotifyError records the message.
func (m *MockPrompter) NotifyError(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, message)
}

// ReviewedDrafts returns the drafts presented for confirmation, in order.
func (m *MockPrompter) ReviewedDrafts() []model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Draft{}, m.reviewed...)
}

// Notices returns the error messages shown so far, in order.
func (m *MockPrompter) Notices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.notices...)
}
