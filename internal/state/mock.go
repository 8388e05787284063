package state

import (
	"database/sql"
	"sync"
)

// Mock is an in-memory test double for Manager. It is safe for
// concurrent use so background workers can share it with a test.
type Mock struct {
	mu      sync.Mutex
	update  *UpdateState
	widget  *WidgetData
	saves   int
	saveErr error
	closed  bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

// SetSaveError makes subsequent Save calls fail with err.
func (m *Mock) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns the number of successful SaveUpdateState calls.
func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) GetUpdateState() (*UpdateState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.update == nil {
		return &UpdateState{}, nil
	}
	s := *m.update
	return &s, nil
}

func (m *Mock) SaveUpdateState(s UpdateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.update = &s
	m.saves++
	return nil
}

func (m *Mock) ResetUpdateState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.update = nil
	return nil
}

func (m *Mock) WidgetData() (WidgetData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.widget == nil {
		return DefaultWidgetData(), nil
	}
	w := *m.widget
	if w.Title == "" {
		w.Title = DefaultWidgetTitle
	}
	if w.Theme == "" {
		w.Theme = DefaultWidgetTheme
	}
	return w, nil
}

func (m *Mock) SaveWidgetData(w WidgetData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	// placeholders are not stored, as in the sqlite manager
	w.Title = nullIfDefault(w.Title, DefaultWidgetTitle).String
	w.Theme = nullIfDefault(w.Theme, DefaultWidgetTheme).String
	m.widget = &w
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Interface = (*Mock)(nil)
