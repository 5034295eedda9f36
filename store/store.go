package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Store persists settings, history, the recovery snapshot, UI state and the
// transcription credential.
//
// Session returns nil without error when no snapshot exists. Credential
// returns "" without error when none is stored.
type Store interface {
	Settings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error

	History(ctx context.Context) ([]HistoryEntry, error)
	AddHistory(ctx context.Context, e HistoryEntry) error
	DeleteHistory(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error

	Session(ctx context.Context) (*RecordingSession, error)
	SaveSession(ctx context.Context, s RecordingSession) error
	ClearSession(ctx context.Context) error

	UIState(ctx context.Context) (UIState, error)
	SaveUIState(ctx context.Context, s UIState) error

	Credential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, key string) error
	DeleteCredential(ctx context.Context) error

	Close() error
}

// Memory is a Store held in process memory.
type Memory struct {
	mu         sync.Mutex
	settings   Settings
	history    []HistoryEntry
	session    *RecordingSession
	ui         UIState
	credential string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store with default settings.
func NewMemory() *Memory {
	return &Memory{settings: DefaultSettings(), ui: UIState{}}
}

func (m *Memory) Settings(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s Settings) error {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	return nil
}

func (m *Memory) History(context.Context) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history), nil
}

func (m *Memory) AddHistory(_ context.Context, e HistoryEntry) error {
	m.mu.Lock()
	m.history = prependHistory(m.history, e)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteHistory(_ context.Context, id string) error {
	m.mu.Lock()
	m.history = slices.DeleteFunc(m.history, func(e HistoryEntry) bool { return e.ID == id })
	m.mu.Unlock()
	return nil
}

func (m *Memory) ClearHistory(context.Context) error {
	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Session(context.Context) (*RecordingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	s.Audio = slices.Clone(s.Audio)
	return &s, nil
}

func (m *Memory) SaveSession(_ context.Context, s RecordingSession) error {
	s.Audio = slices.Clone(s.Audio)
	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	return nil
}

func (m *Memory) ClearSession(context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) UIState(context.Context) (UIState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.ui), nil
}

func (m *Memory) SaveUIState(_ context.Context, s UIState) error {
	m.mu.Lock()
	m.ui = maps.Clone(s)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Credential(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, nil
}

func (m *Memory) SaveCredential(_ context.Context, key string) error {
	m.mu.Lock()
	m.credential = key
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteCredential(context.Context) error {
	m.mu.Lock()
	m.credential = ""
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
