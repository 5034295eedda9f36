package logger

import (
	"sync"
)

// Component names used across dictation.
const (
	ComponentRecorder      = "recorder"
	ComponentRelay         = "relay"
	ComponentTranscription = "transcription"
	ComponentCleanup       = "cleanup"
	ComponentSession       = "session"
	ComponentStore         = "store"
	ComponentPublisher     = "publisher"
	ComponentServer        = "server"
)

var components = struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Register stores a named component logger.
func Register(name string, l *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.loggers[name] = l
}

// Get returns the logger registered for a component, or the global logger
// tagged with that component name.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.loggers[name]
	components.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults seeds the registry with every dictation component,
// derived from the current global logger. Call it after Init.
func RegisterDefaults() {
	for _, name := range []string{
		ComponentRecorder, ComponentRelay, ComponentTranscription, ComponentCleanup,
		ComponentSession, ComponentStore, ComponentPublisher, ComponentServer,
	} {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}
