// Package store defines the persisted state of the dictation helper and an
// in-memory implementation. The sqlite sub-package provides the durable one.
//
// History is capped at MaxHistory entries, newest first:
//
//	e := store.NewHistoryEntry(text, elapsed, time.Now())
//	err := s.AddHistory(ctx, e)
package store
