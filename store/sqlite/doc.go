// Package sqlite is the durable store.Store: a SQLite database (pure Go,
// modernc.org/sqlite) migrated with golang-migrate, recovery audio kept as a
// blob file next to it and the credential sealed with package encryption.
//
//	s, err := sqlite.Open(ctx, sqlite.Config{Path: "~/.config/dictation/dictation.db"})
package sqlite
