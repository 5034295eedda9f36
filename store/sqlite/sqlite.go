package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kbukum/dictation/encryption"
	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/storage"
	"github.com/kbukum/dictation/storage/local"
	"github.com/kbukum/dictation/store"
)

const (
	keySettings   = "settings"
	keyUIState    = "ui_state"
	keySession    = "session"
	keyCredential = "credential"

	sessionAudioPath = "session/audio.bin"
)

// Store is a store.Store backed by a SQLite database file.
type Store struct {
	db    *sql.DB
	blobs storage.Storage
	enc   encryption.Encryptor
	log   *logger.Logger
}

var _ store.Store = (*Store)(nil)

// sessionRecord is the stored form of a recovery snapshot; the audio lives
// in blob storage.
type sessionRecord struct {
	store.RecordingSession
	HasAudio bool `json:"hasAudio"`
}

// Open opens (creating if needed) the database at cfg.Path and applies
// pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if cfg.Path == "" {
		return nil, errors.InvalidInput("store.path", "database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, errors.Storage("create store directory", err)
	}

	secret := cfg.SecretKey
	if secret == "" {
		var err error
		if secret, err = encryption.LoadOrCreateKey(cfg.KeyFile); err != nil {
			return nil, errors.Storage("load encryption key", err)
		}
	}
	enc, err := encryption.New(secret)
	if err != nil {
		return nil, errors.Storage("create encryptor", err)
	}

	blobs, err := local.NewStorage(local.Config{BasePath: cfg.BlobDir})
	if err != nil {
		return nil, errors.Storage("open blob storage", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Storage("open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Storage("open database", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, errors.Storage("migrate database", err)
	}

	log := logger.Get(logger.ComponentStore)
	log.Debug("store opened", logger.Fields(logger.FieldPath, cfg.Path))
	return &Store{db: db, blobs: blobs, enc: enc, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	return schemaVersion(s.db)
}

func (s *Store) Settings(ctx context.Context) (store.Settings, error) {
	settings := store.DefaultSettings()
	if _, err := s.getJSON(ctx, keySettings, &settings); err != nil {
		return store.Settings{}, errors.Storage("load settings", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings store.Settings) error {
	if err := s.putJSON(ctx, keySettings, settings); err != nil {
		return errors.Storage("save settings", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context) ([]store.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, text, preview, duration
		FROM history
		ORDER BY seq DESC
		LIMIT ?`, store.MaxHistory)
	if err != nil {
		return nil, errors.Storage("load history", err)
	}
	defer rows.Close()

	var entries []store.HistoryEntry
	for rows.Next() {
		var (
			e  store.HistoryEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Text, &e.Preview, &e.Duration); err != nil {
			return nil, errors.Storage("load history", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, errors.Storage("load history", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("load history", err)
	}
	return entries, nil
}

// AddHistory inserts e as the newest entry and evicts the oldest beyond
// store.MaxHistory in the same transaction.
func (s *Store) AddHistory(ctx context.Context, e store.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("save history", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history (id, created_at, text, preview, duration)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Text, e.Preview, e.Duration,
	); err != nil {
		return errors.Storage("save history", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`,
		store.MaxHistory,
	); err != nil {
		return errors.Storage("trim history", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Storage("save history", err)
	}
	return nil
}

func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return errors.Storage("delete history entry", err)
	}
	return nil
}

func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return errors.Storage("clear history", err)
	}
	return nil
}

func (s *Store) Session(ctx context.Context) (*store.RecordingSession, error) {
	var rec sessionRecord
	found, err := s.getJSON(ctx, keySession, &rec)
	if err != nil {
		return nil, errors.Storage("load recording session", err)
	}
	if !found {
		return nil, nil
	}
	if rec.HasAudio {
		audio, err := storage.GetBytes(ctx, s.blobs, sessionAudioPath)
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			s.log.Warn("recovery audio missing", logger.Fields(logger.FieldPath, sessionAudioPath))
		case err != nil:
			return nil, errors.Storage("load recording session", err)
		default:
			rec.Audio = audio
		}
	}
	session := rec.RecordingSession
	return &session, nil
}

func (s *Store) SaveSession(ctx context.Context, session store.RecordingSession) error {
	rec := sessionRecord{RecordingSession: session, HasAudio: len(session.Audio) > 0}
	if rec.HasAudio {
		if err := storage.PutBytes(ctx, s.blobs, sessionAudioPath, session.Audio); err != nil {
			return errors.Storage("save recording session", err)
		}
	} else if err := s.blobs.Delete(ctx, sessionAudioPath); err != nil {
		return errors.Storage("save recording session", err)
	}
	if err := s.putJSON(ctx, keySession, rec); err != nil {
		return errors.Storage("save recording session", err)
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.deleteKey(ctx, keySession); err != nil {
		return errors.Storage("clear recording session", err)
	}
	if err := s.blobs.Delete(ctx, sessionAudioPath); err != nil {
		return errors.Storage("clear recording session", err)
	}
	return nil
}

func (s *Store) UIState(ctx context.Context) (store.UIState, error) {
	ui := store.UIState{}
	if _, err := s.getJSON(ctx, keyUIState, &ui); err != nil {
		return nil, errors.Storage("load ui state", err)
	}
	return ui, nil
}

func (s *Store) SaveUIState(ctx context.Context, ui store.UIState) error {
	if err := s.putJSON(ctx, keyUIState, ui); err != nil {
		return errors.Storage("save ui state", err)
	}
	return nil
}

// Credential returns the decrypted credential, or "" when none is stored.
func (s *Store) Credential(ctx context.Context) (string, error) {
	var sealed string
	found, err := s.getJSON(ctx, keyCredential, &sealed)
	if err != nil {
		return "", errors.Storage("load credential", err)
	}
	if !found {
		return "", nil
	}
	key, err := s.enc.Decrypt(sealed)
	if err != nil {
		return "", errors.Storage("decrypt credential", err)
	}
	return key, nil
}

func (s *Store) SaveCredential(ctx context.Context, key string) error {
	if key == "" {
		return s.DeleteCredential(ctx)
	}
	sealed, err := s.enc.Encrypt(key)
	if err != nil {
		return errors.Storage("encrypt credential", err)
	}
	if err := s.putJSON(ctx, keyCredential, sealed); err != nil {
		return errors.Storage("save credential", err)
	}
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context) error {
	if err := s.deleteKey(ctx, keyCredential); err != nil {
		return errors.Storage("delete credential", err)
	}
	return nil
}

// --- key/value rows ---

func (s *Store) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().Unix(),
	)
	return err
}

func (s *Store) deleteKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
