package rircache

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("artifact not found")

// Store is the persistent tier behind the in-memory cache.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, session uuid.UUID, data []byte) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	session    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	data       BLOB NOT NULL
)`

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the artifact database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open artifact store")
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create artifact table")
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM artifacts WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get artifact")
	}
	return data, nil
}

func (s *SQLiteStore) Put(key string, session uuid.UUID, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO artifacts (key, session, created_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET session = excluded.session,
		 created_at = excluded.created_at, data = excluded.data`,
		key, session.String(), time.Now().Unix(), data,
	)
	if err != nil {
		return errors.Wrap(err, "put artifact")
	}
	s.logger.Debug("stored artifact", zap.String("key", shortKey(key)), zap.Int("bytes", len(data)))
	return nil
}

// Session returns the id of the run that last wrote key.
func (s *SQLiteStore) Session(key string) (uuid.UUID, error) {
	var raw string
	err := s.db.QueryRow(`SELECT session FROM artifacts WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "get artifact session")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "get artifact session")
	}
	return id, nil
}

func (s *SQLiteStore) Close() error {
	return errors.Wrap(s.db.Close(), "close artifact store")
}
