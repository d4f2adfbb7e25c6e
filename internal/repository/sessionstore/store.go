// Package sessionstore persists CV builder sessions. It keeps the
// durable copy of each session so a reload picks up where the
// conversation left off. Two backends: a JSON file for local runs and
// postgres when SESSION_STORE_PG_DSN is set, with an LRU cache in front
// of the database.
package sessionstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const cacheSize = 512

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Record]
}

// New returns a file-backed store persisting to path.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
	}
}

// NewPostgres returns a database-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Record](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv picks postgres when SESSION_STORE_PG_DSN is set and the
// connection works, otherwise the file backend at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) EnsureLoaded() {
	if s == nil {
		return
	}
	if s.db != nil {
		_ = s.ensureSchema()
		return
	}
	s.ensureLoadedFile()
}

// Flush persists the in-memory state. No-op on the database backend,
// which writes through.
func (s *Store) Flush() {
	if s == nil || s.db != nil {
		return
	}
	s.saveFile()
}

func (s *Store) Get(sessionID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		if s.cache != nil {
			if cached, ok := s.cache.Get(strings.TrimSpace(sessionID)); ok {
				return cached, true
			}
		}
		rec, ok := s.getDB(sessionID)
		if ok && s.cache != nil {
			s.cache.Add(rec.SessionID, rec)
		}
		return rec, ok
	}
	return s.getFile(sessionID)
}

func (s *Store) Put(rec Record) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.putDB(rec)
		if s.cache != nil {
			s.cache.Remove(strings.TrimSpace(rec.SessionID))
		}
		return
	}
	s.putFile(rec)
}

func (s *Store) Delete(sessionID string) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.deleteDB(sessionID)
		if s.cache != nil {
			s.cache.Remove(strings.TrimSpace(sessionID))
		}
		return
	}
	s.deleteFile(sessionID)
}

// List returns every stored session, most recently updated first.
func (s *Store) List() []Record {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listDB()
	}
	return s.listFile()
}

// Close releases the database connection, if any.
func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}
