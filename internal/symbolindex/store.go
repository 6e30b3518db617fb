package symbolindex

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sindudeva/revguard/internal/model"
)

const storeSchemaSQL = `
CREATE TABLE IF NOT EXISTS classes (
    path TEXT PRIMARY KEY,
    mtime INTEGER NOT NULL,
    package_name TEXT NOT NULL,
    simple_name TEXT NOT NULL,
    fqn TEXT NOT NULL,
    supertypes TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classes_fqn ON classes(fqn);
`

// Store is an optional warm-start cache for the symbol index, letting a
// large repository skip re-parsing every file on every run even when the
// reverse-graph line cache misses. Keyed by path+mtime; a stale mtime is
// simply a miss for that one file, not a schema invalidation.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the index store at <cacheDir>/symbolindex.db.
func OpenStore(cacheDir string) (*Store, error) {
	dbPath := filepath.Join(cacheDir, "symbolindex.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open symbol index store: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(storeSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init symbol index store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the stored ClassInfo for path if its stored mtime
// matches mtimeUnix exactly, else a miss.
func (s *Store) Lookup(path string, mtimeUnix int64) (*model.ClassInfo, bool) {
	var storedMtime int64
	var pkg, simpleName, fqn, supertypesJoined string
	err := s.db.QueryRow(
		"SELECT mtime, package_name, simple_name, fqn, supertypes FROM classes WHERE path = ?",
		path,
	).Scan(&storedMtime, &pkg, &simpleName, &fqn, &supertypesJoined)
	if err != nil {
		return nil, false
	}
	if storedMtime != mtimeUnix {
		return nil, false
	}

	var supertypes []string
	if supertypesJoined != "" {
		supertypes = strings.Split(supertypesJoined, "|")
	}
	return &model.ClassInfo{
		Path:                 path,
		PackageName:          pkg,
		SimpleName:           simpleName,
		FQN:                  fqn,
		SupertypeSimpleNames: supertypes,
	}, true
}

// Put upserts path's ClassInfo keyed by mtimeUnix.
func (s *Store) Put(path string, mtimeUnix int64, ci *model.ClassInfo) error {
	_, err := s.db.Exec(
		`INSERT INTO classes (path, mtime, package_name, simple_name, fqn, supertypes)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   mtime=excluded.mtime, package_name=excluded.package_name,
		   simple_name=excluded.simple_name, fqn=excluded.fqn, supertypes=excluded.supertypes`,
		path, mtimeUnix, ci.PackageName, ci.SimpleName, ci.FQN, strings.Join(ci.SupertypeSimpleNames, "|"),
	)
	if err != nil {
		return fmt.Errorf("put symbol index row for %s: %w", path, err)
	}
	return nil
}

// Clear removes every row, used by "revguard cache clear".
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM classes"); err != nil {
		return fmt.Errorf("clear symbol index store: %w", err)
	}
	return nil
}

// BuildWarm is Build with a warm-start Store consulted ahead of
// ParseFile: an mtime match is a store hit and skips re-parsing the
// file's content entirely (the content is still read into contentCache,
// since callers need it for rule evaluation regardless of index state).
// A store miss parses normally and persists the result for next run.
func BuildWarm(files []string, contentCache map[string]string, readFile func(string) (string, error), store *Store, mtimeOf func(string) int64) (*Index, error) {
	if store == nil {
		return Build(files, contentCache, readFile)
	}

	idx := New()
	for _, path := range files {
		if !IsEligible(path) {
			continue
		}
		mtime := mtimeOf(path)

		if ci, hit := store.Lookup(path, mtime); hit {
			idx.Add(ci)
			continue
		}

		content, ok := contentCache[path]
		if !ok {
			var err error
			content, err = readFile(path)
			if err != nil {
				continue // §7: I/O error on a single file is skipped, not fatal.
			}
			contentCache[path] = content
		}

		ci, _ := ParseFile(path, content)
		if ci == nil {
			continue
		}
		idx.Add(ci)
		_ = store.Put(path, mtime, ci)
	}
	return idx, nil
}
