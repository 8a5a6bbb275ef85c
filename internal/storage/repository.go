package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// Cache namespaces. Keys within a namespace follow the layout documented on
// the helpers below.
const (
	NamespaceSurahs       = "surahs"
	NamespaceTranslations = "translations"
	NamespaceSettings     = "settings"
	NamespaceBookmarks    = "bookmarks"
	NamespaceMeta         = "meta"
)

// ErrNotFound reports an absent (namespace, key) pair. It is a signal, not a
// failure; callers decide whether a miss matters.
var ErrNotFound = errors.New("storage: key not found")

// Repository is a namespaced key-value store over SQLite. Writes are
// last-write-wins per (namespace, key); there is no eviction, so the store
// grows with everything ever cached.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Init creates the schema. Safe to call on every startup.
func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
  namespace TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (namespace, key)
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable writes and removes a probe row so startup can fail early
// with a clear message instead of erroring on the first real write.
func (r *Repository) CheckWritable(ctx context.Context) error {
	if err := r.Put(ctx, NamespaceMeta, "write-probe", "ok"); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ? AND key = ?`, NamespaceMeta, "write-probe"); err != nil {
		return fmt.Errorf("remove write probe: %w", err)
	}
	return nil
}

// Put stores value under (namespace, key), replacing any prior value.
func (r *Repository) Put(ctx context.Context, namespace, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO cache_entries (namespace, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at
`, namespace, key, string(encoded), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get loads the value stored under (namespace, key) into dest. Returns
// ErrNotFound when the pair is absent; it never fabricates a default.
func (r *Repository) Get(ctx context.Context, namespace, key string, dest any) error {
	var encoded string
	err := r.db.QueryRowContext(ctx, `
SELECT value FROM cache_entries WHERE namespace = ? AND key = ?
`, namespace, key).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}

	if err := json.Unmarshal([]byte(encoded), dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", namespace, key, err)
	}
	return nil
}

// SurahKey is the cache key for a surah in NamespaceSurahs.
func SurahKey(number int) string {
	return strconv.Itoa(number)
}

// TranslationKey is the cache key for a translation in
// NamespaceTranslations: "{surah}-{edition}".
func TranslationKey(number int, edition string) string {
	return fmt.Sprintf("%d-%s", number, edition)
}
