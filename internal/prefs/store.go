package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tanzil/quran-cli/internal/storage"
)

// Settings is the full preference record. It is always fully populated;
// defaults fill the gaps the first time the app runs.
type Settings struct {
	Theme              string `json:"theme"`
	FontSize           string `json:"fontSize"`
	ArabicFont         string `json:"arabicFont"`
	DefaultTranslation string `json:"defaultTranslation"`
	DownloadEnabled    bool   `json:"downloadEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:              "system",
		FontSize:           "medium",
		ArabicFont:         "uthmani",
		DefaultTranslation: "en.sahih",
		DownloadEnabled:    false,
	}
}

// Patch carries a partial settings update; nil fields are left unchanged.
type Patch struct {
	Theme              *string
	FontSize           *string
	ArabicFont         *string
	DefaultTranslation *string
	DownloadEnabled    *bool
}

type Bookmark struct {
	Surah     int       `json:"surahNumber"`
	Ayah      int       `json:"ayahNumber"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChangeKind int

const (
	SettingsChanged ChangeKind = iota
	BookmarksChanged
)

// Repository is the slice of the storage layer the store needs.
type Repository interface {
	Put(ctx context.Context, namespace, key string, value any) error
	Get(ctx context.Context, namespace, key string, dest any) error
}

const (
	settingsKey  = "current"
	bookmarksKey = "all"
)

// Store is the single owner of the live Settings record and Bookmark list.
// Every mutation persists the complete updated state before returning; a
// persistence failure still applies the in-memory change and is returned so
// the caller can warn that durability was not achieved.
type Store struct {
	repo Repository

	mu          sync.Mutex
	settings    Settings
	bookmarks   []Bookmark
	subscribers []func(ChangeKind)

	nowFn func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:     repo,
		settings: DefaultSettings(),
		nowFn:    time.Now,
	}
}

// Load reads persisted settings and bookmarks. Absent keys leave the
// defaults in place; a storage failure also leaves defaults and is returned
// as a warning.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error

	var loaded Settings
	err := s.repo.Get(ctx, storage.NamespaceSettings, settingsKey, &loaded)
	switch {
	case err == nil:
		s.settings = loaded
	case errors.Is(err, storage.ErrNotFound):
	default:
		firstErr = fmt.Errorf("load settings: %w", err)
	}

	var bookmarks []Bookmark
	err = s.repo.Get(ctx, storage.NamespaceBookmarks, bookmarksKey, &bookmarks)
	switch {
	case err == nil:
		s.bookmarks = bookmarks
	case errors.Is(err, storage.ErrNotFound):
	default:
		if firstErr == nil {
			firstErr = fmt.Errorf("load bookmarks: %w", err)
		}
	}

	return firstErr
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Store) Bookmarks() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Bookmark(nil), s.bookmarks...)
}

// Subscribe registers fn to be called after every committed mutation.
func (s *Store) Subscribe(fn func(ChangeKind)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// UpdateSettings merges patch into the current record atomically and
// persists the result. Readers never observe a half-merged record.
func (s *Store) UpdateSettings(ctx context.Context, patch Patch) (Settings, error) {
	s.mu.Lock()
	merged := s.settings
	if patch.Theme != nil {
		merged.Theme = *patch.Theme
	}
	if patch.FontSize != nil {
		merged.FontSize = *patch.FontSize
	}
	if patch.ArabicFont != nil {
		merged.ArabicFont = *patch.ArabicFont
	}
	if patch.DefaultTranslation != nil {
		merged.DefaultTranslation = *patch.DefaultTranslation
	}
	if patch.DownloadEnabled != nil {
		merged.DownloadEnabled = *patch.DownloadEnabled
	}
	s.settings = merged
	s.mu.Unlock()

	err := s.repo.Put(ctx, storage.NamespaceSettings, settingsKey, merged)
	s.notify(SettingsChanged)
	if err != nil {
		return merged, fmt.Errorf("persist settings: %w", err)
	}
	return merged, nil
}

// AddBookmark appends a bookmark stamped with the current time. Duplicates
// are allowed; IsBookmarked and RemoveBookmark match by key, not identity.
func (s *Store) AddBookmark(ctx context.Context, surah, ayah int) error {
	s.mu.Lock()
	s.bookmarks = append(s.bookmarks, Bookmark{Surah: surah, Ayah: ayah, CreatedAt: s.nowFn()})
	snapshot := append([]Bookmark(nil), s.bookmarks...)
	s.mu.Unlock()

	err := s.repo.Put(ctx, storage.NamespaceBookmarks, bookmarksKey, snapshot)
	s.notify(BookmarksChanged)
	if err != nil {
		return fmt.Errorf("persist bookmarks: %w", err)
	}
	return nil
}

// RemoveBookmark removes every bookmark matching (surah, ayah). Removing a
// non-existent bookmark is a no-op.
func (s *Store) RemoveBookmark(ctx context.Context, surah, ayah int) error {
	s.mu.Lock()
	kept := s.bookmarks[:0]
	for _, b := range s.bookmarks {
		if b.Surah != surah || b.Ayah != ayah {
			kept = append(kept, b)
		}
	}
	s.bookmarks = kept
	snapshot := append([]Bookmark(nil), s.bookmarks...)
	s.mu.Unlock()

	err := s.repo.Put(ctx, storage.NamespaceBookmarks, bookmarksKey, snapshot)
	s.notify(BookmarksChanged)
	if err != nil {
		return fmt.Errorf("persist bookmarks: %w", err)
	}
	return nil
}

func (s *Store) IsBookmarked(surah, ayah int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookmarks {
		if b.Surah == surah && b.Ayah == ayah {
			return true
		}
	}
	return false
}

func (s *Store) notify(kind ChangeKind) {
	s.mu.Lock()
	subscribers := append([](func(ChangeKind))(nil), s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(kind)
	}
}
