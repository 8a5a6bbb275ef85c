package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tanzil/quran-cli/internal/storage"
)

type fakeRepo struct {
	values map[string][]byte
	puts   int
	putErr error
	getErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{values: make(map[string][]byte)}
}

func (f *fakeRepo) Put(_ context.Context, namespace, key string, value any) error {
	if f.putErr != nil {
		return f.putErr
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[namespace+"/"+key] = encoded
	f.puts++
	return nil
}

func (f *fakeRepo) Get(_ context.Context, namespace, key string, dest any) error {
	if f.getErr != nil {
		return f.getErr
	}
	encoded, ok := f.values[namespace+"/"+key]
	if !ok {
		return storage.ErrNotFound
	}
	return json.Unmarshal(encoded, dest)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestLoad_AbsentKeysKeepDefaults(t *testing.T) {
	store := NewStore(newFakeRepo())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := store.Settings(); got != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if len(store.Bookmarks()) != 0 {
		t.Fatalf("expected no bookmarks, got %+v", store.Bookmarks())
	}
}

func TestLoad_ReadsPersistedState(t *testing.T) {
	repo := newFakeRepo()
	seed := NewStore(repo)
	ctx := context.Background()
	if _, err := seed.UpdateSettings(ctx, Patch{Theme: strPtr("dark")}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if err := seed.AddBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}

	store := NewStore(repo)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Settings().Theme != "dark" {
		t.Fatalf("expected persisted theme, got %+v", store.Settings())
	}
	if !store.IsBookmarked(2, 255) {
		t.Fatal("expected persisted bookmark")
	}
}

func TestUpdateSettings_MergesPartialFields(t *testing.T) {
	store := NewStore(newFakeRepo())
	ctx := context.Background()

	if _, err := store.UpdateSettings(ctx, Patch{FontSize: strPtr("large")}); err != nil {
		t.Fatalf("first update returned error: %v", err)
	}
	if _, err := store.UpdateSettings(ctx, Patch{Theme: strPtr("dark")}); err != nil {
		t.Fatalf("second update returned error: %v", err)
	}

	got := store.Settings()
	want := DefaultSettings()
	want.FontSize = "large"
	want.Theme = "dark"
	if got != want {
		t.Fatalf("unexpected merged settings: got %+v want %+v", got, want)
	}
}

func TestUpdateSettings_PersistsFullRecord(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)

	if _, err := store.UpdateSettings(context.Background(), Patch{DownloadEnabled: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	var persisted Settings
	if err := repo.Get(context.Background(), storage.NamespaceSettings, settingsKey, &persisted); err != nil {
		t.Fatalf("settings were not persisted: %v", err)
	}
	if !persisted.DownloadEnabled || persisted.Theme != "system" {
		t.Fatalf("expected full record persisted, got %+v", persisted)
	}
}

func TestUpdateSettings_StorageFailureStillAppliesInMemory(t *testing.T) {
	repo := newFakeRepo()
	repo.putErr = errors.New("disk full")
	store := NewStore(repo)

	merged, err := store.UpdateSettings(context.Background(), Patch{Theme: strPtr("dark")})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if merged.Theme != "dark" {
		t.Fatalf("expected merged record returned, got %+v", merged)
	}
	if store.Settings().Theme != "dark" {
		t.Fatalf("expected in-memory state updated, got %+v", store.Settings())
	}
}

func TestBookmarks_DuplicatesRemovedInOneCall(t *testing.T) {
	store := NewStore(newFakeRepo())
	ctx := context.Background()

	if err := store.AddBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}
	if err := store.AddBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("second AddBookmark returned error: %v", err)
	}
	if len(store.Bookmarks()) != 2 {
		t.Fatalf("expected duplicates kept, got %d bookmarks", len(store.Bookmarks()))
	}

	if err := store.RemoveBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("RemoveBookmark returned error: %v", err)
	}
	if store.IsBookmarked(2, 255) {
		t.Fatal("expected all matching bookmarks removed")
	}
	if len(store.Bookmarks()) != 0 {
		t.Fatalf("expected empty bookmark list, got %+v", store.Bookmarks())
	}
}

func TestRemoveBookmark_MissingIsNoOp(t *testing.T) {
	store := NewStore(newFakeRepo())
	if err := store.RemoveBookmark(context.Background(), 9, 9); err != nil {
		t.Fatalf("RemoveBookmark returned error: %v", err)
	}
}

func TestRemoveBookmark_KeepsOtherBookmarks(t *testing.T) {
	store := NewStore(newFakeRepo())
	ctx := context.Background()

	if err := store.AddBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}
	if err := store.AddBookmark(ctx, 36, 1); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}
	if err := store.RemoveBookmark(ctx, 2, 255); err != nil {
		t.Fatalf("RemoveBookmark returned error: %v", err)
	}

	if !store.IsBookmarked(36, 1) {
		t.Fatal("unrelated bookmark was removed")
	}
}

func TestAddBookmark_StampsCreationTime(t *testing.T) {
	store := NewStore(newFakeRepo())
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.nowFn = func() time.Time { return fixed }

	if err := store.AddBookmark(context.Background(), 1, 1); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}
	bookmarks := store.Bookmarks()
	if len(bookmarks) != 1 || !bookmarks[0].CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected bookmark: %+v", bookmarks)
	}
}

func TestSubscribe_NotifiedAfterMutations(t *testing.T) {
	store := NewStore(newFakeRepo())
	var changes []ChangeKind
	store.Subscribe(func(kind ChangeKind) { changes = append(changes, kind) })

	ctx := context.Background()
	if _, err := store.UpdateSettings(ctx, Patch{Theme: strPtr("light")}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if err := store.AddBookmark(ctx, 1, 1); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}

	if len(changes) != 2 || changes[0] != SettingsChanged || changes[1] != BookmarksChanged {
		t.Fatalf("unexpected notifications: %+v", changes)
	}
}

func TestWriteThrough_EveryMutationPersists(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)
	ctx := context.Background()

	if err := store.AddBookmark(ctx, 1, 1); err != nil {
		t.Fatalf("AddBookmark returned error: %v", err)
	}
	if err := store.RemoveBookmark(ctx, 1, 1); err != nil {
		t.Fatalf("RemoveBookmark returned error: %v", err)
	}
	if _, err := store.UpdateSettings(ctx, Patch{Theme: strPtr("dark")}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if repo.puts != 3 {
		t.Fatalf("expected 3 persisted writes, got %d", repo.puts)
	}
}
