package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tanzil/quran-cli/internal/prefs"
	"github.com/tanzil/quran-cli/internal/quran"
)

type fakeRemoteClient struct {
	fakeCollectionClient
	fakeDetailClient
	tafsir    string
	tafsirErr error
}

func (f *fakeRemoteClient) ListSurahs(ctx context.Context, page int) ([]quran.Surah, error) {
	return f.fakeCollectionClient.ListSurahs(ctx, page)
}

func (f *fakeRemoteClient) GetSurah(ctx context.Context, number int) (quran.Surah, error) {
	return f.fakeDetailClient.GetSurah(ctx, number)
}

func (f *fakeRemoteClient) GetTranslation(ctx context.Context, number int, edition string) ([]quran.TranslationAyah, error) {
	return f.fakeDetailClient.GetTranslation(ctx, number, edition)
}

func (f *fakeRemoteClient) GetTafsir(context.Context, int, int) (string, error) {
	if f.tafsirErr != nil {
		return "", f.tafsirErr
	}
	return f.tafsir, nil
}

func newServiceFixture(t *testing.T) (*Service, *fakeRemoteClient, *fakeStore, *prefs.Store) {
	t.Helper()
	surah, translation := alignedFixture()
	client := &fakeRemoteClient{
		fakeCollectionClient: fakeCollectionClient{pages: map[int][]quran.Surah{
			1: {{Number: 108, EnglishName: "Al-Kawthar", NumberOfAyahs: 3}},
		}},
		fakeDetailClient: fakeDetailClient{surah: surah, translation: translation},
	}
	store := newFakeStore()
	prefStore := prefs.NewStore(store)
	if err := prefStore.Load(context.Background()); err != nil {
		t.Fatalf("prefs load returned error: %v", err)
	}
	return NewService(client, store, prefStore), client, store, prefStore
}

func TestService_LoadDetailUsesPreferredEdition(t *testing.T) {
	svc, _, store, prefStore := newServiceFixture(t)
	ctx := context.Background()

	edition := "fr.hamidullah"
	if _, err := prefStore.UpdateSettings(ctx, prefs.Patch{DefaultTranslation: &edition, DownloadEnabled: boolTrue()}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if _, err := svc.LoadDetail(ctx, 108); err != nil {
		t.Fatalf("LoadDetail returned error: %v", err)
	}

	if _, ok := store.values["translations/108-fr.hamidullah"]; !ok {
		t.Fatalf("expected translation cached under preferred edition, got keys %v", store.puts)
	}
}

func TestService_TafsirFlattensHTML(t *testing.T) {
	svc, client, _, _ := newServiceFixture(t)
	client.tafsir = "<p>First paragraph.</p><p>Second &amp; last.</p>"

	text, err := svc.Tafsir(context.Background(), 2, 255)
	if err != nil {
		t.Fatalf("Tafsir returned error: %v", err)
	}
	if text != "First paragraph.\n\nSecond & last." {
		t.Fatalf("unexpected flattened text: %q", text)
	}
}

func TestService_TafsirPropagatesClientError(t *testing.T) {
	svc, client, _, _ := newServiceFixture(t)
	client.tafsirErr = errors.New("boom")

	if _, err := svc.Tafsir(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_DailyVerseStableWithinDay(t *testing.T) {
	svc, _, _, _ := newServiceFixture(t)
	fixed := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return fixed }
	ctx := context.Background()

	if _, err := svc.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage returned error: %v", err)
	}

	first, err := svc.DailyVerse(ctx)
	if err != nil {
		t.Fatalf("DailyVerse returned error: %v", err)
	}
	if first.Date != "2026-08-30" || first.Text == "" {
		t.Fatalf("unexpected daily verse: %+v", first)
	}

	second, err := svc.DailyVerse(ctx)
	if err != nil {
		t.Fatalf("second DailyVerse returned error: %v", err)
	}
	if first != second {
		t.Fatalf("daily verse changed within the day: %+v vs %+v", first, second)
	}
}

func TestService_DailyVerseReselectsNextDay(t *testing.T) {
	svc, _, _, _ := newServiceFixture(t)
	ctx := context.Background()
	if _, err := svc.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage returned error: %v", err)
	}

	svc.nowFn = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }
	first, err := svc.DailyVerse(ctx)
	if err != nil {
		t.Fatalf("DailyVerse returned error: %v", err)
	}

	svc.nowFn = func() time.Time { return time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC) }
	second, err := svc.DailyVerse(ctx)
	if err != nil {
		t.Fatalf("next-day DailyVerse returned error: %v", err)
	}
	if second.Date != "2026-08-31" || second.Date == first.Date {
		t.Fatalf("expected a fresh pick for the new day, got %+v", second)
	}
}

func TestService_DailyVerseRequiresLoadedIndex(t *testing.T) {
	svc, _, _, _ := newServiceFixture(t)
	if _, err := svc.DailyVerse(context.Background()); err == nil {
		t.Fatal("expected error before any page is loaded")
	}
}

func boolTrue() *bool {
	v := true
	return &v
}
