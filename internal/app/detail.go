package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tanzil/quran-cli/internal/quran"
	"github.com/tanzil/quran-cli/internal/storage"
)

// CacheStore is the slice of the storage layer the detail loader needs.
type CacheStore interface {
	Put(ctx context.Context, namespace, key string, value any) error
	Get(ctx context.Context, namespace, key string, dest any) error
}

type DetailClient interface {
	GetSurah(ctx context.Context, number int) (quran.Surah, error)
	GetTranslation(ctx context.Context, number int, edition string) ([]quran.TranslationAyah, error)
}

// AlignmentError reports a translation whose length does not match the
// surah's ayah count. It is never cached and always propagated.
type AlignmentError struct {
	Surah        int
	Ayahs        int
	Translations int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("surah %d: translation has %d ayahs, expected %d", e.Surah, e.Translations, e.Ayahs)
}

// Detail pairs a fully loaded surah with its position-aligned translation.
type Detail struct {
	Surah       quran.Surah
	Translation []quran.TranslationAyah
}

// DetailLoader fetches a surah and its translation together, mirrors the
// pair into the cache when offline downloads are enabled, and reads the
// same pair back when the network fails.
type DetailLoader struct {
	client         DetailClient
	store          CacheStore
	offlineEnabled func() bool
}

func NewDetailLoader(client DetailClient, store CacheStore, offlineEnabled func() bool) *DetailLoader {
	return &DetailLoader{client: client, store: store, offlineEnabled: offlineEnabled}
}

// LoadDetail issues the surah and translation requests concurrently and
// joins them before any side effect. A partial success counts as a total
// failure: nothing is returned, nothing is cached. On joint failure with
// offline downloads enabled, both keys are read back from the cache; a hit
// on both returns silently, a miss on either surfaces the original network
// error so the caller can tell "never cached" from a plain miss.
func (l *DetailLoader) LoadDetail(ctx context.Context, number int, edition string) (Detail, error) {
	var (
		surah       quran.Surah
		translation []quran.TranslationAyah
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		surah, err = l.client.GetSurah(gctx, number)
		return err
	})
	g.Go(func() error {
		var err error
		translation, err = l.client.GetTranslation(gctx, number, edition)
		return err
	})

	if fetchErr := g.Wait(); fetchErr != nil {
		if !l.offlineEnabled() {
			return Detail{}, fetchErr
		}
		cached, ok := l.readBack(ctx, number, edition)
		if !ok {
			return Detail{}, fetchErr
		}
		return cached, nil
	}

	if len(translation) != len(surah.Ayahs) {
		return Detail{}, &AlignmentError{Surah: number, Ayahs: len(surah.Ayahs), Translations: len(translation)}
	}

	if l.offlineEnabled() {
		// A failed cache write degrades offline support but must not fail
		// the load; the pair is already in hand.
		_ = l.store.Put(ctx, storage.NamespaceSurahs, storage.SurahKey(number), surah)
		_ = l.store.Put(ctx, storage.NamespaceTranslations, storage.TranslationKey(number, edition), translation)
	}

	return Detail{Surah: surah, Translation: translation}, nil
}

func (l *DetailLoader) readBack(ctx context.Context, number int, edition string) (Detail, bool) {
	var surah quran.Surah
	if err := l.store.Get(ctx, storage.NamespaceSurahs, storage.SurahKey(number), &surah); err != nil {
		return Detail{}, false
	}
	var translation []quran.TranslationAyah
	if err := l.store.Get(ctx, storage.NamespaceTranslations, storage.TranslationKey(number, edition), &translation); err != nil {
		return Detail{}, false
	}
	return Detail{Surah: surah, Translation: translation}, true
}
