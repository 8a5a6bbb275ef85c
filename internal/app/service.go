package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/tanzil/quran-cli/internal/prefs"
	"github.com/tanzil/quran-cli/internal/quran"
	"github.com/tanzil/quran-cli/internal/render"
	"github.com/tanzil/quran-cli/internal/storage"
)

type RemoteClient interface {
	ListSurahs(ctx context.Context, page int) ([]quran.Surah, error)
	GetSurah(ctx context.Context, number int) (quran.Surah, error)
	GetTranslation(ctx context.Context, number int, edition string) ([]quran.TranslationAyah, error)
	GetTafsir(ctx context.Context, surah, ayah int) (string, error)
}

// Service ties the remote client, cache and preference store together for
// the UI.
type Service struct {
	client RemoteClient
	store  CacheStore
	prefs  *prefs.Store
	pager  *Pager
	detail *DetailLoader
	nowFn  func() time.Time
}

func NewService(client RemoteClient, store CacheStore, prefStore *prefs.Store) *Service {
	return &Service{
		client: client,
		store:  store,
		prefs:  prefStore,
		pager:  NewPager(client),
		detail: NewDetailLoader(client, store, func() bool {
			return prefStore.Settings().DownloadEnabled
		}),
		nowFn: time.Now,
	}
}

func (s *Service) LoadNextPage(ctx context.Context) ([]quran.Surah, error) {
	return s.pager.LoadNextPage(ctx)
}

func (s *Service) HasMore() bool {
	return s.pager.HasMore()
}

// LoadDetail loads the given surah with the translation edition currently
// selected in preferences.
func (s *Service) LoadDetail(ctx context.Context, number int) (Detail, error) {
	return s.detail.LoadDetail(ctx, number, s.prefs.Settings().DefaultTranslation)
}

// Tafsir fetches commentary for one ayah on demand. Never cached; the
// response HTML is flattened to plain text for the terminal.
func (s *Service) Tafsir(ctx context.Context, surah, ayah int) (string, error) {
	raw, err := s.client.GetTafsir(ctx, surah, ayah)
	if err != nil {
		return "", err
	}
	return render.Flatten(raw), nil
}

// DailyVerse is the verse of the day, stable for a calendar day and across
// restarts.
type DailyVerse struct {
	Date        string `json:"date"`
	Surah       int    `json:"surahNumber"`
	SurahName   string `json:"surahName"`
	Ayah        int    `json:"ayahNumber"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

const dailyVerseKey = "daily-verse"

// DailyVerse returns the persisted pick for today, or selects a new one
// from the loaded surah index. The selection is seeded from the date so the
// pick stays stable even if the persisted copy is lost mid-day.
func (s *Service) DailyVerse(ctx context.Context) (DailyVerse, error) {
	today := s.nowFn().Format("2006-01-02")

	var stored DailyVerse
	if err := s.store.Get(ctx, storage.NamespaceMeta, dailyVerseKey, &stored); err == nil && stored.Date == today {
		return stored, nil
	}

	surahs := s.pager.Surahs()
	if len(surahs) == 0 {
		return DailyVerse{}, fmt.Errorf("no surahs loaded yet")
	}

	seed := fnv.New64a()
	_, _ = seed.Write([]byte(today))
	rng := rand.New(rand.NewSource(int64(seed.Sum64())))

	pick := surahs[rng.Intn(len(surahs))]
	detail, err := s.LoadDetail(ctx, pick.Number)
	if err != nil {
		return DailyVerse{}, fmt.Errorf("load daily verse surah: %w", err)
	}
	if len(detail.Surah.Ayahs) == 0 {
		return DailyVerse{}, fmt.Errorf("surah %d has no ayahs", pick.Number)
	}

	idx := rng.Intn(len(detail.Surah.Ayahs))
	verse := DailyVerse{
		Date:      today,
		Surah:     detail.Surah.Number,
		SurahName: detail.Surah.EnglishName,
		Ayah:      detail.Surah.Ayahs[idx].NumberInSurah,
		Text:      detail.Surah.Ayahs[idx].Text,
	}
	if idx < len(detail.Translation) {
		verse.Translation = detail.Translation[idx].Text
	}

	// Best effort; tomorrow's call reselects either way.
	_ = s.store.Put(ctx, storage.NamespaceMeta, dailyVerseKey, verse)
	return verse, nil
}
