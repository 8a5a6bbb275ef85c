package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tanzil/quran-cli/internal/app"
	"github.com/tanzil/quran-cli/internal/prefs"
	"github.com/tanzil/quran-cli/internal/quran"
	"github.com/tanzil/quran-cli/internal/render"
	"github.com/tanzil/quran-cli/internal/tui/state"
	"github.com/tanzil/quran-cli/internal/tui/theme"
)

type Service interface {
	LoadNextPage(ctx context.Context) ([]quran.Surah, error)
	HasMore() bool
	LoadDetail(ctx context.Context, number int) (app.Detail, error)
	Tafsir(ctx context.Context, surah, ayah int) (string, error)
	DailyVerse(ctx context.Context) (app.DailyVerse, error)
}

var (
	themeChoices    = []string{"system", "light", "dark"}
	fontSizeChoices = []string{"small", "medium", "large", "x-large"}
	editionChoices  = []string{"en.sahih", "en.pickthall", "fr.hamidullah", "ur.jalandhry"}
)

type loadPageSuccessMsg struct {
	surahs  []quran.Surah
	hasMore bool
}

type loadPageErrorMsg struct {
	err error
}

type detailSuccessMsg struct {
	detail app.Detail
}

type detailErrorMsg struct {
	err error
}

type tafsirSuccessMsg struct {
	surah int
	ayah  int
	text  string
}

type tafsirErrorMsg struct {
	err error
}

type dailyVerseSuccessMsg struct {
	verse app.DailyVerse
}

type dailyVerseErrorMsg struct {
	err error
}

type prefsWarningMsg struct {
	err error
}

type clearStatusMsg struct {
	id int
}

type viewMode int

const (
	viewList viewMode = iota
	viewDetail
	viewBookmarks
)

type Model struct {
	service Service
	prefs   *prefs.Store
	th      theme.Theme

	mode    viewMode
	surahs  []quran.Surah
	cursor  int
	hasMore bool

	detail        app.Detail
	ayahCursor    int
	tafsirText    string
	tafsirFor     int
	tafsirLoading bool

	bookmarkCursor int

	verse     app.DailyVerse
	showVerse bool

	loading  bool
	status   string
	statusID int
	err      error
	showHelp bool
	width    int
	height   int
}

func NewModel(service Service, prefStore *prefs.Store) Model {
	return Model{
		service: service,
		prefs:   prefStore,
		th:      theme.Default(),
		hasMore: true,
	}
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	return loadPageCmd(m.service)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case loadPageSuccessMsg:
		m.loading = false
		m.err = nil
		m.surahs = msg.surahs
		m.hasMore = msg.hasMore
		m.cursor = state.ClampCursor(m.cursor, len(m.surahs))
		return m, nil
	case loadPageErrorMsg:
		m.loading = false
		m.status = ""
		m.err = msg.err
		return m, nil
	case detailSuccessMsg:
		m.loading = false
		m.err = nil
		m.detail = msg.detail
		m.mode = viewDetail
		m.ayahCursor = 0
		m.tafsirText = ""
		m.tafsirFor = 0
		return m, nil
	case detailErrorMsg:
		m.loading = false
		m.status = ""
		m.err = msg.err
		return m, nil
	case tafsirSuccessMsg:
		m.tafsirLoading = false
		if msg.surah == m.detail.Surah.Number {
			m.tafsirText = msg.text
			m.tafsirFor = msg.ayah
		}
		return m, nil
	case tafsirErrorMsg:
		m.tafsirLoading = false
		m.status = ""
		m.err = msg.err
		return m, nil
	case dailyVerseSuccessMsg:
		m.err = nil
		m.verse = msg.verse
		m.showVerse = true
		return m, nil
	case dailyVerseErrorMsg:
		m.status = ""
		m.err = msg.err
		return m, nil
	case prefsWarningMsg:
		m.err = msg.err
		m.status = "Change applied but not persisted"
		return m, nil
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		switch msg.String() {
		case "esc":
			m.showHelp = false
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case viewDetail:
		return m.updateDetailKey(msg)
	case viewBookmarks:
		return m.updateBookmarksKey(msg)
	default:
		return m.updateListKey(msg)
	}
}

func (m Model) updateListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = state.ClampCursor(m.cursor-1, len(m.surahs))
		return m, nil
	case "down", "j":
		m.cursor = state.ClampCursor(m.cursor+1, len(m.surahs))
		return m, nil
	case "g":
		m.cursor = 0
		return m, nil
	case "G":
		m.cursor = state.ClampCursor(len(m.surahs)-1, len(m.surahs))
		return m, nil
	case "pgup", "ctrl+b":
		m.cursor = state.ClampCursor(m.cursor-state.PageStep(m.height, m.status != ""), len(m.surahs))
		return m, nil
	case "pgdown", "ctrl+f":
		m.cursor = state.ClampCursor(m.cursor+state.PageStep(m.height, m.status != ""), len(m.surahs))
		return m, nil
	case "enter":
		if len(m.surahs) == 0 || m.loading {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, detailCmd(m.service, m.surahs[m.cursor].Number)
	case "n", "r":
		// "r" re-attempts after a failed page; the pager retries the
		// same page index on its own.
		if m.loading || (!m.hasMore && m.err == nil) {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, loadPageCmd(m.service)
	case "B":
		m.mode = viewBookmarks
		m.bookmarkCursor = 0
		return m, nil
	case "v":
		if m.showVerse {
			m.showVerse = false
			return m, nil
		}
		return m, dailyVerseCmd(m.service)
	case "t":
		next := state.Cycle(themeChoices, m.prefs.Settings().Theme)
		return m.applySetting(prefs.Patch{Theme: &next}, "Theme: "+next)
	case "f":
		next := state.Cycle(fontSizeChoices, m.prefs.Settings().FontSize)
		return m.applySetting(prefs.Patch{FontSize: &next}, "Font size: "+next)
	case "e":
		next := state.Cycle(editionChoices, m.prefs.Settings().DefaultTranslation)
		return m.applySetting(prefs.Patch{DefaultTranslation: &next}, "Translation: "+next)
	case "o":
		next := !m.prefs.Settings().DownloadEnabled
		label := "Offline downloads: off"
		if next {
			label = "Offline downloads: on"
		}
		return m.applySetting(prefs.Patch{DownloadEnabled: &next}, label)
	}
	return m, nil
}

func (m Model) updateDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.mode = viewList
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.ayahCursor = state.ClampCursor(m.ayahCursor-1, len(m.detail.Surah.Ayahs))
		return m, nil
	case "down", "j":
		m.ayahCursor = state.ClampCursor(m.ayahCursor+1, len(m.detail.Surah.Ayahs))
		return m, nil
	case "g":
		m.ayahCursor = 0
		return m, nil
	case "G":
		m.ayahCursor = state.ClampCursor(len(m.detail.Surah.Ayahs)-1, len(m.detail.Surah.Ayahs))
		return m, nil
	case "b":
		return m.toggleBookmarkCurrent()
	case "x":
		if len(m.detail.Surah.Ayahs) == 0 || m.tafsirLoading {
			return m, nil
		}
		ayah := m.detail.Surah.Ayahs[m.ayahCursor].NumberInSurah
		if m.tafsirFor == ayah {
			m.tafsirFor = 0
			m.tafsirText = ""
			return m, nil
		}
		m.tafsirLoading = true
		return m, tafsirCmd(m.service, m.detail.Surah.Number, ayah)
	}
	return m, nil
}

func (m Model) updateBookmarksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	bookmarks := m.prefs.Bookmarks()
	switch msg.String() {
	case "esc", "backspace", "B":
		m.mode = viewList
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.bookmarkCursor = state.ClampCursor(m.bookmarkCursor-1, len(bookmarks))
		return m, nil
	case "down", "j":
		m.bookmarkCursor = state.ClampCursor(m.bookmarkCursor+1, len(bookmarks))
		return m, nil
	case "d":
		if len(bookmarks) == 0 {
			return m, nil
		}
		// Removing a duplicated (surah, ayah) drops every copy, so the
		// list can shrink by more than one between key presses.
		m.bookmarkCursor = state.ClampCursor(m.bookmarkCursor, len(bookmarks))
		target := bookmarks[m.bookmarkCursor]
		m.bookmarkCursor = state.ClampCursor(m.bookmarkCursor, len(bookmarks)-1)
		return m.setStatus(fmt.Sprintf("Removed bookmark %d:%d", target.Surah, target.Ayah),
			removeBookmarkCmd(m.prefs, target.Surah, target.Ayah))
	}
	return m, nil
}

func (m Model) toggleBookmarkCurrent() (tea.Model, tea.Cmd) {
	if len(m.detail.Surah.Ayahs) == 0 {
		return m, nil
	}
	surah := m.detail.Surah.Number
	ayah := m.detail.Surah.Ayahs[m.ayahCursor].NumberInSurah
	if m.prefs.IsBookmarked(surah, ayah) {
		return m.setStatus(fmt.Sprintf("Removed bookmark %d:%d", surah, ayah),
			removeBookmarkCmd(m.prefs, surah, ayah))
	}
	return m.setStatus(fmt.Sprintf("Bookmarked %d:%d", surah, ayah),
		addBookmarkCmd(m.prefs, surah, ayah))
}

func (m Model) setStatus(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.status = status
	m.err = nil
	m.statusID++
	return m, tea.Batch(cmd, clearStatusCmd(m.statusID, 3*time.Second))
}

func (m Model) applySetting(patch prefs.Patch, status string) (tea.Model, tea.Cmd) {
	return m.setStatus(status, updateSettingsCmd(m.prefs, patch))
}

func loadPageCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		surahs, err := service.LoadNextPage(ctx)
		if err != nil {
			return loadPageErrorMsg{err: err}
		}
		return loadPageSuccessMsg{surahs: surahs, hasMore: service.HasMore()}
	}
}

func detailCmd(service Service, number int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		detail, err := service.LoadDetail(ctx, number)
		if err != nil {
			return detailErrorMsg{err: err}
		}
		return detailSuccessMsg{detail: detail}
	}
}

func tafsirCmd(service Service, surah, ayah int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		text, err := service.Tafsir(ctx, surah, ayah)
		if err != nil {
			return tafsirErrorMsg{err: err}
		}
		return tafsirSuccessMsg{surah: surah, ayah: ayah, text: text}
	}
}

func dailyVerseCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		verse, err := service.DailyVerse(ctx)
		if err != nil {
			return dailyVerseErrorMsg{err: err}
		}
		return dailyVerseSuccessMsg{verse: verse}
	}
}

func updateSettingsCmd(store *prefs.Store, patch prefs.Patch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := store.UpdateSettings(ctx, patch); err != nil {
			return prefsWarningMsg{err: err}
		}
		return nil
	}
}

func addBookmarkCmd(store *prefs.Store, surah, ayah int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.AddBookmark(ctx, surah, ayah); err != nil {
			return prefsWarningMsg{err: err}
		}
		return nil
	}
}

func removeBookmarkCmd(store *prefs.Store, surah, ayah int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.RemoveBookmark(ctx, surah, ayah); err != nil {
			return prefsWarningMsg{err: err}
		}
		return nil
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.th.Title.Render("Quran CLI") + "\n")

	if m.showHelp {
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(m.helpView())
		b.WriteString("\n")
		b.WriteString(m.messagePanel())
		return b.String()
	}

	switch m.mode {
	case viewDetail:
		b.WriteString("j/k: ayah | b: bookmark | x: tafsir | esc: back | ?: help | q: quit\n\n")
		b.WriteString(m.detailView())
	case viewBookmarks:
		b.WriteString("j/k: move | d: delete | esc: back | q: quit\n\n")
		b.WriteString(m.bookmarksView())
	default:
		b.WriteString("j/k: move | enter: open | n: more | v: verse | B: bookmarks | t/f/e/o: settings | ?: help | q: quit\n\n")
		if m.showVerse {
			b.WriteString(m.verseView())
		}
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(m.messagePanel())
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) listView() string {
	if m.loading && len(m.surahs) == 0 {
		return m.th.StateLoad.Render("Loading surahs...") + "\n"
	}
	if len(m.surahs) == 0 {
		return "No surahs loaded.\n"
	}

	var b strings.Builder
	start, end := state.Window(len(m.surahs), m.cursor, m.listHeight())
	for i := start; i < end; i++ {
		surah := m.surahs[i]
		line := fmt.Sprintf("%3d  %-24s %-28s %s · %d ayahs",
			surah.Number, surah.EnglishName, surah.EnglishNameTranslation,
			surah.RevelationType, surah.NumberOfAyahs)
		if i == m.cursor {
			line = m.th.ActiveLine.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) detailView() string {
	surah := m.detail.Surah
	if len(surah.Ayahs) == 0 {
		return "No surah loaded.\n"
	}

	var b strings.Builder
	b.WriteString(m.th.Section.Render(fmt.Sprintf("%d. %s — %s (%s)",
		surah.Number, surah.EnglishName, surah.EnglishNameTranslation, surah.RevelationType)) + "\n")
	b.WriteString(m.th.MetaValue.Render(surah.Name) + "\n\n")

	start, end := state.Window(len(surah.Ayahs), m.ayahCursor, m.detailHeight())
	for i := start; i < end; i++ {
		ayah := surah.Ayahs[i]
		marker := "  "
		if i == m.ayahCursor {
			marker = "> "
		}
		prefix := fmt.Sprintf("%s%3d  ", marker, ayah.NumberInSurah)
		line := prefix + m.th.Arabic.Render(ayah.Text)
		if m.prefs.IsBookmarked(surah.Number, ayah.NumberInSurah) {
			line += " " + m.th.Bookmark.Render("★")
		}
		if bool(ayah.Sajda) {
			line += " " + m.th.Sajda.Render("۩ sajda")
		}
		b.WriteString(line + "\n")
		if i < len(m.detail.Translation) {
			for _, wrapped := range render.Wrap(m.detail.Translation[i].Text, m.contentWidth()) {
				b.WriteString("       " + m.th.Translated.Render(wrapped) + "\n")
			}
		}
		if m.tafsirFor == ayah.NumberInSurah && m.tafsirText != "" {
			b.WriteString("\n" + m.th.Section.Render("       Tafsir") + "\n")
			for _, wrapped := range render.Wrap(m.tafsirText, m.contentWidth()) {
				b.WriteString("       " + m.th.MetaValue.Render(wrapped) + "\n")
			}
			b.WriteString("\n")
		}
	}
	if m.tafsirLoading {
		b.WriteString("\n" + m.th.StateLoad.Render("Loading tafsir...") + "\n")
	}
	return b.String()
}

func (m Model) bookmarksView() string {
	bookmarks := m.prefs.Bookmarks()
	if len(bookmarks) == 0 {
		return "No bookmarks yet. Press b on an ayah to add one.\n"
	}

	var b strings.Builder
	b.WriteString(m.th.Section.Render("Bookmarks") + "\n\n")
	cursor := state.ClampCursor(m.bookmarkCursor, len(bookmarks))
	start, end := state.Window(len(bookmarks), cursor, m.listHeight())
	for i := start; i < end; i++ {
		bm := bookmarks[i]
		line := fmt.Sprintf("%d:%d  %s", bm.Surah, bm.Ayah, bm.CreatedAt.Local().Format("2006-01-02 15:04"))
		if i == cursor {
			line = m.th.ActiveLine.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) verseView() string {
	var b strings.Builder
	b.WriteString(m.th.Section.Render(fmt.Sprintf("Verse of the day · %s %d:%d",
		m.verse.SurahName, m.verse.Surah, m.verse.Ayah)) + "\n")
	b.WriteString(m.th.Arabic.Render(m.verse.Text) + "\n")
	if m.verse.Translation != "" {
		for _, wrapped := range render.Wrap(m.verse.Translation, m.contentWidth()) {
			b.WriteString(m.th.Translated.Render(wrapped) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) messagePanel() string {
	if m.err != nil {
		return m.th.StateWarn.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.status != "" {
		return m.th.StateIdle.Render(m.status) + "\n"
	}
	return ""
}

func (m Model) footer() string {
	settings := m.prefs.Settings()
	parts := []string{
		fmt.Sprintf("%d surahs", len(m.surahs)),
		"translation " + settings.DefaultTranslation,
	}
	if m.loading {
		parts = append(parts, "loading")
	}
	if m.hasMore {
		parts = append(parts, "more available (n)")
	}
	if settings.DownloadEnabled {
		parts = append(parts, "offline cache on")
	}
	return m.th.MetaLabel.Render(strings.Join(parts, " | "))
}

func (m Model) helpView() string {
	return strings.Join([]string{
		"j/k, arrows   move",
		"g/G           top/bottom",
		"pgup/pgdown   jump",
		"enter         open surah",
		"n             load next page",
		"r             retry after a failed load",
		"v             toggle verse of the day",
		"B             bookmark list",
		"b             toggle bookmark (detail view)",
		"x             toggle tafsir (detail view)",
		"t             cycle theme",
		"f             cycle font size",
		"e             cycle translation edition",
		"o             toggle offline downloads",
		"q             quit",
	}, "\n") + "\n"
}

func (m Model) listHeight() int {
	if m.height <= 0 {
		return 20
	}
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

func (m Model) detailHeight() int {
	h := m.listHeight() / 3
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 72
	}
	w := m.width - 10
	if w < 20 {
		w = 20
	}
	return w
}
