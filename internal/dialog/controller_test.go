package dialog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/archive"
	"github.com/m3rciful/photobot/internal/config"
	"github.com/m3rciful/photobot/internal/disk"
	"github.com/m3rciful/photobot/internal/journal"
	"github.com/m3rciful/photobot/internal/search"
	"github.com/m3rciful/photobot/internal/staging"
)

// fakeContext implements the slice of tele.Context the handlers touch.
// Anything else panics via the embedded nil interface, which is exactly
// what we want in a test.
type fakeContext struct {
	tele.Context

	chat     *tele.Chat
	text     string
	args     []string
	message  *tele.Message
	callback *tele.Callback
	store    map[string]any
	sent     []any
}

func newFakeContext(chatID int64) *fakeContext {
	return &fakeContext{
		chat:  &tele.Chat{ID: chatID},
		store: map[string]any{},
	}
}

func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Sender() *tele.User       { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{} }
func (f *fakeContext) Message() *tele.Message   { return f.message }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Args() []string           { return f.args }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) sentTexts() []string {
	var out []string
	for _, s := range f.sent {
		if t, ok := s.(string); ok {
			out = append(out, t)
		}
	}
	return out
}

type fakeArchiver struct {
	store      *staging.Store
	saved      []archive.SaveRequest
	saveErr    error
	result     archive.SaveResult
	previewErr map[string]error
	fetched    []string
}

func (a *fakeArchiver) Save(_ context.Context, req archive.SaveRequest) (archive.SaveResult, error) {
	a.saved = append(a.saved, req)
	if a.saveErr != nil {
		return archive.SaveResult{}, a.saveErr
	}
	return a.result, nil
}

func (a *fakeArchiver) FetchPreview(_ context.Context, remotePath string) (*staging.File, error) {
	a.fetched = append(a.fetched, remotePath)
	if err := a.previewErr[remotePath]; err != nil {
		return nil, err
	}
	f := a.store.ForPreview()
	if err := os.WriteFile(f.Path(), []byte("jpeg"), 0o644); err != nil {
		return nil, err
	}
	return f, nil
}

type fakeFinder struct {
	root    string
	query   string
	matches []search.Match
	err     error
}

func (f *fakeFinder) Find(_ context.Context, root, query string) ([]search.Match, error) {
	f.root, f.query = root, query
	return f.matches, f.err
}

type fakeJournal struct {
	entries   []journal.Entry
	err       error
	byDateDay time.Time
	recent    bool
}

func (j *fakeJournal) Recent(context.Context, int) ([]journal.Entry, error) {
	j.recent = true
	return j.entries, j.err
}

func (j *fakeJournal) ByDate(_ context.Context, day time.Time, _ int) ([]journal.Entry, error) {
	j.byDateDay = day
	return j.entries, j.err
}

func testConfig() *config.Config {
	return &config.Config{
		Disk: config.DiskConfig{Root: "disk:"},
		Categories: []config.Category{
			{Key: "mh", Title: "Left at MH", Folder: "Left at MH"},
			{Key: "nv", Title: "NV", Folder: "NV"},
		},
		Search: config.SearchConfig{PreviewLimit: 10},
	}
}

type fixture struct {
	ct       *Controller
	sessions *state.Manager[Payload]
	arch     *fakeArchiver
	finder   *fakeFinder
	journal  *fakeJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := staging.NewStore(t.TempDir())
	require.NoError(t, err)

	fx := &fixture{
		sessions: state.NewManager[Payload](),
		arch:     &fakeArchiver{store: store, previewErr: map[string]error{}},
		finder:   &fakeFinder{},
		journal:  &fakeJournal{},
	}
	fx.ct = NewController(Options{
		Config:   testConfig(),
		Sessions: fx.sessions,
		Archive:  fx.arch,
		Finder:   fx.finder,
		Journal:  fx.journal,
		Fetch: func(_ tele.Context, _, dst string) error {
			return os.WriteFile(dst, []byte("jpeg"), 0o644)
		},
	})
	return fx
}

func callbackCtx(chatID int64, unique, payload string) *fakeContext {
	c := newFakeContext(chatID)
	c.callback = &tele.Callback{Data: unique + "|" + payload}
	return c
}

func photoCtx(chatID int64, fileID string) *fakeContext {
	c := newFakeContext(chatID)
	c.message = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: fileID}}}
	return c
}

func textCtx(chatID int64, text string) *fakeContext {
	c := newFakeContext(chatID)
	c.text = text
	c.message = &tele.Message{Text: text}
	return c
}

func TestMenuLayout(t *testing.T) {
	fx := newFixture(t)
	markup := fx.ct.menu()

	require.Len(t, markup.InlineKeyboard, 2)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "💾 Left at MH", row[0].Text)
	assert.Equal(t, "save", row[0].Unique)
	assert.Equal(t, "mh", row[0].Data)
	assert.Equal(t, "🔍 Left at MH", row[1].Text)
	assert.Equal(t, "view", row[1].Unique)
}

func TestSaveFlow(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	// Menu button pressed.
	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	assert.Equal(t, StateAwaitingPhoto, fx.sessions.Current(chatID))

	// Photo arrives.
	require.NoError(t, fx.ct.handlePhoto(photoCtx(chatID, "file-123")))
	assert.Equal(t, StateAwaitingName, fx.sessions.Current(chatID))
	session, ok := fx.sessions.Get(chatID)
	require.True(t, ok)
	pending, ok := session.Payload.(PendingPhoto)
	require.True(t, ok)
	assert.Equal(t, "file-123", pending.FileID)

	// Name arrives; the save runs and the conversation ends.
	fx.arch.result = archive.SaveResult{
		Filename: "badge007.jpg",
		Date:     "2026-08-31",
	}
	c := textCtx(chatID, "badge007")
	require.NoError(t, fx.ct.handleName(c))

	require.Len(t, fx.arch.saved, 1)
	assert.Equal(t, "Left at MH", fx.arch.saved[0].Category)
	assert.Equal(t, "badge007", fx.arch.saved[0].Name)
	assert.Equal(t, chatID, fx.arch.saved[0].ChatID)
	assert.Equal(t, state.StateIdle, fx.sessions.Current(chatID))

	texts := c.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "badge007.jpg")
}

func TestSavePhotoStepRejectsText(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	c := textCtx(chatID, "not a photo")
	require.NoError(t, fx.ct.handlePhoto(c))

	assert.Equal(t, StateAwaitingPhoto, fx.sessions.Current(chatID))
	assert.Contains(t, c.sentTexts(), needPhotoText)
}

func TestSaveNameCollisionKeepsSession(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	require.NoError(t, fx.ct.handlePhoto(photoCtx(chatID, "file-123")))

	fx.arch.saveErr = fmt.Errorf("upload: %w", disk.ErrExists)
	c := textCtx(chatID, "badge007")
	require.NoError(t, fx.ct.handleName(c))

	// Still waiting for another name with the same pending photo.
	assert.Equal(t, StateAwaitingName, fx.sessions.Current(chatID))
	assert.Contains(t, c.sentTexts(), nameTakenText)
}

func TestSaveBadNameKeepsSession(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	require.NoError(t, fx.ct.handlePhoto(photoCtx(chatID, "file-123")))

	fx.arch.saveErr = archive.ErrBadName
	require.NoError(t, fx.ct.handleName(textCtx(chatID, "///")))
	assert.Equal(t, StateAwaitingName, fx.sessions.Current(chatID))
}

func TestSaveFailureEndsConversation(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	require.NoError(t, fx.ct.handlePhoto(photoCtx(chatID, "file-123")))

	fx.arch.saveErr = errors.New("disk unreachable")
	c := textCtx(chatID, "badge007")
	require.NoError(t, fx.ct.handleName(c))

	assert.Equal(t, state.StateIdle, fx.sessions.Current(chatID))
	assert.Contains(t, c.sentTexts(), saveFailedText)
}

func TestCancel(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	c := textCtx(chatID, "/cancel")
	require.NoError(t, fx.ct.handleCancel(c))
	assert.Contains(t, c.sentTexts(), nothingCancelText)

	require.NoError(t, fx.ct.handleSaveChosen(callbackCtx(chatID, "save", "mh")))
	c = textCtx(chatID, "/cancel")
	require.NoError(t, fx.ct.handleCancel(c))
	assert.Equal(t, state.StateIdle, fx.sessions.Current(chatID))
	assert.Contains(t, c.sentTexts(), cancelledText)
}

func TestUnknownCategoryCallback(t *testing.T) {
	fx := newFixture(t)

	c := callbackCtx(42, "save", "gone")
	require.NoError(t, fx.ct.handleSaveChosen(c))
	assert.Equal(t, state.StateIdle, fx.sessions.Current(42))
	assert.Contains(t, c.sentTexts(), unknownCatText)
}

func TestSearchNothingFound(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)

	require.NoError(t, fx.ct.handleViewChosen(callbackCtx(chatID, "view", "nv")))
	assert.Equal(t, StateAwaitingQuery, fx.sessions.Current(chatID))

	c := textCtx(chatID, "badge")
	require.NoError(t, fx.ct.handleQuery(c))

	assert.Equal(t, "disk:/NV", fx.finder.root)
	assert.Equal(t, "badge", fx.finder.query)
	assert.Equal(t, state.StateIdle, fx.sessions.Current(chatID))
	require.NotEmpty(t, c.sentTexts())
	assert.Contains(t, c.sentTexts()[0], "Nothing found")
}

func TestSearchPreviews(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)
	fx.finder.matches = []search.Match{
		{Path: "disk:/NV/2026-08-30/badge007.jpg", Name: "badge007.jpg", Date: "2026-08-30"},
		{Path: "disk:/NV/2026-08-31/badge008.jpg", Name: "badge008.jpg", Date: "2026-08-31"},
	}

	require.NoError(t, fx.ct.handleViewChosen(callbackCtx(chatID, "view", "nv")))
	c := textCtx(chatID, "badge")
	require.NoError(t, fx.ct.handleQuery(c))

	var photos []*tele.Photo
	for _, s := range c.sent {
		if p, ok := s.(*tele.Photo); ok {
			photos = append(photos, p)
		}
	}
	require.Len(t, photos, 2)
	assert.Equal(t, "📄 badge007.jpg\n📅 2026-08-30", photos[0].Caption)

	// Every staged preview copy must be cleaned up after sending.
	for _, p := range photos {
		_, err := os.Stat(p.FileLocal)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestSearchPreviewFailureSkipsItem(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)
	fx.finder.matches = []search.Match{
		{Path: "disk:/NV/a/x.jpg", Name: "x.jpg", Date: "a"},
		{Path: "disk:/NV/b/y.jpg", Name: "y.jpg", Date: "b"},
	}
	fx.arch.previewErr["disk:/NV/a/x.jpg"] = disk.ErrNotFound

	require.NoError(t, fx.ct.handleViewChosen(callbackCtx(chatID, "view", "nv")))
	c := textCtx(chatID, "jpg")
	require.NoError(t, fx.ct.handleQuery(c))

	var photos int
	for _, s := range c.sent {
		if _, ok := s.(*tele.Photo); ok {
			photos++
		}
	}
	assert.Equal(t, 1, photos)
	assert.Contains(t, c.sentTexts(), fmt.Sprintf(previewFailText, "x.jpg"))
}

func TestSearchListingPastPreviewLimit(t *testing.T) {
	fx := newFixture(t)
	const chatID = int64(42)
	for i := 0; i < 11; i++ {
		fx.finder.matches = append(fx.finder.matches, search.Match{
			Path: fmt.Sprintf("disk:/NV/2026-08-31/badge%02d.jpg", i),
			Name: fmt.Sprintf("badge%02d.jpg", i),
			Date: "2026-08-31",
		})
	}

	require.NoError(t, fx.ct.handleViewChosen(callbackCtx(chatID, "view", "nv")))
	c := textCtx(chatID, "badge")
	require.NoError(t, fx.ct.handleQuery(c))

	assert.Empty(t, fx.arch.fetched, "listing mode must not download files")
	texts := c.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Found 11 files")
	assert.Equal(t, 11, strings.Count(texts[0], "📄"))
}

func TestRecent(t *testing.T) {
	fx := newFixture(t)
	fx.journal.entries = []journal.Entry{
		{
			Category:  "NV",
			Filename:  "badge007.jpg",
			CreatedAt: time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
		},
	}

	c := textCtx(7, "/recent")
	require.NoError(t, fx.ct.handleRecent(c))
	assert.True(t, fx.journal.recent)
	require.NotEmpty(t, c.sentTexts())
	assert.Contains(t, c.sentTexts()[0], "2026-08-31 10:30  NV/badge007.jpg")

	c = textCtx(7, "/recent 2026-08-30")
	c.args = []string{"2026-08-30"}
	require.NoError(t, fx.ct.handleRecent(c))
	assert.Equal(t, 30, fx.journal.byDateDay.Day())

	c = textCtx(7, "/recent nonsense")
	c.args = []string{"nonsense"}
	require.NoError(t, fx.ct.handleRecent(c))
	assert.Contains(t, c.sentTexts(), recentUsageText)
}
