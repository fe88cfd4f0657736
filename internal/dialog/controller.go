// Package dialog drives the chat conversations: the inline action menu,
// the save flow (folder, photo, name) and the search flow (folder,
// query), plus the admin journal command.
package dialog

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/photobot/core/telegram"
	"github.com/m3rciful/photobot/core/telegram/callbacks"
	"github.com/m3rciful/photobot/core/telegram/commands"
	"github.com/m3rciful/photobot/core/telegram/format"
	tghelpers "github.com/m3rciful/photobot/core/telegram/helpers"
	"github.com/m3rciful/photobot/core/telegram/keyboard"
	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/archive"
	"github.com/m3rciful/photobot/internal/config"
	"github.com/m3rciful/photobot/internal/journal"
	"github.com/m3rciful/photobot/internal/search"
	"github.com/m3rciful/photobot/internal/staging"
)

// Callback uniques for the menu buttons; the category key rides in the
// callback payload.
const (
	cbSave = "save"
	cbView = "view"
)

// Archiver is the slice of the archive service the dialog needs.
type Archiver interface {
	Save(ctx context.Context, req archive.SaveRequest) (archive.SaveResult, error)
	FetchPreview(ctx context.Context, remotePath string) (*staging.File, error)
}

// Finder locates archived files by name substring.
type Finder interface {
	Find(ctx context.Context, root, query string) ([]search.Match, error)
}

// Journal is the optional read side of the archive journal.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	ByDate(ctx context.Context, day time.Time, limit int) ([]journal.Entry, error)
}

// FetchFunc downloads a Telegram file into a local path.
type FetchFunc func(c tele.Context, fileID, dst string) error

func botDownload(c tele.Context, fileID, dst string) error {
	return c.Bot().Download(&tele.File{FileID: fileID}, dst)
}

// Options wire a Controller.
type Options struct {
	Config   *config.Config
	Sessions *state.Manager[Payload]
	Archive  Archiver
	Finder   Finder
	// Journal may be nil; /recent is not registered then.
	Journal Journal
	// Fetch overrides the Telegram file download, mainly for tests.
	Fetch FetchFunc
}

// Controller owns every user-facing handler of the bot.
type Controller struct {
	cfg      *config.Config
	sessions *state.Manager[Payload]
	archive  Archiver
	finder   Finder
	journal  Journal
	fetch    FetchFunc
}

// NewController builds a Controller from its dependencies.
func NewController(opts Options) *Controller {
	fetch := opts.Fetch
	if fetch == nil {
		fetch = botDownload
	}
	return &Controller{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		archive:  opts.Archive,
		finder:   opts.Finder,
		journal:  opts.Journal,
		fetch:    fetch,
	}
}

// Register wires commands, callbacks, and conversation handlers into
// the registry and the session manager.
func (ct *Controller) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     ct.handleStart,
		Description: "Show the action menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     ct.handleHelp,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     ct.handleCancel,
		Description: "Abort the current action",
	})
	if ct.journal != nil {
		reg.RegisterCommand("/recent", commands.Command{
			Handler:     ct.handleRecent,
			Description: "Recently archived files",
			AdminOnly:   true,
		})
	}

	_ = reg.RegisterCallback(cbSave, ct.handleSaveChosen)
	_ = reg.RegisterCallback(cbView, ct.handleViewChosen)

	ct.sessions.RegisterHandler(StateAwaitingPhoto, ct.handlePhoto)
	ct.sessions.RegisterHandler(StateAwaitingName, ct.handleName)
	ct.sessions.RegisterHandler(StateAwaitingQuery, ct.handleQuery)
}

func (ct *Controller) menu() *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(ct.cfg.Categories))
	for _, cat := range ct.cfg.Categories {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "💾 " + cat.Title, Unique: cbSave, Data: cat.Key},
			{Text: "🔍 " + cat.Title, Unique: cbView, Data: cat.Key},
		})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func (ct *Controller) sendMenu(c tele.Context) error {
	return tghelpers.SendText(c, menuText, &tele.SendOptions{ReplyMarkup: ct.menu()})
}

func (ct *Controller) handleStart(c tele.Context) error {
	ct.sessions.Clear(state.ChatID(c))
	return ct.sendMenu(c)
}

func (ct *Controller) handleHelp(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

func (ct *Controller) handleCancel(c tele.Context) error {
	chatID := state.ChatID(c)
	if !ct.sessions.InProgress(chatID) {
		return tghelpers.SendText(c, nothingCancelText)
	}
	ct.sessions.Clear(chatID)
	_ = tghelpers.SendText(c, cancelledText)
	return ct.sendMenu(c)
}

func (ct *Controller) categoryFromCallback(c tele.Context) (config.Category, bool) {
	key := callbacks.CallbackPayload(c)
	return ct.cfg.CategoryByKey(key)
}

func (ct *Controller) handleSaveChosen(c tele.Context) error {
	cat, ok := ct.categoryFromCallback(c)
	if !ok {
		return tghelpers.SendText(c, unknownCatText)
	}
	ct.sessions.Put(state.ChatID(c), state.Session[Payload]{
		State:   StateAwaitingPhoto,
		Payload: SaveTarget{Category: cat},
	})
	return tghelpers.SendText(c, fmt.Sprintf(askPhotoText, cat.Title))
}

func (ct *Controller) handleViewChosen(c tele.Context) error {
	cat, ok := ct.categoryFromCallback(c)
	if !ok {
		return tghelpers.SendText(c, unknownCatText)
	}
	ct.sessions.Put(state.ChatID(c), state.Session[Payload]{
		State:   StateAwaitingQuery,
		Payload: SearchScope{Category: cat},
	})
	return tghelpers.SendText(c, fmt.Sprintf(askQueryText, cat.Title))
}

// UnknownText answers text that belongs to no conversation or command.
func (ct *Controller) UnknownText(c tele.Context) error {
	return tghelpers.SendText(c, unknownTextText)
}

// UnknownPhoto answers photos sent outside the save flow.
func (ct *Controller) UnknownPhoto(c tele.Context) error {
	return tghelpers.SendText(c, unknownPhotoText)
}

func mdSafe(s string) string {
	esc, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return esc
}
