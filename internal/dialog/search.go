package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/photobot/core/logger"
	tghelpers "github.com/m3rciful/photobot/core/telegram/helpers"
	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/archive"
	"github.com/m3rciful/photobot/internal/search"
)

// handleQuery runs in StateAwaitingQuery: it walks the chosen folder
// and presents the matches as photo previews or, past the preview
// ceiling, as a text listing.
func (ct *Controller) handleQuery(c tele.Context) error {
	chatID := state.ChatID(c)
	session, ok := ct.sessions.Get(chatID)
	scope, okPayload := session.Payload.(SearchScope)
	if !ok || !okPayload {
		ct.sessions.Clear(chatID)
		return ct.sendMenu(c)
	}

	query := strings.TrimSpace(c.Text())
	if query == "" || strings.HasPrefix(query, "/") {
		return tghelpers.SendText(c, needQueryText)
	}

	// The conversation is over whatever the search outcome is.
	ct.sessions.Clear(chatID)

	ctx := tghelpers.BuildContext(c)
	root := ct.cfg.Disk.Root + "/" + scope.Category.Folder
	matches, err := ct.finder.Find(ctx, root, query)
	if err != nil {
		_ = tghelpers.SendText(c, searchFailedText)
		return ct.sendMenu(c)
	}

	switch archive.PresentationMode(len(matches), ct.cfg.Search.PreviewLimit) {
	case archive.ModeEmpty:
		_ = tghelpers.SendText(c, fmt.Sprintf(nothingFoundText, query))
	case archive.ModeListing:
		lines := make([]string, 0, len(matches)+1)
		lines = append(lines, fmt.Sprintf(foundManyText, len(matches)))
		for _, m := range matches {
			lines = append(lines, archive.ListingLine(m.Name, m.Date))
		}
		_ = tghelpers.SendText(c, strings.Join(lines, "\n"))
	case archive.ModePreview:
		ct.sendPreviews(ctx, c, matches)
	}
	return ct.sendMenu(c)
}

// sendPreviews downloads each match into staging, sends it back as a
// photo, and removes the staged copy. One broken file does not stop the
// rest of the batch.
func (ct *Controller) sendPreviews(ctx context.Context, c tele.Context, matches []search.Match) {
	for _, m := range matches {
		f, err := ct.archive.FetchPreview(ctx, m.Path)
		if err != nil {
			_ = tghelpers.SendText(c, fmt.Sprintf(previewFailText, m.Name))
			continue
		}

		photo := &tele.Photo{
			File:    tele.FromDisk(f.Path()),
			Caption: archive.Caption(m.Name, m.Date),
		}
		// Sent synchronously: the staged copy is removed right below, so
		// the async dispatcher must not pick this up later.
		if err := c.Send(photo); err != nil {
			logger.Warn(ctx, "dialog", "preview.send_failed",
				slog.String("path", m.Path),
				slog.String("error", err.Error()),
			)
		}
		if err := f.Remove(); err != nil {
			logger.Warn(ctx, "dialog", "preview.cleanup_failed",
				slog.String("error", err.Error()),
			)
		}
	}
}
