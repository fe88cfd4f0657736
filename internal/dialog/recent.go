package dialog

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/photobot/core/telegram/helpers"
	"github.com/m3rciful/photobot/internal/journal"
)

const recentLimit = 10

// handleRecent serves the admin-only /recent command from the journal.
// An optional date argument narrows the listing to that day.
func (ct *Controller) handleRecent(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	var (
		entries []journal.Entry
		err     error
	)
	if args := c.Args(); len(args) > 0 {
		day, ok := tghelpers.ParseFlexibleDate(args[0])
		if !ok {
			return tghelpers.SendText(c, recentUsageText)
		}
		entries, err = ct.journal.ByDate(ctx, day, recentLimit)
	} else {
		entries, err = ct.journal.Recent(ctx, recentLimit)
	}
	if err != nil {
		return tghelpers.SendText(c, journalFailedText)
	}
	if len(entries) == 0 {
		return tghelpers.SendText(c, recentEmptyText)
	}
	return tghelpers.SendText(c, formatEntries(entries))
}

func formatEntries(entries []journal.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %s/%s",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Category, e.Filename))
	}
	return strings.Join(lines, "\n")
}
