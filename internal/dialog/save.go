package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/photobot/core/telegram/helpers"
	"github.com/m3rciful/photobot/core/telegram/state"
	"github.com/m3rciful/photobot/internal/archive"
	"github.com/m3rciful/photobot/internal/disk"
)

// handlePhoto runs in StateAwaitingPhoto. The photo is not downloaded
// yet; only its Telegram file id is kept until the name arrives.
func (ct *Controller) handlePhoto(c tele.Context) error {
	chatID := state.ChatID(c)
	session, ok := ct.sessions.Get(chatID)
	target, okPayload := session.Payload.(SaveTarget)
	if !ok || !okPayload {
		ct.sessions.Clear(chatID)
		return ct.sendMenu(c)
	}

	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return tghelpers.SendText(c, needPhotoText)
	}

	ct.sessions.Put(chatID, state.Session[Payload]{
		State: StateAwaitingName,
		Payload: PendingPhoto{
			Category: target.Category,
			FileID:   msg.Photo.FileID,
		},
	})
	return tghelpers.SendText(c, askNameText)
}

// handleName runs in StateAwaitingName and finishes the save. On a name
// collision or an unusable name the session stays put so the user can
// just type another name.
func (ct *Controller) handleName(c tele.Context) error {
	chatID := state.ChatID(c)
	session, ok := ct.sessions.Get(chatID)
	pending, okPayload := session.Payload.(PendingPhoto)
	if !ok || !okPayload {
		ct.sessions.Clear(chatID)
		return ct.sendMenu(c)
	}

	name := strings.TrimSpace(c.Text())
	if name == "" || strings.HasPrefix(name, "/") {
		return tghelpers.SendText(c, needNameText)
	}

	ctx := tghelpers.BuildContext(c)
	res, err := ct.archive.Save(ctx, archive.SaveRequest{
		ChatID:   chatID,
		Category: pending.Category.Folder,
		Name:     name,
		Fetch: func(_ context.Context, dst string) error {
			return ct.fetch(c, pending.FileID, dst)
		},
	})
	switch {
	case errors.Is(err, disk.ErrExists):
		return tghelpers.SendText(c, nameTakenText)
	case errors.Is(err, archive.ErrBadName):
		return tghelpers.SendText(c, badNameText)
	case err != nil:
		ct.sessions.Clear(chatID)
		_ = tghelpers.SendText(c, saveFailedText)
		return ct.sendMenu(c)
	}

	ct.sessions.Clear(chatID)
	where := mdSafe(pending.Category.Title + "/" + res.Date)
	_ = tghelpers.SendMD(c, fmt.Sprintf(savedText, "*"+mdSafe(res.Filename)+"*", where))
	return ct.sendMenu(c)
}
