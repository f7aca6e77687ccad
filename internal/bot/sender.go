package bot

import (
	"fmt"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"partybot/core/logger"
	"partybot/internal/models"
)

// notifier implements broadcast.Sender over the live bot instance.
type notifier struct {
	app *App
}

func (n *notifier) SendPoster(userID int64, p models.Poster) error {
	bot := n.app.bot()
	if bot == nil {
		return fmt.Errorf("bot: not started yet")
	}
	_, err := sendPoster(bot, tele.ChatID(userID), n.app, p, posterMarkup(p))
	return err
}

func (n *notifier) SendText(userID int64, text string) error {
	bot := n.app.bot()
	if bot == nil {
		return fmt.Errorf("bot: not started yet")
	}
	_, err := bot.Send(tele.ChatID(userID), text)
	return err
}

func (n *notifier) SendPhoto(userID int64, fileID, caption string) error {
	bot := n.app.bot()
	if bot == nil {
		return fmt.Errorf("bot: not started yet")
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	_, err := bot.Send(tele.ChatID(userID), photo)
	return err
}

// posterMarkup builds the ticket button shown under delivered posters.
func posterMarkup(p models.Poster) *tele.ReplyMarkup {
	if !p.HasTicketURL() {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{
		{*markup.URL("🎟 Tickets", *p.TicketURL).Inline()},
	}
	return markup
}

// sendPoster delivers a poster photo, trying the Telegram file id first and
// falling back to re-uploading the durable local copy when the id has gone
// stale. Returns the sent message so callers can track it.
func sendPoster(bot tele.API, to tele.Recipient, a *App, p models.Poster, markup *tele.ReplyMarkup) (*tele.Message, error) {
	photo := &tele.Photo{File: tele.File{FileID: p.FileID}, Caption: p.Caption}
	msg, err := send(bot, to, photo, markup)
	if err == nil {
		return msg, nil
	}

	if p.PhotoPath != nil {
		if abs, ok := a.media.Abs(*p.PhotoPath); ok {
			logger.SVCPosters.Warn("poster.file_id_stale",
				slog.String("event", "send"),
				slog.Int64("poster_id", p.ID),
				slog.String("err", err.Error()),
			)
			fallback := &tele.Photo{File: tele.FromDisk(abs), Caption: p.Caption}
			return send(bot, to, fallback, markup)
		}
	}
	return nil, err
}

func send(bot tele.API, to tele.Recipient, what interface{}, markup *tele.ReplyMarkup) (*tele.Message, error) {
	if markup != nil {
		return bot.Send(to, what, markup)
	}
	return bot.Send(to, what)
}
