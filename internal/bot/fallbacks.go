package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "partybot/core/telegram/helpers"
	"partybot/core/telegram/ui"
)

var _ ui.FallbackProvider = (*App)(nil)

// UnknownText handles text that matched no flow, command or fallback.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknownText)
	}
}

// UnknownPhoto handles photos arriving outside any flow.
func (a *App) UnknownPhoto() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknownPhoto)
	}
}

// UnknownCallback handles button presses with no registered action, which
// happens when old messages outlive a deploy that dropped their action.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "This button is no longer active."})
	}
}
