package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"partybot/core/telegram/callbacks"
	"partybot/core/telegram/format"
	tghelpers "partybot/core/telegram/helpers"
	"partybot/core/telegram/keyboard"
	"partybot/internal/carousel"
	"partybot/internal/registration"
	"partybot/internal/session"
)

func (a *App) cmdStart(c tele.Context) error {
	uid := c.Sender().ID
	defer a.lockUser(uid)()
	ctx := tghelpers.BuildContext(c)
	res := a.reg.Begin(ctx, uid, c.Sender().Username)
	return a.promptReg(c, res)
}

func (a *App) cmdMenu(c tele.Context) error {
	uid := c.Sender().ID
	ctx := tghelpers.BuildContext(c)
	a.sessions.AddKnownUser(uid)

	if !a.reg.Registered(ctx, uid) {
		return a.promptReg(c, a.reg.Begin(ctx, uid, c.Sender().Username))
	}
	return a.renderCarousel(c, a.car.Current(uid))
}

func (a *App) cmdID(c tele.Context) error {
	return tghelpers.SendText(c, fmt.Sprintf("Your Telegram id: %d", c.Sender().ID))
}

func (a *App) promptReg(c tele.Context, res registration.Result) error {
	switch res.Prompt {
	case registration.PromptName:
		return c.Send(textAskName)
	case registration.PromptGender:
		return a.sendGenderPrompt(c)
	case registration.PromptAge:
		return c.Send(textAskAge)
	case registration.PromptBadAge:
		return c.Send(textBadAge)
	case registration.PromptDone:
		return a.afterRegistration(c)
	case registration.PromptWelcomeBack:
		name := ""
		if res.Profile != nil {
			name = format.DerefString(res.Profile.Name, "")
		}
		text := "Welcome back!"
		if name != "" {
			text = fmt.Sprintf("Welcome back, %s!", name)
		}
		return c.Send(text, menuMarkup(a.channelsConfigured()))
	default:
		return nil
	}
}

func (a *App) sendGenderPrompt(c tele.Context) error {
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "👨 Male", Unique: actGender, Data: "male"},
		{Text: "👩 Female", Unique: actGender, Data: "female"},
	})
	return c.Send(textAskGender, markup)
}

func (a *App) afterRegistration(c tele.Context) error {
	return c.Send(textRegDone, menuMarkup(a.channelsConfigured()))
}

func (a *App) channelsConfigured() bool {
	ch := a.cfg.Channels
	return ch.Channel != "" || ch.Channel2 != "" || ch.Chat != ""
}

func menuMarkup(withSubsCheck bool) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{{Text: "🎉 Party menu", Unique: actMenu}},
	}
	if withSubsCheck {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "🔎 Check my subscriptions", Unique: actCheckSubs},
		})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func cancelDraftMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(actPosterCancel)
}

// onGender handles the male/female buttons. The gate in front of it drops
// stale presses; the step is re-checked under the dialogue lock because the
// gate runs outside it.
func (a *App) onGender(c tele.Context) error {
	uid := c.Sender().ID
	defer a.lockUser(uid)()
	if a.sessions.RegStep(uid) != session.RegGender {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.promptReg(c, a.reg.SubmitGender(ctx, uid, callbacks.CallbackPayload(c)))
}

func (a *App) onMenu(c tele.Context) error {
	return a.cmdMenu(c)
}

func (a *App) onPosterPrev(c tele.Context) error {
	return a.moveCarousel(c, -1)
}

func (a *App) onPosterNext(c tele.Context) error {
	return a.moveCarousel(c, 1)
}

func (a *App) moveCarousel(c tele.Context, delta int) error {
	uid := c.Sender().ID
	ctx := tghelpers.BuildContext(c)
	if !a.reg.Registered(ctx, uid) {
		return a.promptReg(c, a.reg.Begin(ctx, uid, c.Sender().Username))
	}
	_ = c.Delete()
	return a.renderCarousel(c, a.car.Move(uid, delta))
}

// onGoing records attendance for the shown poster and resets the
// re-engagement miss counter.
func (a *App) onGoing(c tele.Context) error {
	uid := c.Sender().ID
	posterID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	created, err := a.store.RecordAttendance(ctx, uid, posterID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Try again in a moment."})
	}
	a.sessions.ResetMissed(uid)
	if !created {
		return c.Respond(&tele.CallbackResponse{Text: textGoingAgain})
	}
	return c.Respond(&tele.CallbackResponse{Text: textGoingMarked})
}

func (a *App) onCheckSubs(c tele.Context) error {
	uid := c.Sender().ID
	st := a.members.Check(uid)
	t := a.members.Targets()

	lines := []string{"Your subscriptions:"}
	appendStatus := func(label, ref string, ok bool) {
		if ref == "" {
			return
		}
		mark := "❌"
		if ok {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", mark, label, ref))
	}
	appendStatus("Channel", t.Channel, st.Channel)
	appendStatus("Second channel", t.Channel2, st.Channel2)
	appendStatus("Chat", t.Chat, st.Chat)

	if st.All() {
		lines = append(lines, "", "All set — see you at the party! 🎉")
	} else {
		lines = append(lines, "", "Join the missing ones and check again.")
	}
	return c.Send(strings.Join(lines, "\n"))
}

// renderCarousel turns a carousel view into a Telegram message, with the
// file-id to local-copy delivery fallback.
func (a *App) renderCarousel(c tele.Context, v carousel.View) error {
	if v.Empty {
		if a.sessions.IsAdmin(c.Sender().ID) {
			markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
				{Text: "⚙️ Admin panel", Unique: actAdminPanel},
			})
			return c.Send(textMenuEmptyAdmin, markup)
		}
		return c.Send(textMenuEmpty)
	}

	markup := a.carouselMarkup(c.Sender().ID, v)
	caption := v.Poster.Caption
	if f := v.Footer(); f != "" {
		caption = caption + "\n\n" + f
	}
	poster := v.Poster
	poster.Caption = caption

	if _, err := sendPoster(c.Bot(), c.Chat(), a, poster, markup); err != nil {
		return c.Send(textPosterBroken)
	}
	return nil
}

func (a *App) carouselMarkup(userID int64, v carousel.View) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	var nav []tele.Btn
	if v.HasPrev {
		nav = append(nav, markup.Data("◀️", actPosterPrev))
	}
	if v.HasNext {
		nav = append(nav, markup.Data("▶️", actPosterNext))
	}
	if len(nav) > 0 {
		rows = append(rows, markup.Row(nav...))
	}

	if v.Poster.HasTicketURL() {
		rows = append(rows, markup.Row(markup.URL("🎟 Tickets", *v.Poster.TicketURL)))
	}
	rows = append(rows, markup.Row(
		markup.Data("✅ I'm going", actPosterGoing, strconv.FormatInt(v.Poster.ID, 10)),
	))

	if a.sessions.IsAdmin(userID) {
		rows = append(rows, markup.Row(
			markup.Data("🗑 Delete", actPosterDelete, strconv.FormatInt(v.Poster.ID, 10)),
			markup.Data("⚙️ Panel", actAdminPanel),
		))
	}

	markup.Inline(rows...)
	return markup
}
