package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"partybot/core/telegram/callbacks"
	tghelpers "partybot/core/telegram/helpers"
	"partybot/core/telegram/keyboard"
	"partybot/internal/broadcast"
	"partybot/internal/session"
	"partybot/internal/wizard"
)

// requireAdmin gates callback handlers. Command handlers are gated by the
// router's admin middleware; callbacks share one registry route, so each
// admin action re-checks here.
func (a *App) requireAdmin(c tele.Context) bool {
	if a.sessions.IsAdmin(c.Sender().ID) {
		return true
	}
	_ = c.Respond(&tele.CallbackResponse{Text: textNotPermitted})
	return false
}

func (a *App) cmdAdmin(c tele.Context) error {
	return a.openPanel(c)
}

func (a *App) onAdminPanel(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	return a.openPanel(c)
}

// openPanel abandons whatever dialogue the admin was in before showing the
// panel. A pending input marker left behind would otherwise swallow the next
// typed message — in the broadcast case, sending it to everyone.
func (a *App) openPanel(c tele.Context) error {
	uid := c.Sender().ID
	if _, ok := a.wiz.Draft(uid); ok {
		a.wiz.Cancel(uid)
	}
	a.sessions.ClearPending(uid)
	return a.sendPanel(c)
}

func (a *App) sendPanel(c tele.Context) error {
	text := fmt.Sprintf("Admin panel\nKnown users: %d · Posters: %d",
		a.sessions.KnownUserCount(), a.sessions.PosterCount())
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "➕ Create poster", Unique: actPosterCreate},
			{Text: "🗂 Posters", Unique: actPosterList},
		},
		[]keyboard.InlineBtn{
			{Text: "📢 Broadcast now", Unique: actBroadcastNow},
			{Text: "✍️ Broadcast text", Unique: actBroadcastText},
		},
		[]keyboard.InlineBtn{
			{Text: "🔎 Check member", Unique: actMemberLookup},
			{Text: "📊 Stats", Unique: actAdminStats},
		},
		[]keyboard.InlineBtn{
			{Text: "🔄 Refresh", Unique: actAdminRefresh},
			{Text: "🎉 Main menu", Unique: actMenu},
		},
	)
	return c.Send(text, markup)
}

func (a *App) onPosterCreate(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	a.wiz.Begin(c.Sender().ID)
	return c.Send(textAskPosterPhoto, cancelDraftMarkup())
}

func (a *App) onPosterCancel(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	a.wiz.Cancel(c.Sender().ID)
	return c.Send(textDraftCancelled)
}

func (a *App) onPosterConfirm(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	uid := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	p, err := a.wiz.Confirm(ctx, uid)
	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrNoDraft):
		return nil
	case errors.Is(err, wizard.ErrNoPhoto):
		return c.Send(textDraftNoPhoto)
	case errors.Is(err, wizard.ErrCaptionTooLong):
		return c.Send(textDraftLongCaption)
	case errors.Is(err, wizard.ErrBadTicketURL):
		return c.Send(textDraftBadURL)
	default:
		return c.Send(textDraftSaveFailed)
	}

	if err := c.Send(textPosterPublished); err != nil {
		return err
	}
	_, err = sendPoster(c.Bot(), c.Chat(), a, p, posterMarkup(p))
	return err
}

// sendDraftPreview renders the composed poster so the admin can eyeball it
// before publishing.
func (a *App) sendDraftPreview(c tele.Context, d session.Draft) error {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	if d.TicketURL != "" {
		rows = append(rows, markup.Row(markup.URL("🎟 Tickets", d.TicketURL)))
	}
	rows = append(rows, markup.Row(
		markup.Data("✅ Publish", actPosterConfirm),
		markup.Data("❌ Discard", actPosterCancel),
	))
	markup.Inline(rows...)

	photo := &tele.Photo{File: tele.File{FileID: d.FileID}, Caption: d.Caption}
	return c.Send(photo, markup)
}

func (a *App) onPosterList(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	posters := a.sessions.Posters()
	if len(posters) == 0 {
		return c.Send(textMenuEmptyAdmin)
	}

	rows := make([][]keyboard.InlineBtn, 0, len(posters))
	for i := len(posters) - 1; i >= 0; i-- { // newest first
		p := posters[i]
		title := p.Title()
		if title == "" {
			title = fmt.Sprintf("poster #%d", p.ID)
		}
		id := strconv.FormatInt(p.ID, 10)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "🗑 " + title, Unique: actPosterDelete, Data: id},
			{Text: "🎟", Unique: actPosterTicket, Data: id},
		})
	}
	return c.Send(fmt.Sprintf("Active posters: %d", len(posters)), keyboard.InlineButtonsRows(rows...))
}

func (a *App) onPosterDelete(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	posterID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	id := strconv.FormatInt(posterID, 10)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "🗑 Yes, delete", Unique: actPosterDelYes, Data: id},
		{Text: "↩️ Keep it", Unique: actAdminPanel},
	})
	return c.Send(fmt.Sprintf("Delete poster #%d for everyone?", posterID), markup)
}

func (a *App) onPosterDeleteYes(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	posterID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	remaining, err := a.car.Delete(ctx, posterID)
	if err != nil {
		return c.Send("Couldn't delete the poster, try again later.")
	}
	return c.Send(fmt.Sprintf("Poster deleted. %d left.", remaining))
}

func (a *App) onPosterTicket(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	posterID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	a.sessions.SetPending(c.Sender().ID, session.Pending{
		Kind:     session.PendingTicketURL,
		PosterID: posterID,
	})
	return c.Send(textAskTicketURL)
}

func (a *App) onBroadcastNow(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	return a.broadcastNow(c)
}

func (a *App) cmdBroadcastNow(c tele.Context) error {
	return a.broadcastNow(c)
}

func (a *App) broadcastNow(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rep, ok := a.bcast.BroadcastLatest(ctx)
	if !ok {
		return c.Send("Nothing to broadcast yet — create a poster first.")
	}
	return c.Send(broadcastSummary(rep))
}

func (a *App) onBroadcastText(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	a.sessions.SetPending(c.Sender().ID, session.Pending{Kind: session.PendingBroadcast})
	return c.Send(textAskBroadcast)
}

// cmdBroadcastText broadcasts its argument directly, or asks for content
// when invoked bare.
func (a *App) cmdBroadcastText(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		a.sessions.SetPending(c.Sender().ID, session.Pending{Kind: session.PendingBroadcast})
		return c.Send(textAskBroadcast)
	}
	ctx := tghelpers.BuildContext(c)
	rep := a.bcast.BroadcastText(ctx, payload)
	return c.Send(broadcastSummary(rep))
}

func (a *App) onMemberLookup(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	a.sessions.SetPending(c.Sender().ID, session.Pending{Kind: session.PendingMemberLookup})
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "⏹ Stop checking", Unique: actMemberStop},
	})
	return c.Send(textAskMemberHandle, markup)
}

func (a *App) onMemberStop(c tele.Context) error {
	a.sessions.ClearPending(c.Sender().ID)
	return c.Send(textMemberStopped)
}

// reportMembership resolves a handle through storage and reports per-target
// status. The pending marker stays set so the admin can keep sending
// handles until they press stop.
func (a *App) reportMembership(c tele.Context, handle string) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.store.GetUserByHandle(ctx, handle)
	if err != nil {
		return c.Send(textMemberUnknown)
	}

	st := a.members.Check(u.TelegramID)
	t := a.members.Targets()
	lines := []string{fmt.Sprintf("Membership for %s (id %d):", handle, u.TelegramID)}
	add := func(label, ref string, ok bool) {
		if ref == "" {
			return
		}
		mark := "❌"
		if ok {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %s", mark, label))
	}
	add("channel", t.Channel, st.Channel)
	add("second channel", t.Channel2, st.Channel2)
	add("chat", t.Chat, st.Chat)
	return c.Send(strings.Join(lines, "\n"))
}

func (a *App) onAdminStats(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	users, err := a.store.UserStatistics(ctx)
	if err != nil {
		return c.Send("Couldn't load statistics, try again later.")
	}
	posters, err := a.store.PosterStatistics(ctx)
	if err != nil {
		return c.Send("Couldn't load statistics, try again later.")
	}
	return c.Send(fmt.Sprintf(
		"Registered users: %d\n· male: %d\n· female: %d\n· today: %d\n\nPosters: %d (%d active)",
		users.Total, users.Male, users.Female, users.RegisteredToday,
		posters.Total, posters.Active,
	))
}

// onAdminRefresh reloads the caches from storage, picking up changes made
// directly in the database.
func (a *App) onAdminRefresh(c tele.Context) error {
	if !a.requireAdmin(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	ids, err := a.store.ListAllUserIDs(ctx)
	if err != nil {
		return c.Send("Refresh failed, try again later.")
	}
	posters, err := a.store.ListActivePosters(ctx)
	if err != nil {
		return c.Send("Refresh failed, try again later.")
	}
	a.sessions.SetKnownUsers(ids)
	a.sessions.SetPosters(posters)
	return a.sendPanel(c)
}

// cmdMakeAdmin promotes the id given as an argument, or asks for one.
func (a *App) cmdMakeAdmin(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		a.sessions.SetPending(c.Sender().ID, session.Pending{Kind: session.PendingAdminID})
		return c.Send(textAskAdminID)
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return c.Send(textBadAdminID)
	}
	a.sessions.AddAdmin(id)
	return c.Send(textAdminPromoted)
}

func broadcastSummary(rep broadcast.Report) string {
	return fmt.Sprintf("Broadcast finished: %d sent, %d blocked, %d failed.",
		rep.Sent, rep.Blocked, rep.Failed)
}
