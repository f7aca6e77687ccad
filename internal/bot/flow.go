package bot

import (
	"io"
	"strconv"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	tghelpers "partybot/core/telegram/helpers"
	"partybot/internal/session"
)

// flowRouter feeds mid-dialogue updates into the right flow: registration,
// poster wizard, or a pending free-form input.
type flowRouter struct {
	app *App
}

func (f flowRouter) InProgress(userID int64) bool {
	return f.app.sessions.InFlow(userID)
}

func (f flowRouter) HandleText(c tele.Context) error {
	return f.app.handleFlowText(c)
}

func (f flowRouter) HandlePhoto(c tele.Context) error {
	return f.app.handleFlowPhoto(c)
}

// lockUser takes the user's dialogue lock and returns its release. Held
// across the whole read-step-then-submit sequence, so a second message from
// the same user waits until the first has moved the dialogue forward.
func (a *App) lockUser(id int64) func() {
	v, _ := a.flowLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (a *App) handleFlowText(c tele.Context) error {
	uid := c.Sender().ID
	defer a.lockUser(uid)()
	ctx := tghelpers.BuildContext(c)

	switch a.sessions.RegStep(uid) {
	case session.RegName:
		return a.promptReg(c, a.reg.SubmitName(ctx, uid, c.Text()))
	case session.RegGender:
		// Gender comes from the buttons; re-show them for typed answers.
		return a.sendGenderPrompt(c)
	case session.RegAge:
		return a.promptReg(c, a.reg.SubmitAge(ctx, uid, c.Text()))
	}

	if d, ok := a.wiz.Draft(uid); ok {
		return a.handleDraftText(c, d)
	}

	if p := a.sessions.Pending(uid); p.Kind != session.PendingNone {
		return a.handlePendingText(c, p)
	}
	return c.Send(textUnknownText)
}

func (a *App) handleDraftText(c tele.Context, d session.Draft) error {
	uid := c.Sender().ID

	switch d.Step {
	case session.DraftPhoto:
		return c.Send(textAskPosterPhoto, cancelDraftMarkup())
	case session.DraftCaption:
		if err := a.wiz.SetCaption(uid, c.Text()); err != nil {
			return c.Send(textDraftCancelled)
		}
		return c.Send(textAskPosterLink, cancelDraftMarkup())
	case session.DraftLink:
		link := strings.TrimSpace(c.Text())
		if link == "-" {
			link = ""
		}
		draft, err := a.wiz.SetLink(uid, link)
		if err != nil {
			return c.Send(textDraftCancelled)
		}
		return a.sendDraftPreview(c, draft)
	default:
		return c.Send("The poster is ready below — publish or discard it.")
	}
}

func (a *App) handleFlowPhoto(c tele.Context) error {
	uid := c.Sender().ID
	defer a.lockUser(uid)()
	ctx := tghelpers.BuildContext(c)
	photo := c.Message().Photo

	if d, ok := a.wiz.Draft(uid); ok {
		if d.Step != session.DraftPhoto {
			return c.Send("The draft already has a photo. Continue with text, or cancel it.")
		}
		if photo == nil {
			return c.Send(textAskPosterPhoto, cancelDraftMarkup())
		}
		open := func() (io.ReadCloser, error) {
			return c.Bot().File(&photo.File)
		}
		if err := a.wiz.AttachPhoto(ctx, uid, photo.FileID, open); err != nil {
			return c.Send(textPhotoSaveFailed, cancelDraftMarkup())
		}
		return c.Send(textAskPosterCaption, cancelDraftMarkup())
	}

	if p := a.sessions.Pending(uid); p.Kind == session.PendingBroadcast {
		if photo == nil {
			return c.Send(textAskBroadcast)
		}
		a.sessions.ClearPending(uid)
		rep := a.bcast.BroadcastPhoto(ctx, photo.FileID, c.Message().Caption)
		return c.Send(broadcastSummary(rep))
	}

	return c.Send(textUnknownPhoto)
}

func (a *App) handlePendingText(c tele.Context, p session.Pending) error {
	uid := c.Sender().ID
	ctx := tghelpers.BuildContext(c)
	text := strings.TrimSpace(c.Text())

	switch p.Kind {
	case session.PendingTicketURL:
		if !a.wiz.ValidTicketURL(text) {
			return c.Send(textTicketBadURL)
		}
		if err := a.store.UpdatePosterTicketURL(ctx, p.PosterID, &text); err != nil {
			return c.Send("Couldn't update the ticket link, try again later.")
		}
		if poster, err := a.store.GetPoster(ctx, p.PosterID); err == nil {
			a.sessions.UpdatePoster(*poster)
		}
		a.sessions.ClearPending(uid)
		return c.Send(textTicketUpdated)

	case session.PendingBroadcast:
		a.sessions.ClearPending(uid)
		rep := a.bcast.BroadcastText(ctx, text)
		return c.Send(broadcastSummary(rep))

	case session.PendingMemberLookup:
		return a.reportMembership(c, text)

	case session.PendingAdminID:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			return c.Send(textBadAdminID)
		}
		a.sessions.AddAdmin(id)
		a.sessions.ClearPending(uid)
		return c.Send(textAdminPromoted)
	}
	return c.Send(textUnknownText)
}
