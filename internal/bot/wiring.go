package bot

import (
	coretelegram "partybot/core/telegram"
	"partybot/core/telegram/commands"
	"partybot/core/telegram/middleware"
	"partybot/internal/session"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.cmdStart,
		Description: "Register or say hi again",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.cmdMenu,
		Description: "Browse upcoming parties",
	})
	reg.RegisterCommand("/id", commands.Command{
		Handler:     a.cmdID,
		Description: "Show your Telegram id",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.cmdAdmin,
		Description: "Open the admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/make_admin", commands.Command{
		Handler:     a.cmdMakeAdmin,
		Description: "Promote a user to admin",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/broadcast_now", commands.Command{
		Handler:     a.cmdBroadcastNow,
		Description: "Send the newest poster to everyone",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/broadcast_text", commands.Command{
		Handler:     a.cmdBroadcastText,
		Description: "Send a free-form broadcast",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	// Gender buttons outlive the registration step; stale presses are
	// silently dropped.
	genderGate := middleware.Gate("reg_gender", func(userID int64) bool {
		return a.sessions.RegStep(userID) == session.RegGender
	})
	_ = reg.RegisterCallback(actGender, genderGate(a.onGender))
	_ = reg.RegisterCallback(actMenu, a.onMenu)
	_ = reg.RegisterCallback(actPosterPrev, a.onPosterPrev)
	_ = reg.RegisterCallback(actPosterNext, a.onPosterNext)
	_ = reg.RegisterCallback(actPosterGoing, a.onGoing)
	_ = reg.RegisterCallback(actCheckSubs, a.onCheckSubs)

	_ = reg.RegisterCallback(actAdminPanel, a.onAdminPanel)
	_ = reg.RegisterCallback(actAdminRefresh, a.onAdminRefresh)
	_ = reg.RegisterCallback(actAdminStats, a.onAdminStats)
	_ = reg.RegisterCallback(actPosterCreate, a.onPosterCreate)
	_ = reg.RegisterCallback(actPosterList, a.onPosterList)
	_ = reg.RegisterCallback(actPosterConfirm, a.onPosterConfirm)
	_ = reg.RegisterCallback(actPosterCancel, a.onPosterCancel)
	_ = reg.RegisterCallback(actPosterDelete, a.onPosterDelete)
	_ = reg.RegisterCallback(actPosterDelYes, a.onPosterDeleteYes)
	_ = reg.RegisterCallback(actPosterTicket, a.onPosterTicket)
	_ = reg.RegisterCallback(actBroadcastNow, a.onBroadcastNow)
	_ = reg.RegisterCallback(actBroadcastText, a.onBroadcastText)
	_ = reg.RegisterCallback(actMemberLookup, a.onMemberLookup)
	_ = reg.RegisterCallback(actMemberStop, a.onMemberStop)
}
