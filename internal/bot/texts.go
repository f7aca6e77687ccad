package bot

// User-facing texts. Kept in one place so the wording can be reviewed and
// translated without touching handler logic.
const (
	textAskName   = "Hi! Let's get you registered. What's your name?"
	textAskGender = "Nice to meet you! Are you male or female?"
	textAskAge    = "How old are you?"
	textBadAge    = "Please send your age as a number between 14 and 100."
	textRegDone   = "You're all set! Use /menu to browse upcoming parties."

	textMenuEmpty      = "No parties announced yet. Check back soon!"
	textMenuEmptyAdmin = "No parties announced yet. Create the first poster from the admin panel."
	textPosterBroken   = "This poster's image is unavailable. Please ask an admin to recreate it."
	textGoingMarked    = "See you there! 🎉"
	textGoingAgain     = "You're already on the list."

	textNotPermitted = "You are not permitted to do that."
	textUnknownText  = "I didn't catch that. Try /menu or /start."
	textUnknownPhoto = "I wasn't expecting a photo. Try /menu."

	textAskPosterPhoto   = "Send the poster photo."
	textAskPosterCaption = "Got it. Now send the caption (first line becomes the title)."
	textAskPosterLink    = "Send the ticket link, or '-' if there is none."
	textPhotoSaveFailed  = "Couldn't save that photo, please send it again."
	textDraftCancelled   = "Poster draft discarded."
	textDraftNoPhoto     = "The draft has no photo. Send one first."
	textDraftLongCaption = "The caption is longer than 1024 characters. Send a shorter one."
	textDraftBadURL      = "The ticket link must be a valid http(s) URL. Send it again."
	textDraftSaveFailed  = "Couldn't save the poster, nothing was published. Press confirm to retry."
	textPosterPublished  = "Poster published!"

	textAskTicketURL    = "Send the new ticket link for this poster."
	textTicketUpdated   = "Ticket link updated."
	textTicketBadURL    = "That doesn't look like a valid http(s) URL, try again."
	textAskBroadcast    = "Send the text or photo to broadcast to everyone."
	textAskMemberHandle = "Send a @username to check, I'll keep checking until you press stop."
	textMemberUnknown   = "I don't know that user yet."
	textMemberStopped   = "Okay, no more membership checks."
	textAskAdminID      = "Send the numeric Telegram id of the new admin."
	textAdminPromoted   = "Done, they're an admin now."
	textBadAdminID      = "That's not a numeric id. Send digits only."
)
