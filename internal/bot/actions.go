package bot

// Callback action keys. The set is closed: buttons and registry entries are
// built only from these constants, never from free strings.
const (
	actGender = "reg_gender" // payload: male|female

	actMenu        = "main_menu"
	actPosterPrev  = "poster_prev"
	actPosterNext  = "poster_next"
	actPosterGoing = "poster_going" // payload: poster id
	actCheckSubs   = "check_subs"

	actAdminPanel    = "admin_panel"
	actAdminRefresh  = "admin_refresh"
	actAdminStats    = "admin_stats"
	actPosterCreate  = "poster_create"
	actPosterList    = "poster_list"
	actPosterConfirm = "poster_confirm"
	actPosterCancel  = "poster_cancel"
	actPosterDelete  = "poster_delete"     // payload: poster id, asks for confirmation
	actPosterDelYes  = "poster_delete_yes" // payload: poster id
	actPosterTicket  = "poster_ticket"     // payload: poster id
	actBroadcastNow  = "broadcast_now"
	actBroadcastText = "broadcast_text"
	actMemberLookup  = "member_lookup"
	actMemberStop    = "member_lookup_stop"
)
