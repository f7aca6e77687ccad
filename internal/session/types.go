package session

// RegStep identifies the current registration dialogue step.
type RegStep int

const (
	// RegNone means no registration dialogue is in flight.
	RegNone RegStep = iota
	// RegName waits for the user's name.
	RegName
	// RegGender waits for a gender button press.
	RegGender
	// RegAge waits for the user's age.
	RegAge
)

// String returns the step name used in logs.
func (s RegStep) String() string {
	switch s {
	case RegName:
		return "name"
	case RegGender:
		return "gender"
	case RegAge:
		return "age"
	default:
		return "none"
	}
}

// DraftStep identifies the current poster wizard step.
type DraftStep int

const (
	// DraftPhoto waits for the poster image.
	DraftPhoto DraftStep = iota
	// DraftCaption waits for the caption text.
	DraftCaption
	// DraftLink waits for the ticket link (empty allowed).
	DraftLink
	// DraftPreview shows the composed poster awaiting confirm/cancel.
	DraftPreview
)

// String returns the step name used in logs.
func (s DraftStep) String() string {
	switch s {
	case DraftPhoto:
		return "photo"
	case DraftCaption:
		return "caption"
	case DraftLink:
		return "link"
	case DraftPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Draft is an in-progress poster created through the admin wizard.
// At most one draft exists per admin.
type Draft struct {
	Step      DraftStep
	FileID    string
	PhotoPath string
	Caption   string
	TicketURL string
}

// PendingKind identifies a single free-form input the bot expects next from
// a user outside of the registration and wizard flows.
type PendingKind int

const (
	// PendingNone means no input is awaited.
	PendingNone PendingKind = iota
	// PendingTicketURL awaits a ticket link for an existing poster.
	PendingTicketURL
	// PendingBroadcast awaits free-form broadcast content (text or photo).
	PendingBroadcast
	// PendingMemberLookup awaits a @username for a membership check.
	PendingMemberLookup
	// PendingAdminID awaits a numeric id for admin promotion.
	PendingAdminID
)

// String returns the pending input name used in logs.
func (k PendingKind) String() string {
	switch k {
	case PendingTicketURL:
		return "ticket_url"
	case PendingBroadcast:
		return "broadcast"
	case PendingMemberLookup:
		return "member_lookup"
	case PendingAdminID:
		return "admin_id"
	default:
		return "none"
	}
}

// Pending couples the awaited input kind with an optional subject poster.
type Pending struct {
	Kind     PendingKind
	PosterID int64
}

type userState struct {
	regStep     RegStep
	draft       *Draft
	pending     Pending
	carouselIdx int
	hasCarousel bool
	missedInRow int
}
