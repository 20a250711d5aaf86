package models

// Consent states a match can occupy. chatting is set at match creation;
// ended and blocked are absorbing.
const (
	StateChatting         = "chatting"
	StateRequestedPenPal  = "requested_pen_pal"
	StateMutualPenPal     = "mutual_pen_pal"
	StateAddressRequested = "address_requested"
	StateRevealed         = "revealed"
	StateEnded            = "ended"
	StateBlocked          = "blocked"
)

// Events that drive consent-state transitions.
const (
	EventRequestPenPal = "request_pen_pal"
	EventConfirmPenPal = "confirm_pen_pal"
	EventRequestReveal = "request_address_reveal"
	EventConfirmReveal = "confirm_address_reveal"
	EventEnd           = "end"
	EventBlock         = "block"
)

// ConsentTransitions is the full edge set of the consent machine.
// Anything not listed here is an invalid transition. The block edge is
// special-cased: it applies from every non-terminal state and is only
// triggered through the safety service.
var ConsentTransitions = map[string]map[string]string{
	StateChatting: {
		EventRequestPenPal: StateRequestedPenPal,
		EventEnd:           StateEnded,
	},
	StateRequestedPenPal: {
		EventConfirmPenPal: StateMutualPenPal,
		EventEnd:           StateEnded,
	},
	StateMutualPenPal: {
		EventRequestReveal: StateAddressRequested,
		EventEnd:           StateEnded,
	},
	StateAddressRequested: {
		EventConfirmReveal: StateRevealed,
		EventEnd:           StateEnded,
	},
	StateRevealed: {
		EventEnd: StateEnded,
	},
}

// IsTerminalState reports whether no event can move a match out of state.
func IsTerminalState(state string) bool {
	return state == StateEnded || state == StateBlocked
}

// CanMessage reports whether members may still exchange messages.
func CanMessage(state string) bool {
	return !IsTerminalState(state)
}

// CanTrackLetters reports whether letter events may be recorded: only
// once the pair has reached mutual pen-pal or later.
func CanTrackLetters(state string) bool {
	switch state {
	case StateMutualPenPal, StateAddressRequested, StateRevealed:
		return true
	}
	return false
}

// Connection request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// Letter event types.
const (
	LetterEventSent     = "sent"
	LetterEventReceived = "received"
)

// Report categories accepted by the safety service.
var ReportCategories = []string{
	"harassment",
	"scam",
	"sexual_content",
	"hate_speech",
	"minors",
	"spam",
	"other",
}

// Audit action tags.
const (
	AuditActionAddressReveal = "address_reveal"
	AuditActionBlockUser     = "block_user"
	AuditActionReportUser    = "report_user"
	AuditActionModeration    = "admin_moderation"
)

// Moderation actions available to admins.
var AdminActions = []string{"warn", "suspend", "ban"}

// User account statuses set by moderation.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusBanned    = "banned"
)
