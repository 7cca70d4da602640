package messages

const (
	// ErrUserErrorProcessing is sent when a command fails for a reason the
	// user cannot fix.
	ErrUserErrorProcessing = "Something went wrong processing your request, please try again later."

	// ErrNotAdmin is sent when a user without an admin role uses a
	// privileged command.
	ErrNotAdmin = "You do not have permission to use this command."

	// ErrNotConfigured is sent when the bot has not been set up for the
	// guild.
	ErrNotConfigured = "The bot is not configured for this server. Ask an administrator to run /setup."

	// ErrBlockedFromTickets is sent when a blocked user tries to open a
	// ticket.
	ErrBlockedFromTickets = "You are not allowed to create tickets. Please contact an administrator if you believe this is an error."

	// ErrRosterFull is sent when all helper slots are taken.
	ErrRosterFull = "All helper slots are filled!"

	// ErrAlreadyHelping is sent on a duplicate join.
	ErrAlreadyHelping = "You are already in the helper list!"

	// ErrNotHelping is sent when leaving a roster the user is not in.
	ErrNotHelping = "You are not in the helper list!"

	// ErrHelperRoleRequired is sent when the join actor lacks the helper
	// role.
	ErrHelperRoleRequired = "You need the helper role to join tickets!"

	// ErrHelperNotFound is sent when removing a helper that is not in the
	// roster.
	ErrHelperNotFound = "That user is not a helper on this ticket."

	// ErrTicketClosed is sent when acting on a ticket that is closing or
	// closed.
	ErrTicketClosed = "This ticket is closed."

	// ErrNoTicketHere is sent when a ticket action runs outside a ticket
	// channel.
	ErrNoTicketHere = "There is no open ticket in this channel."

	// MsgJoined confirms a successful join.
	MsgJoined = "You joined as a helper! Thank you for helping!"

	// MsgLeft confirms a successful leave.
	MsgLeft = "You left the helper list."

	// MsgClosing confirms a close is in progress.
	MsgClosing = "Closing ticket and generating transcript..."

	// ErrCommandBusy is sent when a command is rate limited.
	ErrCommandBusy = "This command is already running, please wait a moment and try again."

	// MsgConfirmExpired is sent when a confirmation prompt times out.
	MsgConfirmExpired = "Confirmation timed out. Points were not reset."
)
