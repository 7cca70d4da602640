package ticketing

// Actor is a guild member as seen by the ticket engine: an identity plus the
// role IDs they hold at the time of the action.
type Actor struct {
	// ID is the user ID.
	ID string

	// Name is the display name, used in transcripts and notices.
	Name string

	// Roles are the role IDs the member holds.
	Roles []string
}

// HasRole reports whether the actor holds the given role.
func (a Actor) HasRole(roleID string) bool {
	for _, r := range a.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Mention returns the platform mention string for the actor.
func (a Actor) Mention() string {
	return "<@" + a.ID + ">"
}

// Intake carries the request form answers captured when a ticket is created.
type Intake struct {
	// IGN is the requester's in-game name.
	IGN string

	// Server is the in-game server/world name.
	Server string

	// Room is the room or instance identifier the run happens in.
	Room string

	// Notes is optional free-form context from the requester.
	Notes string
}
