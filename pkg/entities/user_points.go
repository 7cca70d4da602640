package entities

// UserPoints is a single ledger entry for a helper in a guild.
type UserPoints struct {
	// GuildID is the guild the entry belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the helper the entry belongs to.
	UserID string `json:"user_id" bson:"user_id"`

	// Points is the helper's current balance.
	Points int `json:"points" bson:"points"`
}
