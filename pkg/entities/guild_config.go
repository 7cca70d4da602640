package entities

import "github.com/vaspitac/helperbot/pkg/custom"

// GuildConfig is the per-guild configuration. It is only ever written by the
// setup flow and is updated in place, never deleted.
type GuildConfig struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// HelperRoleID is the role allowed to join tickets as a helper.
	HelperRoleID string `json:"helper_role_id" bson:"helper_role_id"`

	// ViewerRoleID is the role that can read ticket channels without
	// participating.
	ViewerRoleID string `json:"viewer_role_id" bson:"viewer_role_id"`

	// BlockedRoleID is the role whose members cannot create tickets.
	BlockedRoleID string `json:"blocked_role_id" bson:"blocked_role_id"`

	// TicketCategoryID is the channel category new tickets are created
	// under.
	TicketCategoryID string `json:"ticket_category_id" bson:"ticket_category_id"`

	// TranscriptChannelID is where closed-ticket transcripts are posted.
	// Empty means transcripts are skipped.
	TranscriptChannelID string `json:"transcript_channel_id" bson:"transcript_channel_id"`

	// GuidelinesChannelID is where the rules panels live.
	GuidelinesChannelID string `json:"guidelines_channel_id" bson:"guidelines_channel_id"`

	// SetupCompleted marks that an administrator has run the setup flow.
	SetupCompleted bool `json:"setup_completed" bson:"setup_completed"`

	// CreatedAt is when the configuration was first stored.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// UpdatedAt is when the configuration was last changed.
	UpdatedAt custom.Datetime `json:"updated_at" bson:"updated_at"`
}
