package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/pkg/catalog"
	"github.com/vaspitac/helperbot/pkg/messages"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	// SetupCmdName is the command for configuring the bot in a guild.
	SetupCmdName = "setup"

	// SetupShowCmdName shows the current configuration.
	SetupShowCmdName = "show"

	// SetupRolesCmdName configures the helper, viewer and blocked roles.
	SetupRolesCmdName = "roles"

	// SetupChannelsCmdName configures the ticket category and the
	// transcript and guidelines channels.
	SetupChannelsCmdName = "channels"

	// SetupAdminCmdName toggles a role in the admin role set.
	SetupAdminCmdName = "admin"

	// SetupSlotsCmdName overrides the helper slot count for a service.
	SetupSlotsCmdName = "slots"

	// SetupPointsCmdName overrides the point value for a service.
	SetupPointsCmdName = "points"
)

// setupCmd is the command for configuring the bot.
var setupCmd = &discordgo.ApplicationCommand{
	Name:        SetupCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Configure the helper ticket bot for this server.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        SetupShowCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the current configuration.",
		},
		{
			Name:        SetupRolesCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Set the helper, viewer and blocked roles.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "helper",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role allowed to join tickets as a helper.",
				},
				{
					Name:        "viewer",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role that can read ticket channels without participating.",
				},
				{
					Name:        "blocked",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role whose members cannot create tickets.",
				},
			},
		},
		{
			Name:        SetupChannelsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Set the ticket category and the transcript and guidelines channels.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "tickets",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The category new ticket channels are created under.",
				},
				{
					Name:        "transcripts",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The channel closed-ticket transcripts are posted to.",
				},
				{
					Name:        "guidelines",
					Type:        discordgo.ApplicationCommandOptionChannel,
					Description: "The channel the rules panels live in.",
				},
			},
		},
		{
			Name:        SetupAdminCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Add or remove a bot admin role.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "role",
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role to toggle in the admin set.",
					Required:    true,
				},
			},
		},
		{
			Name:        SetupSlotsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Override the helper slot count for a service.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "service",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The service name.",
					Required:    true,
				},
				{
					Name:        "count",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "The number of helper slots.",
					Required:    true,
				},
			},
		},
		{
			Name:        SetupPointsCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Override the point value for a service.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "service",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The service name.",
					Required:    true,
				},
				{
					Name:        "value",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Description: "The points each helper earns.",
					Required:    true,
				},
			},
		},
	},
}

func setupCmdController(_ IApp, cmd string) (slashProcessor, error) {
	switch cmd {
	case SetupShowCmdName:
		return setupShowHandler, nil
	case SetupRolesCmdName:
		return setupRolesHandler, nil
	case SetupChannelsCmdName:
		return setupChannelsHandler, nil
	case SetupAdminCmdName:
		return setupAdminHandler, nil
	case SetupSlotsCmdName:
		return setupSlotsHandler, nil
	case SetupPointsCmdName:
		return setupPointsHandler, nil
	default:
		return nil, fmt.Errorf("unknown sub command %s", cmd)
	}
}

// isGuildAdmin reports whether the member may administer the bot. Members
// with the Discord administrator permission always may, so a fresh guild can
// bootstrap itself before any admin role is stored.
func isGuildAdmin(a IApp, i *discordgo.InteractionCreate) (bool, error) {
	if i.Member == nil {
		return false, nil
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return a.Engine().Capabilities().IsAdmin(context.Background(), i.GuildID, actorFromInteraction(i))
}

// requireGuildAdmin responds with the not-admin notice when the member may
// not administer the bot. The boolean reports whether the caller should
// continue.
func requireGuildAdmin(a IApp, i *discordgo.InteractionCreate) (bool, error) {
	ok, err := isGuildAdmin(a, i)
	if err != nil {
		return false, err
	}
	if !ok {
		if err := respondSlashEphemeral(a, i, messages.ErrNotAdmin); err != nil {
			return false, fmt.Errorf("error responding to interaction: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// subCommandOptions maps the options of the invoked sub command by name.
func subCommandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return out
	}
	for _, opt := range data.Options[0].Options {
		out[opt.Name] = opt
	}
	return out
}

func setupShowHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	cfg, err := a.ConfigDal().GetConfig(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg == nil {
		return respondSlashEphemeral(a, i, messages.ErrNotConfigured)
	}

	adminRoles, err := a.ConfigDal().GetAdminRoles(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting admin roles: %w", err)
	}

	adminValue := "Not set"
	if len(adminRoles) > 0 {
		mentions := make([]string, 0, len(adminRoles))
		for _, r := range adminRoles {
			mentions = append(mentions, "<@&"+r+">")
		}
		adminValue = strings.Join(mentions, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Title: "Bot Configuration",
		Color: ticketColourOpen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Helper role", Value: roleMentionOrUnset(cfg.HelperRoleID), Inline: true},
			{Name: "Viewer role", Value: roleMentionOrUnset(cfg.ViewerRoleID), Inline: true},
			{Name: "Blocked role", Value: roleMentionOrUnset(cfg.BlockedRoleID), Inline: true},
			{Name: "Ticket category", Value: channelMentionOrUnset(cfg.TicketCategoryID), Inline: true},
			{Name: "Transcript channel", Value: channelMentionOrUnset(cfg.TranscriptChannelID), Inline: true},
			{Name: "Guidelines channel", Value: channelMentionOrUnset(cfg.GuidelinesChannelID), Inline: true},
			{Name: "Admin roles", Value: adminValue},
			{Name: "Setup completed", Value: fmt.Sprintf("%t", cfg.SetupCompleted), Inline: true},
		},
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func roleMentionOrUnset(id string) string {
	if id == "" {
		return "Not set"
	}
	return "<@&" + id + ">"
}

func channelMentionOrUnset(id string) string {
	if id == "" {
		return "Not set"
	}
	return "<#" + id + ">"
}

func setupRolesHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	fields := bson.M{}
	if opt, ok := opts["helper"]; ok {
		fields["helper_role_id"] = opt.RoleValue(a.Session(), i.GuildID).ID
	}
	if opt, ok := opts["viewer"]; ok {
		fields["viewer_role_id"] = opt.RoleValue(a.Session(), i.GuildID).ID
	}
	if opt, ok := opts["blocked"]; ok {
		fields["blocked_role_id"] = opt.RoleValue(a.Session(), i.GuildID).ID
	}

	if len(fields) == 0 {
		return respondSlashEphemeral(a, i, "Nothing to update, provide at least one role.")
	}

	if err := a.ConfigDal().UpdateConfig(context.Background(), i.GuildID, fields); err != nil {
		return fmt.Errorf("error updating guild configuration: %w", err)
	}
	return respondSlashEphemeral(a, i, "Roles updated.")
}

func setupChannelsHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	fields := bson.M{}
	if opt, ok := opts["tickets"]; ok {
		channel := opt.ChannelValue(a.Session())
		if channel.Type != discordgo.ChannelTypeGuildCategory {
			return respondSlashEphemeral(a, i, "The tickets channel has to be a category.")
		}
		fields["ticket_category_id"] = channel.ID

		// A ticket category is the one hard requirement, so setting it
		// completes setup.
		fields["setup_completed"] = true
	}
	if opt, ok := opts["transcripts"]; ok {
		fields["transcript_channel_id"] = opt.ChannelValue(a.Session()).ID
	}
	if opt, ok := opts["guidelines"]; ok {
		fields["guidelines_channel_id"] = opt.ChannelValue(a.Session()).ID
	}

	if len(fields) == 0 {
		return respondSlashEphemeral(a, i, "Nothing to update, provide at least one channel.")
	}

	if err := a.ConfigDal().UpdateConfig(context.Background(), i.GuildID, fields); err != nil {
		return fmt.Errorf("error updating guild configuration: %w", err)
	}
	return respondSlashEphemeral(a, i, "Channels updated.")
}

func setupAdminHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	role := opts["role"].RoleValue(a.Session(), i.GuildID)

	roles, err := a.ConfigDal().GetAdminRoles(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting admin roles: %w", err)
	}

	// Toggle membership, the role set is replaced in full.
	updated := make([]string, 0, len(roles)+1)
	removed := false
	for _, r := range roles {
		if r == role.ID {
			removed = true
			continue
		}
		updated = append(updated, r)
	}
	if !removed {
		updated = append(updated, role.ID)
	}

	if err := a.ConfigDal().SetAdminRoles(context.Background(), i.GuildID, updated); err != nil {
		return fmt.Errorf("error setting admin roles: %w", err)
	}

	if removed {
		return respondSlashEphemeral(a, i, fmt.Sprintf("Removed %s from the admin roles.", role.Name))
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("Added %s to the admin roles.", role.Name))
}

func setupSlotsHandler(a IApp, i *discordgo.InteractionCreate) error {
	// A session always has at least one slot, so a stored zero would only
	// mislead the panel.
	return setupCatalogUpdate(a, i, "count", 1, catalog.HelperSlots,
		a.CatalogDal().GetHelperSlots, a.CatalogDal().SetHelperSlots, "helper slots")
}

func setupPointsHandler(a IApp, i *discordgo.InteractionCreate) error {
	return setupCatalogUpdate(a, i, "value", 0, catalog.PointValues,
		a.CatalogDal().GetPointValues, a.CatalogDal().SetPointValues, "point value")
}

// catalogValueError validates a catalog override against its floor. It
// returns the user notice, or the empty string when the value is accepted.
func catalogValueError(value, floor int) string {
	if value >= floor {
		return ""
	}
	if floor > 0 {
		return fmt.Sprintf("The value has to be at least %d.", floor)
	}
	return "The value has to be zero or more."
}

func setupCatalogUpdate(
	a IApp,
	i *discordgo.InteractionCreate,
	valueOpt string,
	floor int,
	resolve func(stored map[string]int) map[string]int,
	get func(ctx context.Context, guildID string) (map[string]int, error),
	set func(ctx context.Context, guildID string, values map[string]int) error,
	what string,
) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	service := opts["service"].StringValue()
	value := int(opts[valueOpt].IntValue())
	if msg := catalogValueError(value, floor); msg != "" {
		return respondSlashEphemeral(a, i, msg)
	}

	stored, err := get(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting %s: %w", what, err)
	}

	// Seed from the resolved view so a first override does not shadow the
	// default values of the other services.
	values := resolve(stored)
	values[service] = value

	if err := set(context.Background(), i.GuildID, values); err != nil {
		return fmt.Errorf("error setting %s: %w", what, err)
	}

	// Open sessions keep the capacity and reward they were created with,
	// the change only affects new tickets.
	return respondSlashEphemeral(a, i, fmt.Sprintf("Updated the %s for %s to %d. Open tickets are unaffected.", what, service, value))
}
