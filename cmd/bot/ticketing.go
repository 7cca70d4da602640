package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/cmd/bot/monitoring"
	"github.com/vaspitac/helperbot/pkg/logging"
	"github.com/vaspitac/helperbot/pkg/messages"
	"github.com/vaspitac/helperbot/pkg/ticketing"
)

const (
	// JoinTicketButtonID is the ID for the join helper button.
	JoinTicketButtonID = "ticket_join"

	// LeaveTicketButtonID is the ID for the leave helper button.
	LeaveTicketButtonID = "ticket_leave"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "ticket_close"
)

const (
	// JoinEmoji is the emoji for the join button. (Handshake)
	JoinEmoji = "\U0001F91D"

	// LeaveEmoji is the emoji for the leave button. (Door)
	LeaveEmoji = "\U0001F6AA"

	// CloseEmoji is the emoji for the close button. (Padlock)
	CloseEmoji = "\U0001F510"
)

const (
	// RemoveHelperCmdName is the command for taking a helper off a ticket.
	RemoveHelperCmdName = "removehelper"
)

// removeHelperCmd is the command for taking a helper off tickets.
var removeHelperCmd = &discordgo.ApplicationCommand{
	Name:        RemoveHelperCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Remove a helper from the ticket in this channel.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        "user",
			Type:        discordgo.ApplicationCommandOptionUser,
			Description: "The helper to remove.",
			Required:    true,
		},
		{
			Name:        "everywhere",
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Description: "Remove the helper from every open ticket instead of just this one.",
		},
	},
}

func removeHelperCmdController(_ IApp, _ string) (slashProcessor, error) {
	return removeHelperHandler, nil
}

// ticketButtons is the action row on the pinned ticket message.
func ticketButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("%s Join", JoinEmoji),
					Style:    discordgo.PrimaryButton,
					CustomID: JoinTicketButtonID,
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%s Leave", LeaveEmoji),
					Style:    discordgo.SecondaryButton,
					CustomID: LeaveTicketButtonID,
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%s Close", CloseEmoji),
					Style:    discordgo.DangerButton,
					CustomID: CloseTicketButtonID,
				},
			},
		},
	}
}

// modalValue pulls a text input value out of a submitted modal.
func modalValue(data discordgo.ModalSubmitInteractionData, name string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			input, ok := inner.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == name {
				return input.Value
			}
		}
	}
	return ""
}

// ticketModalHandler creates the ticket once the intake form is submitted.
func ticketModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()

	parts := strings.SplitN(data.CustomID, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return fmt.Errorf("malformed modal custom ID %q", data.CustomID)
	}
	service := parts[1]

	intake := ticketing.Intake{
		IGN:    modalValue(data, "ign"),
		Server: modalValue(data, "server"),
		Room:   modalValue(data, "room"),
		Notes:  modalValue(data, "notes"),
	}

	requester := actorFromInteraction(i)

	s, err := a.Engine().Create(context.Background(), i.GuildID, requester, service, intake)
	if err != nil {
		if errors.Is(err, ticketing.ErrPermissionDenied) {
			return respondSlashEphemeral(a, i, messages.ErrBlockedFromTickets)
		}
		return respondEngineError(a, i, err)
	}

	cfg, err := a.ConfigDal().GetConfig(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg == nil {
		return respondSlashEphemeral(a, i, messages.ErrNotConfigured)
	}

	// Only the requester, the helpers, the viewers and the admins can see
	// the ticket channel. Viewers are read-only.
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:    i.GuildID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: 0,
			Deny:  discordgo.PermissionAll,
		},
		{
			ID:    requester.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		},
	}
	if cfg.HelperRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    cfg.HelperRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}
	if cfg.ViewerRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    cfg.ViewerRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory,
			Deny:  discordgo.PermissionSendMessages,
		})
	}
	adminRoles, err := a.ConfigDal().GetAdminRoles(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting admin roles: %w", err)
	}
	for _, roleID := range adminRoles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}

	channel, err := a.Session().GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 s.ChannelName(),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("%s ticket for %s", service, requester.Name),
		ParentID:             cfg.TicketCategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return fmt.Errorf("error creating ticket channel: %w", err)
	}

	msg, err := a.Session().ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Embed:      ticketEmbed(s.Snapshot()),
		Components: ticketButtons(),
	})
	if err != nil {
		return fmt.Errorf("error sending ticket message: %w", err)
	}

	if err := a.Session().ChannelMessagePin(channel.ID, msg.ID); err != nil {
		return fmt.Errorf("error pinning ticket message: %w", err)
	}

	a.Engine().Register(s, channel.ID, msg.ID)
	monitoring.TicketsOpened.WithLabelValues(i.GuildID, service).Inc()

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Ticket Created",
					Description: fmt.Sprintf("%s, your %s ticket is ready in <#%s>.", requester.Mention(), service, channel.ID),
					Color:       ticketColourOpen,
				},
			},
		},
	})
}

func joinTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if err := a.Engine().Join(context.Background(), i.ChannelID, actorFromInteraction(i)); err != nil {
		if errors.Is(err, ticketing.ErrPermissionDenied) {
			return respondSlashEphemeral(a, i, messages.ErrHelperRoleRequired)
		}
		return respondEngineError(a, i, err)
	}
	return respondSlashEphemeral(a, i, messages.MsgJoined)
}

func leaveTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	if err := a.Engine().Leave(context.Background(), i.ChannelID, actorFromInteraction(i).ID); err != nil {
		return respondEngineError(a, i, err)
	}
	return respondSlashEphemeral(a, i, messages.MsgLeft)
}

func removeHelperHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()

	var target *discordgo.User
	everywhere := false
	for _, opt := range data.Options {
		switch opt.Name {
		case "user":
			target = opt.UserValue(a.Session())
		case "everywhere":
			everywhere = opt.BoolValue()
		}
	}
	if target == nil {
		return fmt.Errorf("no user option provided")
	}

	actor := actorFromInteraction(i)

	if everywhere {
		affected, err := a.Engine().RemoveEverywhere(context.Background(), i.GuildID, actor, target.ID)
		if err != nil {
			return respondEngineError(a, i, err)
		}
		if len(affected) == 0 {
			return respondSlashEphemeral(a, i, fmt.Sprintf("<@%s> is not helping on any open ticket.", target.ID))
		}
		for _, channelID := range affected {
			if _, err := a.Session().ChannelMessageSend(channelID, fmt.Sprintf("<@%s> was removed from the helper list by an admin.", target.ID)); err != nil {
				a.Log().Error("Error announcing helper removal",
					slog.String(logging.KeyChannel, channelID),
					slog.String(logging.KeyError, err.Error()),
				)
			}
		}
		return respondSlashEphemeral(a, i, fmt.Sprintf("Removed <@%s> from %d open ticket(s).", target.ID, len(affected)))
	}

	if err := a.Engine().Remove(context.Background(), i.ChannelID, actor, target.ID); err != nil {
		return respondEngineError(a, i, err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("Removed <@%s> from this ticket.", target.ID))
}

// closeTicketHandler freezes the roster, acknowledges in channel and finishes
// the close in the background so the interaction does not time out.
func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	s, err := a.Engine().BeginClose(context.Background(), i.ChannelID, actorFromInteraction(i))
	if err != nil {
		return respondEngineError(a, i, err)
	}

	if err := a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: messages.MsgClosing,
		},
	}); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}

	go func() {
		if err := finishClose(a, s); err != nil {
			a.Log().Error("Error finishing ticket close",
				slog.String(logging.KeyChannel, s.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}()
	return nil
}

// finishClose generates the transcript, settles the helper points and tears
// the channel down after the grace delay.
func finishClose(a IApp, s *ticketing.Session) error {
	snap := s.Snapshot()

	transcript, err := buildTranscript(a, snap)
	if err != nil {
		// A failed transcript does not block settlement.
		a.Log().Error("Error building transcript",
			slog.String(logging.KeyChannel, snap.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	} else if err := postTranscript(a, snap, transcript); err != nil {
		a.Log().Error("Error posting transcript",
			slog.String(logging.KeyChannel, snap.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	if err := a.Engine().Settle(context.Background(), s); err != nil {
		a.Log().Error("Error settling helper points",
			slog.String(logging.KeyChannel, snap.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	} else {
		monitoring.PointsAwarded.WithLabelValues(snap.GuildID, snap.Category).Add(float64(snap.Reward * len(snap.Helpers)))
	}

	monitoring.TicketsClosed.WithLabelValues(snap.GuildID, snap.Category).Inc()

	// Leave the final messages on screen before the channel disappears.
	time.Sleep(ticketing.CloseGraceDelay)

	if _, err := a.Session().ChannelDelete(snap.ChannelID); err != nil {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}

	a.Engine().Finalize(context.Background(), s)
	return nil
}

// buildTranscript renders the channel history into the transcript artifact.
func buildTranscript(a IApp, snap ticketing.Snapshot) (string, error) {
	history, err := a.Session().ChannelMessages(snap.ChannelID, ticketing.TranscriptMessageLimit, "", "", "")
	if err != nil {
		return "", fmt.Errorf("error getting channel messages: %w", err)
	}

	// The API returns newest first, the transcript wants oldest first.
	msgs := make([]ticketing.TranscriptMessage, 0, len(history))
	for idx := len(history) - 1; idx >= 0; idx-- {
		m := history[idx]
		author := ""
		if m.Author != nil {
			author = m.Author.Username
		}
		msgs = append(msgs, ticketing.TranscriptMessage{
			Timestamp: m.Timestamp,
			Author:    author,
			Content:   m.Content,
		})
	}

	return ticketing.RenderTranscript(snap, msgs), nil
}

// postTranscript sends the transcript file and a close summary to the
// configured transcript channel. Without one, the transcript is skipped.
func postTranscript(a IApp, snap ticketing.Snapshot, transcript string) error {
	cfg, err := a.ConfigDal().GetConfig(context.Background(), snap.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg == nil || cfg.TranscriptChannelID == "" {
		return nil
	}

	names := make([]string, 0, len(snap.Helpers))
	for _, h := range snap.Helpers {
		names = append(names, h.Name)
	}
	helpersValue := "None"
	if len(names) > 0 {
		helpersValue = strings.Join(names, ", ")
	}

	_, err = a.Session().ChannelMessageSendComplex(cfg.TranscriptChannelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Ticket Closed",
			Color: ticketColourClosed,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Ticket", Value: snap.ChannelName, Inline: true},
				{Name: "Service", Value: snap.Category, Inline: true},
				{Name: "Closed by", Value: snap.ClosedBy.Name, Inline: true},
				{Name: "Helpers", Value: helpersValue},
				{Name: "Points per helper", Value: fmt.Sprintf("%d", snap.Reward), Inline: true},
			},
		},
		Files: []*discordgo.File{
			{
				Name:        snap.ChannelName + ".txt",
				ContentType: "text/plain",
				Reader:      strings.NewReader(transcript),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending transcript message: %w", err)
	}
	return nil
}
