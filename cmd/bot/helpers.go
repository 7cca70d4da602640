package main

import (
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/pkg/messages"
	"github.com/vaspitac/helperbot/pkg/ticketing"
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondSlashEphemeral(a, i, messages.ErrUserErrorProcessing)
}

func respondSlashEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondSlashEmbed(a IApp, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// actorFromInteraction builds the engine's view of the invoking member.
func actorFromInteraction(i *discordgo.InteractionCreate) ticketing.Actor {
	if i.Member == nil || i.Member.User == nil {
		return ticketing.Actor{}
	}
	return ticketing.Actor{
		ID:    i.Member.User.ID,
		Name:  memberDisplayName(i.Member),
		Roles: i.Member.Roles,
	}
}

func memberDisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

// engineErrorMessage maps engine errors onto the notices shown to users. A
// false second return means the error is not a user error.
func engineErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ticketing.ErrConfigurationMissing):
		return messages.ErrNotConfigured, true
	case errors.Is(err, ticketing.ErrNoSession):
		return messages.ErrNoTicketHere, true
	case errors.Is(err, ticketing.ErrSessionClosed):
		return messages.ErrTicketClosed, true
	case errors.Is(err, ticketing.ErrRosterFull):
		return messages.ErrRosterFull, true
	case errors.Is(err, ticketing.ErrAlreadyJoined):
		return messages.ErrAlreadyHelping, true
	case errors.Is(err, ticketing.ErrNotJoined):
		return messages.ErrNotHelping, true
	case errors.Is(err, ticketing.ErrHelperNotFound):
		return messages.ErrHelperNotFound, true
	case errors.Is(err, ticketing.ErrPermissionDenied):
		return messages.ErrNotAdmin, true
	default:
		return "", false
	}
}

// respondEngineError answers with the mapped user notice, or passes the
// error back up when it is not a user error.
func respondEngineError(a IApp, i *discordgo.InteractionCreate, err error) error {
	msg, ok := engineErrorMessage(err)
	if !ok {
		return err
	}
	if rErr := respondSlashEphemeral(a, i, msg); rErr != nil {
		return fmt.Errorf("error responding to interaction: %w", rErr)
	}
	return nil
}
