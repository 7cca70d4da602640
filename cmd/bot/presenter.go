package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/pkg/ticketing"
)

const (
	// ticketColourOpen is the embed colour while helpers can still join.
	ticketColourOpen = 0x57F287

	// ticketColourClosed is the embed colour once the ticket is closing.
	ticketColourClosed = 0xED4245
)

// rosterPresenter renders roster changes onto the ticket's pinned message.
// The engine invokes it under the session lock, so edits land in mutation
// order.
type rosterPresenter struct {
	a *App
}

func newRosterPresenter(a *App) *rosterPresenter {
	return &rosterPresenter{a: a}
}

func (p *rosterPresenter) UpdateRoster(_ context.Context, snap ticketing.Snapshot) error {
	if snap.ChannelID == "" || snap.MessageID == "" {
		// The session has not been bound to a channel yet.
		return nil
	}
	if _, err := p.a.Session().ChannelMessageEditEmbed(snap.ChannelID, snap.MessageID, ticketEmbed(snap)); err != nil {
		return fmt.Errorf("error editing ticket message: %w", err)
	}
	return nil
}

// ticketEmbed is the pinned ticket message, a pure projection of a session
// snapshot.
func ticketEmbed(snap ticketing.Snapshot) *discordgo.MessageEmbed {
	colour := ticketColourOpen
	if snap.State != ticketing.StateOpen {
		colour = ticketColourClosed
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Requested by",
			Value:  snap.Owner.Mention(),
			Inline: true,
		},
		{
			Name:   "IGN",
			Value:  snap.Intake.IGN,
			Inline: true,
		},
		{
			Name:   "Server",
			Value:  snap.Intake.Server,
			Inline: true,
		},
		{
			Name:   "Room",
			Value:  snap.Intake.Room,
			Inline: true,
		},
		{
			Name:   "Points per helper",
			Value:  fmt.Sprintf("%d", snap.Reward),
			Inline: true,
		},
	}

	if snap.Intake.Notes != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Notes",
			Value: snap.Intake.Notes,
		})
	}

	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Helpers (%d/%d)", len(snap.Helpers), snap.Capacity),
		Value: strings.Join(snap.RosterLines, "\n"),
	})

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("%s Ticket #%d", snap.Category, snap.Number),
		Color:  colour,
		Fields: fields,
	}
}
