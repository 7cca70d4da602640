package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/pkg/catalog"
	"github.com/vaspitac/helperbot/pkg/messages"
)

const (
	// PanelCmdName is the command for posting the ticket panel.
	PanelCmdName = "panel"

	// PanelPostCmdName posts the panel in the current channel.
	PanelPostCmdName = "post"

	// PanelServiceSelectID is the ID for the panel's service dropdown.
	PanelServiceSelectID = "panel_service_select"

	// TicketModalID is the ID prefix for the intake modal. The selected
	// service rides along after the colon.
	TicketModalID = "ticket_modal"
)

// selectOptionLimit is the platform cap on dropdown options.
const selectOptionLimit = 25

// panelCmd is the command for posting the ticket panel.
var panelCmd = &discordgo.ApplicationCommand{
	Name:        PanelCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Post the ticket panel.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        PanelPostCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Post the ticket panel in this channel.",
		},
	},
}

func panelCmdController(_ IApp, cmd string) (slashProcessor, error) {
	switch cmd {
	case PanelPostCmdName:
		return panelPostHandler, nil
	default:
		return nil, fmt.Errorf("unknown sub command %s", cmd)
	}
}

func panelPostHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	cfg, err := a.ConfigDal().GetConfig(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg == nil || cfg.TicketCategoryID == "" {
		return respondSlashEphemeral(a, i, messages.ErrNotConfigured)
	}

	storedValues, err := a.CatalogDal().GetPointValues(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting point values: %w", err)
	}
	storedSlots, err := a.CatalogDal().GetHelperSlots(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting helper slots: %w", err)
	}

	values := catalog.PointValues(storedValues)
	slots := catalog.HelperSlots(storedSlots)

	services := catalog.Services(values)
	if len(services) > selectOptionLimit {
		services = services[:selectOptionLimit]
	}

	options := make([]discordgo.SelectMenuOption, 0, len(services))
	for _, service := range services {
		options = append(options, discordgo.SelectMenuOption{
			Label:       service,
			Value:       service,
			Description: fmt.Sprintf("%d points per helper, %d slots", catalog.Points(values, service), catalog.Slots(slots, service)),
		})
	}

	message := &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title:       "Request a Carry",
			Description: "Pick the service you need below and fill in the form. A ticket channel will be created for you.",
			Color:       ticketColourOpen,
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    PanelServiceSelectID,
						Placeholder: "Select a service...",
						Options:     options,
					},
				},
			},
		},
	}

	if _, err := a.Session().ChannelMessageSendComplex(i.ChannelID, message); err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	return respondSlashEphemeral(a, i, "Panel posted.")
}

// panelServiceSelectHandler opens the intake modal for the selected service.
func panelServiceSelectHandler(a IApp, i *discordgo.InteractionCreate) error {
	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return fmt.Errorf("no service selected")
	}
	service := data.Values[0]

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: TicketModalID + ":" + service,
			Title:    service,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "ign",
							Label:     "In-game name",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 64,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "server",
							Label:     "Server",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 64,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "room",
							Label:     "Room",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 64,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "notes",
							Label:     "Notes (optional)",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 500,
						},
					},
				},
			},
		},
	})
}
