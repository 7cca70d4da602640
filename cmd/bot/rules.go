package main

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// RulesCmdName is the command for the guild's ticket rules.
	RulesCmdName = "rules"

	// RulesHelperCmdName shows the rules for helpers.
	RulesHelperCmdName = "helper"

	// RulesRequesterCmdName shows the rules for requesters.
	RulesRequesterCmdName = "requester"

	// RulesProofCmdName shows the proof requirements.
	RulesProofCmdName = "proof"

	// RulesSetCmdName overrides a rule text for the guild.
	RulesSetCmdName = "set"
)

// defaultRules are the built-in rule texts, used until a guild stores its
// own.
var defaultRules = map[string]string{
	RulesHelperCmdName: `1. Only join a ticket if you can actually make the run.
2. Be in the room before the agreed start time.
3. Leave the ticket if you can no longer help, so your slot frees up.
4. Points are awarded when the ticket is closed, not when you join.`,
	RulesRequesterCmdName: `1. Fill in the form accurately, helpers rely on it to find you.
2. Be online and in the room at the agreed time.
3. One ticket per request. Do not open duplicates.
4. Ask an admin to close the ticket once the run is done.`,
	RulesProofCmdName: `Post a screenshot of the completed run in the ticket channel before it is closed.
The screenshot has to show the room name and the party list.`,
}

var rulesTitles = map[string]string{
	RulesHelperCmdName:    "Helper Rules",
	RulesRequesterCmdName: "Requester Rules",
	RulesProofCmdName:     "Proof Requirements",
}

// rulesCmd is the command for the guild's ticket rules.
var rulesCmd = &discordgo.ApplicationCommand{
	Name:        RulesCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Ticket rules.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        RulesHelperCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the rules for helpers.",
		},
		{
			Name:        RulesRequesterCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the rules for requesters.",
		},
		{
			Name:        RulesProofCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the proof requirements.",
		},
		{
			Name:        RulesSetCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Override a rule text for this server.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "kind",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Which rules to override.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "helper", Value: RulesHelperCmdName},
						{Name: "requester", Value: RulesRequesterCmdName},
						{Name: "proof", Value: RulesProofCmdName},
					},
				},
				{
					Name:        "text",
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The new rule text.",
					Required:    true,
				},
			},
		},
	},
}

func rulesCmdController(_ IApp, cmd string) (slashProcessor, error) {
	switch cmd {
	case RulesHelperCmdName, RulesRequesterCmdName, RulesProofCmdName:
		return rulesShowHandler(cmd), nil
	case RulesSetCmdName:
		return rulesSetHandler, nil
	default:
		return nil, fmt.Errorf("unknown sub command %s", cmd)
	}
}

func rulesShowHandler(kind string) slashProcessor {
	return func(a IApp, i *discordgo.InteractionCreate) error {
		text, err := a.RulesDal().GetRule(context.Background(), i.GuildID, kind)
		if err != nil {
			return fmt.Errorf("error getting rule: %w", err)
		}
		if text == "" {
			text = defaultRules[kind]
		}

		return respondSlashEmbed(a, i, &discordgo.MessageEmbed{
			Title:       rulesTitles[kind],
			Description: text,
			Color:       ticketColourOpen,
		})
	}
}

func rulesSetHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	kind := opts["kind"].StringValue()
	text := opts["text"].StringValue()

	if err := a.RulesDal().SetRule(context.Background(), i.GuildID, kind, text); err != nil {
		return fmt.Errorf("error setting rule: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("Updated the %s rules.", kind))
}
