package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/pkg/messages"
)

const (
	// PointsCmdName is the command for the points ledger.
	PointsCmdName = "points"

	// PointsMineCmdName shows the invoker's balance.
	PointsMineCmdName = "mine"

	// PointsUserCmdName shows another member's balance.
	PointsUserCmdName = "user"

	// PointsAddCmdName adds points to a member.
	PointsAddCmdName = "add"

	// PointsRemoveCmdName removes points from a member.
	PointsRemoveCmdName = "remove"

	// PointsSetCmdName sets a member's balance.
	PointsSetCmdName = "set"

	// PointsResetAllCmdName zeroes every balance in the guild.
	PointsResetAllCmdName = "resetall"

	// LeaderboardCmdName is the command for the points leaderboard.
	LeaderboardCmdName = "leaderboard"

	// ResetConfirmButtonID is the ID for the reset confirmation button.
	ResetConfirmButtonID = "points_reset_confirm"

	// ResetCancelButtonID is the ID for the reset cancel button.
	ResetCancelButtonID = "points_reset_cancel"
)

// resetConfirmWindow is how long a reset confirmation stays valid.
const resetConfirmWindow = 30 * time.Second

// leaderboardSize is how many entries the leaderboard shows.
const leaderboardSize = 10

// pointsCmd is the command for the points ledger.
var pointsCmd = &discordgo.ApplicationCommand{
	Name:        PointsCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Helper points.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        PointsMineCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show your helper points.",
		},
		{
			Name:        PointsUserCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show a member's helper points.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Type:        discordgo.ApplicationCommandOptionUser,
					Description: "The member to look up.",
					Required:    true,
				},
			},
		},
		{
			Name:        PointsAddCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Add helper points to a member.",
			Options:     pointsAmountOptions(),
		},
		{
			Name:        PointsRemoveCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Remove helper points from a member.",
			Options:     pointsAmountOptions(),
		},
		{
			Name:        PointsSetCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Set a member's helper points.",
			Options:     pointsAmountOptions(),
		},
		{
			Name:        PointsResetAllCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Reset every member's helper points to zero.",
		},
	},
}

// leaderboardCmd is the command for the points leaderboard.
var leaderboardCmd = &discordgo.ApplicationCommand{
	Name:        LeaderboardCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Show the helper points leaderboard.",
}

func pointsAmountOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Name:        "user",
			Type:        discordgo.ApplicationCommandOptionUser,
			Description: "The member.",
			Required:    true,
		},
		{
			Name:        "amount",
			Type:        discordgo.ApplicationCommandOptionInteger,
			Description: "The number of points.",
			Required:    true,
		},
	}
}

func pointsCmdController(_ IApp, cmd string) (slashProcessor, error) {
	switch cmd {
	case PointsMineCmdName:
		return pointsMineHandler, nil
	case PointsUserCmdName:
		return pointsUserHandler, nil
	case PointsAddCmdName:
		return pointsAddHandler, nil
	case PointsRemoveCmdName:
		return pointsRemoveHandler, nil
	case PointsSetCmdName:
		return pointsSetHandler, nil
	case PointsResetAllCmdName:
		return pointsResetAllHandler, nil
	default:
		return nil, fmt.Errorf("unknown sub command %s", cmd)
	}
}

func leaderboardCmdController(_ IApp, _ string) (slashProcessor, error) {
	return leaderboardHandler, nil
}

// pendingReset tracks an outstanding reset confirmation per guild.
type pendingReset struct {
	requesterID string
	expires     time.Time
}

var (
	pendingResetMut sync.Mutex
	pendingResets   = make(map[string]pendingReset)
)

func pointsMineHandler(a IApp, i *discordgo.InteractionCreate) error {
	points, err := a.PointsDal().GetPoints(context.Background(), i.GuildID, i.Member.User.ID)
	if err != nil {
		return fmt.Errorf("error getting points: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("You have %d helper point(s).", points))
}

func pointsUserHandler(a IApp, i *discordgo.InteractionCreate) error {
	opts := subCommandOptions(i)
	target := opts["user"].UserValue(a.Session())

	points, err := a.PointsDal().GetPoints(context.Background(), i.GuildID, target.ID)
	if err != nil {
		return fmt.Errorf("error getting points: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("<@%s> has %d helper point(s).", target.ID, points))
}

func pointsAddHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	target := opts["user"].UserValue(a.Session())
	amount := int(opts["amount"].IntValue())
	if amount <= 0 {
		return respondSlashEphemeral(a, i, "The amount has to be more than zero.")
	}

	if err := a.PointsDal().AddPoints(context.Background(), i.GuildID, target.ID, amount); err != nil {
		return fmt.Errorf("error adding points: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("Added %d point(s) to <@%s>.", amount, target.ID))
}

func pointsRemoveHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	target := opts["user"].UserValue(a.Session())
	amount := int(opts["amount"].IntValue())
	if amount <= 0 {
		return respondSlashEphemeral(a, i, "The amount has to be more than zero.")
	}

	// Balances never go negative. The deduction floors at zero inside a
	// single update, so a credit landing at the same time is not lost.
	updated, err := a.PointsDal().DeductPoints(context.Background(), i.GuildID, target.ID, amount)
	if err != nil {
		return fmt.Errorf("error deducting points: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("<@%s> now has %d point(s).", target.ID, updated))
}

func pointsSetHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	opts := subCommandOptions(i)
	target := opts["user"].UserValue(a.Session())
	amount := int(opts["amount"].IntValue())
	if amount < 0 {
		return respondSlashEphemeral(a, i, "The amount has to be zero or more.")
	}

	if err := a.PointsDal().SetPoints(context.Background(), i.GuildID, target.ID, amount); err != nil {
		return fmt.Errorf("error setting points: %w", err)
	}
	return respondSlashEphemeral(a, i, fmt.Sprintf("<@%s> now has %d point(s).", target.ID, amount))
}

// pointsResetAllHandler asks for confirmation before zeroing the ledger. The
// confirmation expires after thirty seconds.
func pointsResetAllHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	armPendingReset(i.GuildID, i.Member.User.ID)

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "This resets every member's helper points to zero. Are you sure?",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Reset all points",
							Style:    discordgo.DangerButton,
							CustomID: ResetConfirmButtonID,
						},
						discordgo.Button{
							Label:    "Cancel",
							Style:    discordgo.SecondaryButton,
							CustomID: ResetCancelButtonID,
						},
					},
				},
			},
		},
	})
}

// armPendingReset registers an outstanding confirmation for the guild,
// replacing any earlier one. It stays valid for resetConfirmWindow.
func armPendingReset(guildID, requesterID string) {
	pendingResetMut.Lock()
	pendingResets[guildID] = pendingReset{
		requesterID: requesterID,
		expires:     time.Now().Add(resetConfirmWindow),
	}
	pendingResetMut.Unlock()
}

// cancelPendingReset drops the outstanding confirmation for the guild.
func cancelPendingReset(guildID string) {
	pendingResetMut.Lock()
	delete(pendingResets, guildID)
	pendingResetMut.Unlock()
}

// takePendingReset claims the outstanding confirmation for the guild. It
// reports whether one existed and was still valid for this member.
func takePendingReset(guildID, memberID string) bool {
	pendingResetMut.Lock()
	defer pendingResetMut.Unlock()

	p, ok := pendingResets[guildID]
	if !ok {
		return false
	}
	delete(pendingResets, guildID)

	return p.requesterID == memberID && time.Now().Before(p.expires)
}

func pointsResetConfirmHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !takePendingReset(i.GuildID, i.Member.User.ID) {
		return respondSlashEphemeral(a, i, messages.MsgConfirmExpired)
	}

	if err := a.PointsDal().ResetAll(context.Background(), i.GuildID); err != nil {
		return fmt.Errorf("error resetting points: %w", err)
	}
	return respondSlashEphemeral(a, i, "Every member's helper points have been reset to zero.")
}

func pointsResetCancelHandler(a IApp, i *discordgo.InteractionCreate) error {
	cancelPendingReset(i.GuildID)

	return respondSlashEphemeral(a, i, "Reset cancelled. Points were not changed.")
}

func leaderboardHandler(a IApp, i *discordgo.InteractionCreate) error {
	entries, err := a.PointsDal().AllPoints(context.Background(), i.GuildID)
	if err != nil {
		return fmt.Errorf("error listing points: %w", err)
	}

	sort.SliceStable(entries, func(x, y int) bool {
		if entries[x].Points != entries[y].Points {
			return entries[x].Points > entries[y].Points
		}
		return entries[x].UserID < entries[y].UserID
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}

	if len(entries) == 0 {
		return respondSlashEphemeral(a, i, "Nobody has earned helper points yet.")
	}

	medals := []string{"\U0001F947", "\U0001F948", "\U0001F949"}

	var b strings.Builder
	for idx, e := range entries {
		rank := fmt.Sprintf("%d.", idx+1)
		if idx < len(medals) {
			rank = medals[idx]
		}
		fmt.Fprintf(&b, "%s <@%s>: %d point(s)\n", rank, e.UserID, e.Points)
	}

	return respondSlashEmbed(a, i, &discordgo.MessageEmbed{
		Title:       "Helper Leaderboard",
		Description: b.String(),
		Color:       ticketColourOpen,
	})
}
