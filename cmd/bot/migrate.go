package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/vaspitac/helperbot/cmd/bot/config"
	"github.com/vaspitac/helperbot/pkg/legacy"
)

const (
	// MigrateCmdName is the command for folding the legacy points file into
	// the database.
	MigrateCmdName = "migrate"
)

// migrateCmd is the command for migrating the legacy points file.
var migrateCmd = &discordgo.ApplicationCommand{
	Name:        MigrateCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Fold the legacy points file into the database.",
}

func migrateCmdController(_ IApp, _ string) (slashProcessor, error) {
	return migrateHandler, nil
}

// migrateHandler adds the legacy balances onto the stored ones and renames
// the file afterwards so the fold cannot run twice.
func migrateHandler(a IApp, i *discordgo.InteractionCreate) error {
	if ok, err := requireGuildAdmin(a, i); err != nil || !ok {
		return err
	}

	points, err := legacy.Load(config.LegacyPointsFile)
	if errors.Is(err, legacy.ErrNoLegacyFile) {
		return respondSlashEphemeral(a, i, "There is no legacy points file to migrate.")
	} else if err != nil {
		return fmt.Errorf("error loading legacy points: %w", err)
	}

	for userID, balance := range points {
		if balance == 0 {
			continue
		}
		if err := a.PointsDal().AddPoints(context.Background(), i.GuildID, userID, balance); err != nil {
			return fmt.Errorf("error migrating points for %s: %w", userID, err)
		}
	}

	if err := legacy.MarkMigrated(config.LegacyPointsFile); err != nil {
		return fmt.Errorf("error marking legacy points file migrated: %w", err)
	}

	return respondSlashEphemeral(a, i, fmt.Sprintf("Migrated %d legacy balance(s).", len(points)))
}
