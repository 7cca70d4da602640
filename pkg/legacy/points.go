// Package legacy folds point balances out of the flat JSON file the bot
// used before the database existed.
package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultPointsFile is where the old bot kept its ledger.
const DefaultPointsFile = "points.json"

// ErrNoLegacyFile is returned when there is nothing to migrate.
var ErrNoLegacyFile = errors.New("no legacy points file found")

// Load reads the legacy ledger, a JSON object mapping user IDs to point
// balances.
func Load(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLegacyFile
	} else if err != nil {
		return nil, fmt.Errorf("error reading legacy points file: %w", err)
	}

	points := make(map[string]int)
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("error parsing legacy points file: %w", err)
	}
	return points, nil
}

// MarkMigrated renames the legacy file so the migration cannot be folded in
// twice.
func MarkMigrated(path string) error {
	if err := os.Rename(path, path+".migrated"); err != nil {
		return fmt.Errorf("error renaming legacy points file: %w", err)
	}
	return nil
}
