package ticketing

import (
	"context"
	"fmt"
)

// Capabilities answers "may this actor perform privileged transitions in
// this guild". Every privileged action (close, remove helper, catalog and
// points administration) goes through here instead of re-reading the admin
// role set ad hoc.
type Capabilities struct {
	cfg ConfigStore
}

// NewCapabilities creates the capability checker.
func NewCapabilities(cfg ConfigStore) *Capabilities {
	return &Capabilities{cfg: cfg}
}

// IsAdmin reports whether the actor holds any of the guild's admin roles.
func (c *Capabilities) IsAdmin(ctx context.Context, guildID string, actor Actor) (bool, error) {
	roles, err := c.cfg.GetAdminRoles(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("error getting admin roles: %w", err)
	}

	for _, r := range roles {
		if actor.HasRole(r) {
			return true, nil
		}
	}
	return false, nil
}
