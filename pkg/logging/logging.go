package logging

import (
	"fmt"
	"log/slog"
	"os"
)

const (
	// KeyError is the key used for errors in log attributes.
	KeyError = "err"

	// KeyDal is the key used for the data access layer name.
	KeyDal = "dal"

	// KeyGuild is the key used for the guild ID.
	KeyGuild = "guild_id"

	// KeyChannel is the key used for the channel ID.
	KeyChannel = "channel_id"

	// KeyUser is the key used for the user ID.
	KeyUser = "user_id"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name

	// level is the minimum level to log at.
	level slog.Level
}

// NewConfig creates a new logging configuration.
func NewConfig(name Name) *Config {
	return &Config{
		name:  name,
		level: slog.LevelDebug,
	}
}

// CommonLogger creates the logger used across the application. The logger
// writes JSON to stdout and carries the application name on every record.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("no logging config provided")
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String("app", string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
