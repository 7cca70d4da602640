package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vaspitac/helperbot/pkg/dataaccess/monitoring"
	"github.com/vaspitac/helperbot/pkg/entities"
	"github.com/vaspitac/helperbot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const guildConfigDalName = "guild_config_dal"

// GuildConfigDal is the data access layer for per-guild configuration and
// the admin role set.
type GuildConfigDal interface {
	// GetConfig gets the guild configuration, or nil when none is stored.
	GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// UpdateConfig upserts the given fields. Unspecified fields are left
	// unchanged on update and defaulted on insert.
	UpdateConfig(ctx context.Context, guildID string, fields bson.M) error

	// GetAdminRoles gets the guild's admin role IDs.
	GetAdminRoles(ctx context.Context, guildID string) ([]string, error)

	// SetAdminRoles replaces the guild's admin role set in full.
	SetAdminRoles(ctx context.Context, guildID string, roleIDs []string) error
}

type guildConfigDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewGuildConfigDal creates a new guild configuration data access layer.
func NewGuildConfigDal() GuildConfigDal {
	l := slog.Default().With(slog.String(logging.KeyDal, guildConfigDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &guildConfigDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *guildConfigDal) GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	collection := d.client.Database(mongoDatabase).Collection("server_configs")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "get_config", mongoDatabase, "server_configs").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "get_config", mongoDatabase, "server_configs"))
	defer t.ObserveDuration()

	cfg := new(entities.GuildConfig)
	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

func (d *guildConfigDal) UpdateConfig(ctx context.Context, guildID string, fields bson.M) error {
	collection := d.client.Database(mongoDatabase).Collection("server_configs")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "update_config", mongoDatabase, "server_configs").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "update_config", mongoDatabase, "server_configs"))
	defer t.ObserveDuration()

	set := bson.M{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"guild_id": guildID}, bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"guild_id":   guildID,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
	}, opts)
	if err != nil {
		return fmt.Errorf("error updating guild config: %w", err)
	}
	return nil
}

func (d *guildConfigDal) GetAdminRoles(ctx context.Context, guildID string) ([]string, error) {
	collection := d.client.Database(mongoDatabase).Collection("admin_roles")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "get_admin_roles", mongoDatabase, "admin_roles").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "get_admin_roles", mongoDatabase, "admin_roles"))
	defer t.ObserveDuration()

	doc := struct {
		RoleIDs []string `bson:"role_ids"`
	}{}

	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting admin roles: %w", err)
	}
	return doc.RoleIDs, nil
}

func (d *guildConfigDal) SetAdminRoles(ctx context.Context, guildID string, roleIDs []string) error {
	collection := d.client.Database(mongoDatabase).Collection("admin_roles")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "set_admin_roles", mongoDatabase, "admin_roles").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "set_admin_roles", mongoDatabase, "admin_roles"))
	defer t.ObserveDuration()

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, bson.M{"guild_id": guildID}, bson.M{
		"guild_id": guildID,
		"role_ids": roleIDs,
	}, opts)
	if err != nil {
		return fmt.Errorf("error setting admin roles: %w", err)
	}
	return nil
}
