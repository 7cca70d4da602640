package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vaspitac/helperbot/pkg/dataaccess/monitoring"
	"github.com/vaspitac/helperbot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogDalName = "catalog_dal"

// CatalogDal is the data access layer for per-guild point values and helper
// slot overrides. An empty map means the guild has no override and the
// built-in defaults apply.
type CatalogDal interface {
	// GetPointValues gets the guild's stored point values, if any.
	GetPointValues(ctx context.Context, guildID string) (map[string]int, error)

	// SetPointValues replaces the guild's point values in full.
	SetPointValues(ctx context.Context, guildID string, values map[string]int) error

	// GetHelperSlots gets the guild's stored slot counts, if any.
	GetHelperSlots(ctx context.Context, guildID string) (map[string]int, error)

	// SetHelperSlots replaces the guild's slot counts in full.
	SetHelperSlots(ctx context.Context, guildID string, slots map[string]int) error
}

type catalogDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewCatalogDal creates a new service catalog data access layer.
func NewCatalogDal() CatalogDal {
	l := slog.Default().With(slog.String(logging.KeyDal, catalogDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &catalogDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *catalogDal) getValues(ctx context.Context, name, query, guildID string) (map[string]int, error) {
	collection := d.client.Database(mongoDatabase).Collection(name)

	monitoring.MongoTotalRequests.WithLabelValues(catalogDalName, query, mongoDatabase, name).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(catalogDalName, query, mongoDatabase, name))
	defer t.ObserveDuration()

	doc := struct {
		Values map[string]int `bson:"values"`
	}{}

	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting %s: %w", name, err)
	}
	return doc.Values, nil
}

func (d *catalogDal) setValues(ctx context.Context, name, query, guildID string, values map[string]int) error {
	collection := d.client.Database(mongoDatabase).Collection(name)

	monitoring.MongoTotalRequests.WithLabelValues(catalogDalName, query, mongoDatabase, name).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(catalogDalName, query, mongoDatabase, name))
	defer t.ObserveDuration()

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, bson.M{"guild_id": guildID}, bson.M{
		"guild_id": guildID,
		"values":   values,
	}, opts)
	if err != nil {
		return fmt.Errorf("error setting %s: %w", name, err)
	}
	return nil
}

func (d *catalogDal) GetPointValues(ctx context.Context, guildID string) (map[string]int, error) {
	return d.getValues(ctx, "point_values", "get_point_values", guildID)
}

func (d *catalogDal) SetPointValues(ctx context.Context, guildID string, values map[string]int) error {
	return d.setValues(ctx, "point_values", "set_point_values", guildID, values)
}

func (d *catalogDal) GetHelperSlots(ctx context.Context, guildID string) (map[string]int, error) {
	return d.getValues(ctx, "helper_slots", "get_helper_slots", guildID)
}

func (d *catalogDal) SetHelperSlots(ctx context.Context, guildID string, slots map[string]int) error {
	return d.setValues(ctx, "helper_slots", "set_helper_slots", guildID, slots)
}
