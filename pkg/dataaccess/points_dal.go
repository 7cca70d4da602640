package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vaspitac/helperbot/pkg/dataaccess/monitoring"
	"github.com/vaspitac/helperbot/pkg/entities"
	"github.com/vaspitac/helperbot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pointsDalName = "points_dal"

// PointsDal is the data access layer for the helper points ledger.
type PointsDal interface {
	// GetPoints gets a user's balance, or zero when none is stored.
	GetPoints(ctx context.Context, guildID, userID string) (int, error)

	// AddPoints atomically adds the delta to the user's balance, creating
	// the entry when none exists. A negative delta subtracts.
	AddPoints(ctx context.Context, guildID, userID string, delta int) error

	// SetPoints sets the user's balance to an absolute value.
	SetPoints(ctx context.Context, guildID, userID string, points int) error

	// DeductPoints atomically subtracts the amount from the user's
	// balance, flooring at zero, and returns the new balance. The
	// subtract and the floor are one update, so a concurrent credit
	// cannot be lost.
	DeductPoints(ctx context.Context, guildID, userID string, amount int) (int, error)

	// AllPoints returns every ledger entry for the guild.
	AllPoints(ctx context.Context, guildID string) ([]*entities.UserPoints, error)

	// ResetAll zeroes every balance in the guild. Entries are kept.
	ResetAll(ctx context.Context, guildID string) error
}

type pointsDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewPointsDal creates a new points ledger data access layer.
func NewPointsDal() PointsDal {
	l := slog.Default().With(slog.String(logging.KeyDal, pointsDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &pointsDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *pointsDal) GetPoints(ctx context.Context, guildID, userID string) (int, error) {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "get_points", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "get_points", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	entry := new(entities.UserPoints)
	err := collection.FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error getting points: %w", err)
	}
	return entry.Points, nil
}

func (d *pointsDal) AddPoints(ctx context.Context, guildID, userID string, delta int) error {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "add_points", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "add_points", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"guild_id": guildID, "user_id": userID},
		bson.M{"$inc": bson.M{"points": delta}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error adding points: %w", err)
	}
	return nil
}

func (d *pointsDal) SetPoints(ctx context.Context, guildID, userID string, points int) error {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "set_points", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "set_points", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"guild_id": guildID, "user_id": userID},
		bson.M{"$set": bson.M{"points": points}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error setting points: %w", err)
	}
	return nil
}

// deductPointsPipeline is the update for DeductPoints: subtract the amount
// from the stored balance (zero when absent) and floor the result at zero,
// all inside one update.
func deductPointsPipeline(amount int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"points": bson.M{"$max": bson.A{0, bson.M{
				"$subtract": bson.A{bson.M{"$ifNull": bson.A{"$points", 0}}, amount},
			}}},
		}}},
	}
}

func (d *pointsDal) DeductPoints(ctx context.Context, guildID, userID string, amount int) (int, error) {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "deduct_points", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "deduct_points", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	doc := struct {
		Points int `bson:"points"`
	}{}

	err := collection.FindOneAndUpdate(ctx,
		bson.M{"guild_id": guildID, "user_id": userID},
		deductPointsPipeline(amount),
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("error deducting points: %w", err)
	}
	return doc.Points, nil
}

func (d *pointsDal) AllPoints(ctx context.Context, guildID string) ([]*entities.UserPoints, error) {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "all_points", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "all_points", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	cursor, err := collection.Find(ctx, bson.M{"guild_id": guildID})
	if err != nil {
		return nil, fmt.Errorf("error listing points: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			d.l.Error("error closing cursor", slog.String(logging.KeyError, err.Error()))
		}
	}()

	entries := make([]*entities.UserPoints, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding points: %w", err)
	}
	return entries, nil
}

func (d *pointsDal) ResetAll(ctx context.Context, guildID string) error {
	collection := d.client.Database(mongoDatabase).Collection("user_points")

	monitoring.MongoTotalRequests.WithLabelValues(pointsDalName, "reset_all", mongoDatabase, "user_points").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(pointsDalName, "reset_all", mongoDatabase, "user_points"))
	defer t.ObserveDuration()

	_, err := collection.UpdateMany(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$set": bson.M{"points": 0}},
	)
	if err != nil {
		return fmt.Errorf("error resetting points: %w", err)
	}
	return nil
}
