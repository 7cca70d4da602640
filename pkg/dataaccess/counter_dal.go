package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vaspitac/helperbot/pkg/dataaccess/monitoring"
	"github.com/vaspitac/helperbot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterDalName = "counter_dal"

// CounterDal is the data access layer for per-category ticket numbers.
type CounterDal interface {
	// NextNumber atomically increments and returns the next ticket number
	// for the category. The first call for a category yields 1.
	NextNumber(ctx context.Context, guildID, category string) (int, error)

	// ResetNumber sets the category counter back to zero.
	ResetNumber(ctx context.Context, guildID, category string) error
}

type counterDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewCounterDal creates a new ticket number data access layer.
func NewCounterDal() CounterDal {
	l := slog.Default().With(slog.String(logging.KeyDal, counterDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &counterDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *counterDal) NextNumber(ctx context.Context, guildID, category string) (int, error) {
	collection := d.client.Database(mongoDatabase).Collection("ticket_numbers")

	monitoring.MongoTotalRequests.WithLabelValues(counterDalName, "next_number", mongoDatabase, "ticket_numbers").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(counterDalName, "next_number", mongoDatabase, "ticket_numbers"))
	defer t.ObserveDuration()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	doc := struct {
		Number int `bson:"number"`
	}{}

	err := collection.FindOneAndUpdate(ctx,
		bson.M{"guild_id": guildID, "category": category},
		bson.M{"$inc": bson.M{"number": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("error getting next ticket number: %w", err)
	}
	return doc.Number, nil
}

func (d *counterDal) ResetNumber(ctx context.Context, guildID, category string) error {
	collection := d.client.Database(mongoDatabase).Collection("ticket_numbers")

	monitoring.MongoTotalRequests.WithLabelValues(counterDalName, "reset_number", mongoDatabase, "ticket_numbers").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(counterDalName, "reset_number", mongoDatabase, "ticket_numbers"))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"guild_id": guildID, "category": category},
		bson.M{"$set": bson.M{"number": 0}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error resetting ticket number: %w", err)
	}
	return nil
}
