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

const rulesDalName = "rules_dal"

// RulesDal is the data access layer for guild rule text overrides. Rules
// are keyed by kind (helper, requester, proof).
type RulesDal interface {
	// GetRule gets the stored rule text, or the empty string when the
	// guild uses the built-in text.
	GetRule(ctx context.Context, guildID, kind string) (string, error)

	// SetRule stores the rule text for the kind.
	SetRule(ctx context.Context, guildID, kind, text string) error
}

type rulesDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewRulesDal creates a new rules data access layer.
func NewRulesDal() RulesDal {
	l := slog.Default().With(slog.String(logging.KeyDal, rulesDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &rulesDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *rulesDal) GetRule(ctx context.Context, guildID, kind string) (string, error) {
	collection := d.client.Database(mongoDatabase).Collection("custom_rules")

	monitoring.MongoTotalRequests.WithLabelValues(rulesDalName, "get_rule", mongoDatabase, "custom_rules").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(rulesDalName, "get_rule", mongoDatabase, "custom_rules"))
	defer t.ObserveDuration()

	doc := struct {
		Text string `bson:"text"`
	}{}

	err := collection.FindOne(ctx, bson.M{"guild_id": guildID, "kind": kind}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("error getting rule: %w", err)
	}
	return doc.Text, nil
}

func (d *rulesDal) SetRule(ctx context.Context, guildID, kind, text string) error {
	collection := d.client.Database(mongoDatabase).Collection("custom_rules")

	monitoring.MongoTotalRequests.WithLabelValues(rulesDalName, "set_rule", mongoDatabase, "custom_rules").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(rulesDalName, "set_rule", mongoDatabase, "custom_rules"))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx,
		bson.M{"guild_id": guildID, "kind": kind},
		bson.M{"$set": bson.M{"text": text}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error setting rule: %w", err)
	}
	return nil
}
