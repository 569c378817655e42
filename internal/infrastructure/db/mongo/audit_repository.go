package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

const auditCollection = "user_audit"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureIndexes creates the lookup index on target and time. Safe to call on
// every start.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "target_id", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("target_id_at"),
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert persists a single audit event.
func (r *AuditRepository) Insert(ctx context.Context, event domain.AuditEvent) error {
	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, auditDocument(event, time.Now().UTC())); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func auditDocument(event domain.AuditEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"action":      string(event.Action),
		"actor_id":    event.ActorID,
		"target_id":   event.TargetID,
		"at":          event.At.UTC(),
		"recorded_at": recordedAt,
	}
	if event.Username != "" {
		doc["username"] = event.Username
	}
	if len(event.Fields) > 0 {
		doc["fields"] = event.Fields
	}
	return doc
}
