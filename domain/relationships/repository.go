package relationships

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/insight-tracker/server-go/internal/database"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Repository reads and writes relationship records in the document store.
type Repository struct {
	db    *database.Mongo
	retry *database.Retryer
	log   *slog.Logger
}

func NewRepository(db *database.Mongo, log *slog.Logger) *Repository {
	return &Repository{
		db:    db,
		retry: db.Retry(),
		log:   log.With(logger.Scope("relationships.repo")),
	}
}

func (r *Repository) col() *mongo.Collection {
	return r.db.Collection(collection)
}

// EnsureIndexes creates the endpoint lookup indexes.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	return r.retry.Do(ctx, "relationships.ensure_indexes", func(ctx context.Context) error {
		_, err := r.col().Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "source_id", Value: 1}}},
			{Keys: bson.D{{Key: "target_id", Value: 1}}},
		})
		return err
	})
}

// Insert stores a fully populated record. The service assigns the id before
// the batch starts so the compensation can refer to it.
func (r *Repository) Insert(ctx context.Context, rel *Relationship) error {
	return r.retry.Do(ctx, "relationships.insert", func(ctx context.Context) error {
		_, err := r.col().InsertOne(ctx, rel)
		return err
	})
}

// GetByID returns the record for id, or nil when no record exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*Relationship, error) {
	return database.Execute(ctx, r.retry, "relationships.get", func(ctx context.Context) (*Relationship, error) {
		var rel Relationship
		err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&rel)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &rel, nil
	})
}

// Remove deletes the record and reports whether it existed.
func (r *Repository) Remove(ctx context.Context, id string) (bool, error) {
	return database.Execute(ctx, r.retry, "relationships.remove", func(ctx context.Context) (bool, error) {
		res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return false, err
		}
		return res.DeletedCount > 0, nil
	})
}

// ListForInsight returns every relationship with the insight on either side,
// newest first.
func (r *Repository) ListForInsight(ctx context.Context, insightID string) ([]Relationship, error) {
	return database.Execute(ctx, r.retry, "relationships.list_for_insight", func(ctx context.Context) ([]Relationship, error) {
		filter := bson.M{"$or": bson.A{
			bson.M{"source_id": insightID},
			bson.M{"target_id": insightID},
		}}
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

		cur, err := r.col().Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		var out []Relationship
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}
