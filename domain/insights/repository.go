package insights

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/insight-tracker/server-go/internal/database"
	"github.com/insight-tracker/server-go/pkg/logger"
)

// Repository reads and writes insight records in the document store. Every
// round trip runs through the shared retry policy of the mongo client.
type Repository struct {
	db    *database.Mongo
	retry *database.Retryer
	log   *slog.Logger
}

func NewRepository(db *database.Mongo, log *slog.Logger) *Repository {
	return &Repository{
		db:    db,
		retry: db.Retry(),
		log:   log.With(logger.Scope("insights.repo")),
	}
}

func (r *Repository) col() *mongo.Collection {
	return r.db.Collection(collection)
}

// EnsureIndexes creates the owner listing index. Index creation is
// idempotent, so running it on every startup is safe.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	return r.retry.Do(ctx, "insights.ensure_indexes", func(ctx context.Context) error {
		_, err := r.col().Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		})
		return err
	})
}

// Create assigns the record its id and timestamps and inserts it. The id is
// a fresh uuid: a plain string that both stores can carry verbatim.
func (r *Repository) Create(ctx context.Context, ins *Insight) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ins.ID = uuid.NewString()
	ins.CreatedAt = now
	ins.UpdatedAt = now
	if ins.Tags == nil {
		ins.Tags = []string{}
	}

	return r.retry.Do(ctx, "insights.create", func(ctx context.Context) error {
		_, err := r.col().InsertOne(ctx, ins)
		return err
	})
}

// GetByID returns the record for id, or nil when no record exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*Insight, error) {
	return database.Execute(ctx, r.retry, "insights.get", func(ctx context.Context) (*Insight, error) {
		var ins Insight
		err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&ins)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &ins, nil
	})
}

// Exists reports whether a record with this id is present.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	return database.Execute(ctx, r.retry, "insights.exists", func(ctx context.Context) (bool, error) {
		n, err := r.col().CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		return n > 0, err
	})
}

// Update applies the set fields of req and returns the updated record, or
// nil when no record exists for id.
func (r *Repository) Update(ctx context.Context, id string, req UpdateInsightRequest) (*Insight, error) {
	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Content != nil {
		set["content"] = *req.Content
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	return database.Execute(ctx, r.retry, "insights.update", func(ctx context.Context) (*Insight, error) {
		var ins Insight
		err := r.col().FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&ins)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &ins, nil
	})
}

// Delete removes the record and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	return database.Execute(ctx, r.retry, "insights.delete", func(ctx context.Context) (bool, error) {
		res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return false, err
		}
		return res.DeletedCount > 0, nil
	})
}

// ListByOwner returns one page of an owner's insights, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, skip, limit int) ([]Insight, error) {
	return database.Execute(ctx, r.retry, "insights.list_by_owner", func(ctx context.Context) ([]Insight, error) {
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(skip)).
			SetLimit(int64(limit))

		cur, err := r.col().Find(ctx, bson.M{"owner_id": ownerID}, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		var out []Insight
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// CountByOwner returns how many insights the owner has.
func (r *Repository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	return database.Execute(ctx, r.retry, "insights.count_by_owner", func(ctx context.Context) (int64, error) {
		return r.col().CountDocuments(ctx, bson.M{"owner_id": ownerID})
	})
}

// ListIDs returns one id-ordered page of at most limit record ids strictly
// after afterID. The reconciliation sweep pages through the whole id set
// with it, so it fetches ids only, never full documents.
func (r *Repository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return database.Execute(ctx, r.retry, "insights.list_ids", func(ctx context.Context) ([]string, error) {
		filter := bson.M{}
		if afterID != "" {
			filter["_id"] = bson.M{"$gt": afterID}
		}
		opts := options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetLimit(int64(limit)).
			SetProjection(bson.M{"_id": 1})

		cur, err := r.col().Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)

		var page []struct {
			ID string `bson:"_id"`
		}
		if err := cur.All(ctx, &page); err != nil {
			return nil, err
		}

		ids := make([]string, len(page))
		for i, doc := range page {
			ids[i] = doc.ID
		}
		return ids, nil
	})
}
