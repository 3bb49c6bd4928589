package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type mongoEventRepo struct {
	col *mongo.Collection
}

func NewMongoEventRepository(col *mongo.Collection) EventRepository {
	return &mongoEventRepo{col: col}
}

// EnsureEventIndexes makes id and link unique so a link token can never be
// handed out twice.
func EnsureEventIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "link", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "coordinatorId", Value: 1}}},
	})
	return err
}

func (r *mongoEventRepo) Create(ctx context.Context, e *Event) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &Error{Kind: KindConflictRetry, Message: "event id or link already taken", Cause: err}
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *mongoEventRepo) GetByID(ctx context.Context, id string) (Event, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoEventRepo) GetByLink(ctx context.Context, link string) (Event, error) {
	return r.findOne(ctx, bson.M{"link": link})
}

func (r *mongoEventRepo) findOne(ctx context.Context, filter bson.M) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var e Event
	if err := r.col.FindOne(ctx, filter).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func (r *mongoEventRepo) ListVisible(ctx context.Context, ids []string, coordinatorID int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	or := bson.A{}
	if len(ids) > 0 {
		or = append(or, bson.M{"id": bson.M{"$in": ids}})
	}
	if coordinatorID != 0 {
		or = append(or, bson.M{"coordinatorId": coordinatorID})
	}
	if len(or) == 0 {
		return []Event{}, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"$or": or}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cur.Close(ctx)

	out := []Event{}
	for cur.Next(ctx) {
		var e Event
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

// Update never touches id, link, coordinator or event type.
func (r *mongoEventRepo) Update(ctx context.Context, e *Event, expected int64) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"id": e.ID, "version": expected},
		bson.M{
			"$set": bson.M{
				"name":        e.Name,
				"description": e.Description,
				"location":    e.Location,
				"details":     e.Details,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		// either gone or someone else won the race
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	e.Version = expected + 1
	return nil
}

func (r *mongoEventRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	if _, err := r.col.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
