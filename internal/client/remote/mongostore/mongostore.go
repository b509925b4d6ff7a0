// Package mongostore is a remote.DocumentStore backed by a MongoDB
// collection. Record ids are stored as _id; createdAt and updatedAt are
// assigned by the server with $currentDate.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, c Config) (*Store, error) {
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", mapErr(err))
	}

	return &Store{client: client, coll: client.Database(c.Database).Collection(c.Collection)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Insert(ctx context.Context, doc remote.Document) (remote.Document, error) {
	id := doc.ID()
	if id == "" {
		return nil, fmt.Errorf("mongostore: insert: missing %s", remote.FieldID)
	}

	// The createdAt guard makes an existing _id miss the filter, so the
	// upsert fails with a duplicate key instead of overwriting.
	filter := bson.M{"_id": id, remote.FieldCreatedAt: bson.M{"$exists": false}}
	update := bson.M{
		"$setOnInsert": toBSON(doc),
		"$currentDate": bson.M{remote.FieldCreatedAt: true, remote.FieldUpdatedAt: true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out bson.M
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("mongostore: insert %s: %w", id, mapErr(err))
	}
	return fromBSON(out), nil
}

func (s *Store) List(ctx context.Context) ([]remote.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: remote.FieldCreatedAt, Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: list: %w", mapErr(err))
	}
	defer cur.Close(ctx)

	var docs []remote.Document
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("mongostore: decode: %w", err)
		}
		docs = append(docs, fromBSON(m))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore: list: %w", mapErr(err))
	}
	return docs, nil
}

func (s *Store) Update(ctx context.Context, id string, set remote.Document) (remote.Document, error) {
	update := bson.M{"$currentDate": bson.M{remote.FieldUpdatedAt: true}}
	if fields := toBSON(set); len(fields) > 0 {
		update["$set"] = fields
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out bson.M
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("mongostore: update %s: %w", id, mapErr(err))
	}
	return fromBSON(out), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongostore: delete %s: %w", id, mapErr(err))
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongostore: delete %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return mapErr(err)
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return remote.ErrNotFound
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%w: %v", remote.ErrUnavailable, err)
	}
	return err
}

// toBSON maps a document to the fields written by $set/$setOnInsert. The id
// and the server timestamps are never written from the client.
func toBSON(d remote.Document) bson.M {
	out := bson.M{}
	for k, v := range d {
		switch k {
		case remote.FieldID, "_id", remote.FieldCreatedAt, remote.FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

func fromBSON(m bson.M) remote.Document {
	out := make(remote.Document, len(m))
	for k, v := range m {
		if k == "_id" {
			switch id := v.(type) {
			case string:
				out[remote.FieldID] = id
			case primitive.ObjectID:
				out[remote.FieldID] = id.Hex()
			}
			continue
		}
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromBSONValue(t[i])
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSONValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case int32:
		return int64(t)
	}
	return v
}
