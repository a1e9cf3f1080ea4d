package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the MongoDB backend. Each collection maps onto a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to uri and pings the server before returning, so a
// returned *Mongo is known to have been reachable.
func NewMongo(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("store: empty mongo connection string")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailable("mongo connect", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable("mongo ping", err)
	}

	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Available() bool { return true }

func (m *Mongo) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", mongoError("insert into "+collection, err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	default:
		return fmt.Sprint(id), nil
	}
}

func (m *Mongo) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	err = m.db.Collection(collection).FindOne(ctx, bson.M(f)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return mongoError("find in "+collection, err)
	}
	return nil
}

func (m *Mongo) ListCollections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, mongoError("list collections", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (m *Mongo) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + "_unique"),
	})
	if err != nil {
		return mongoError("ensure index "+collection+"."+field, err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func mongoError(op string, err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("store: %s: %w", op, ErrDuplicate)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return unavailable(op, err)
	default:
		return fmt.Errorf("store: %s: %w", op, err)
	}
}
