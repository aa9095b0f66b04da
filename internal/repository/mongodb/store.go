package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// Store keeps one MongoDB document per item, keyed by the item name in _id.
type Store struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
}

type itemDocument struct {
	Name     string `bson:"_id"`
	Quantity int    `bson:"quantity"`
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("mongodb connected", zap.String("db", dbName))
	return &Store{client: client, dbName: dbName, logger: logger}, nil
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// ListAll returns every document of the collection sorted by name.
func (s *Store) ListAll(ctx context.Context, collection string) ([]models.Document, error) {
	cursor, err := s.coll(collection).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	var rows []itemDocument
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.Document{Key: row.Name, Fields: models.Fields{Quantity: row.Quantity}})
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, key string) (models.Fields, bool, error) {
	var row itemDocument
	err := s.coll(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Fields{}, false, nil
	}
	if err != nil {
		return models.Fields{}, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return models.Fields{Quantity: row.Quantity}, true, nil
}

// Put replaces the whole document, inserting it when missing.
func (s *Store) Put(ctx context.Context, collection, key string, fields models.Fields) error {
	row := itemDocument{Name: key, Quantity: fields.Quantity}
	_, err := s.coll(collection).ReplaceOne(ctx, bson.M{"_id": key}, row, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.coll(collection).DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// Adjust increments the quantity with $inc. Positive deltas upsert; a document left at zero
// or below is removed with a conditional delete so a concurrent increment is not lost.
func (s *Store) Adjust(ctx context.Context, collection, key string, delta int) (models.Adjustment, error) {
	coll := s.coll(collection)
	filter := bson.M{"_id": key}
	update := bson.M{"$inc": bson.M{"quantity": delta}}

	var before itemDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before).SetUpsert(delta > 0)
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if delta > 0 {
			return models.Adjustment{Quantity: delta}, nil
		}
		return models.Adjustment{}, nil
	}
	if err != nil {
		return models.Adjustment{}, fmt.Errorf("adjust %s/%s: %w", collection, key, err)
	}

	next := before.Quantity + delta
	if next > 0 {
		return models.Adjustment{Existed: true, Quantity: next}, nil
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": key, "quantity": bson.M{"$lte": 0}})
	if err != nil {
		return models.Adjustment{}, fmt.Errorf("delete emptied %s/%s: %w", collection, key, err)
	}
	if res.DeletedCount == 1 {
		return models.Adjustment{Existed: true, Deleted: true}, nil
	}

	// Another writer raised the quantity between the two calls.
	fields, ok, err := s.Get(ctx, collection, key)
	if err != nil {
		return models.Adjustment{}, err
	}
	s.logger.Debug("emptied document was refilled concurrently", zap.String("key", key))
	return models.Adjustment{Existed: true, Deleted: !ok, Quantity: fields.Quantity}, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
