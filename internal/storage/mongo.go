// ABOUTME: MongoDB-backed document store using the official driver.
// ABOUTME: Reads and writes the collections a Mongoose deployment of the tracker already uses.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoConnectTimeout = 10 * time.Second
	mongoDateLayout     = "2006-01-02T15:04:05.000Z07:00"
)

// mongoDateFields are stored as BSON dates, matching the Mongoose Date schema type.
var mongoDateFields = []string{"date", "dateAchieved", "datePosted", "targetDate"}

// MongoStore maps each collection onto a MongoDB collection keyed by _id.
// Mongo offers no transaction here; callers retry an allocation that loses
// a race with ErrDuplicateKey.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Compile-time check that MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

// OpenMongo connects to uri, verifies the connection, and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection("Users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Update runs fn directly against the collection.
func (s *MongoStore) Update(ctx context.Context, collection string, fn func(tx Tx) error) error {
	return fn(&mongoTx{ctx: ctx, coll: s.db.Collection(collection)})
}

// Get retrieves a document by identifier.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return bsonToDocument(id, raw)
}

// List returns every document in natural order.
func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.D{})
}

// Find returns documents whose field equals value.
func (s *MongoStore) Find(ctx context.Context, collection, field, value string) ([]Document, error) {
	return s.find(ctx, collection, bson.D{{Key: field, Value: value}})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.D) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		id, _ := raw["_id"].(string)
		doc, err := bsonToDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes a document and returns what it held.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return bsonToDocument(id, raw)
}

// DeleteMany removes every document whose field equals value.
func (s *MongoStore) DeleteMany(ctx context.Context, collection, field, value string) (int, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{{Key: field, Value: value}})
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	return int(res.DeletedCount), nil
}

// bsonToDocument renders a decoded BSON document as plain JSON.
func bsonToDocument(id string, raw bson.M) (Document, error) {
	fromBSONDates(raw)
	data, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", id, err)
	}
	return Document{ID: id, Data: data}, nil
}

type mongoTx struct {
	ctx  context.Context
	coll *mongo.Collection
}

func (t *mongoTx) Last() (string, bool, error) {
	var doc struct {
		ID string `bson:"_id"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := t.coll.FindOne(t.ctx, bson.D{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last %s: %w", t.coll.Name(), err)
	}
	return doc.ID, true, nil
}

func (t *mongoTx) Exists(id string) (bool, error) {
	n, err := t.coll.CountDocuments(t.ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", t.coll.Name(), id, err)
	}
	return n > 0, nil
}

func (t *mongoTx) Insert(id string, data []byte) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return fmt.Errorf("convert %s/%s: %w", t.coll.Name(), id, err)
	}
	if _, err := t.coll.InsertOne(t.ctx, toBSONDates(doc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s/%s: %w", t.coll.Name(), id, ErrDuplicateKey)
		}
		return fmt.Errorf("insert %s/%s: %w", t.coll.Name(), id, err)
	}
	return nil
}

// toBSONDates replaces top-level timestamp strings in the date fields with
// BSON dates. Values that do not parse are stored unchanged.
func toBSONDates(doc bson.D) bson.D {
	for i, e := range doc {
		if !slices.Contains(mongoDateFields, e.Key) {
			continue
		}
		s, ok := e.Value.(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			continue
		}
		doc[i].Value = primitive.NewDateTimeFromTime(ts)
	}
	return doc
}

// fromBSONDates renders BSON dates in the date fields as millisecond UTC strings.
func fromBSONDates(raw bson.M) {
	for _, field := range mongoDateFields {
		if d, ok := raw[field].(primitive.DateTime); ok {
			raw[field] = d.Time().UTC().Format(mongoDateLayout)
		}
	}
}
