// Package mongostore is a MongoDB-backed datastore.Store embedder, grounded
// on the teacher's storage/mongo.go MongoDB: the same mongo.Connect/ping
// sequence and collection-per-keyspace layout, generalized from
// MongoDB's uint64-keyed YCSB rows to an opaque byte-key/byte-value
// document matching §6.2's untyped read/apply contract.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// document is the BSON shape of one stored key/value pair.
type document struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// Store is a datastore.Store backed by one MongoDB collection.
type Store struct {
	ctx    context.Context
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and selects database/collection, mirroring the
// teacher's MongoDB.init's connect-then-ping sequence.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	return &Store{ctx: ctx, client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error { return s.client.Disconnect(s.ctx) }

func (s *Store) Read(keys [][]byte) (map[string][]byte, error) {
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = string(k)
	}
	cursor, err := s.coll.Find(s.ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(s.ctx)
	out := map[string][]byte{}
	for cursor.Next(s.ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.Key] = doc.Value
	}
	return out, cursor.Err()
}

// Apply upserts every write, per §6.2's "persisted atomically by the
// embedder" using a single ordered bulk write.
func (s *Store) Apply(writes map[string][]byte) error {
	models := make([]mongo.WriteModel, 0, len(writes))
	for k, v := range writes {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": k}).
			SetUpdate(bson.M{"$set": bson.M{"value": v}}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	_, err := s.coll.BulkWrite(s.ctx, models)
	return err
}
