package sheetkeys

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// keyDoc is one mapping entry in the sheet_keys collection.
type keyDoc struct {
	Email     string    `bson:"email"`
	SheetID   string    `bson:"sheet_id"`
	Namespace string    `bson:"namespace"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps the mapping in the sheet_keys collection. Entries are
// scoped by namespace so several courses can share one database.
type MongoStore struct {
	c         *mongo.Collection
	namespace string
}

// NewMongoStore creates a store on db. namespace usually names the keys file
// the mapping would otherwise live in.
func NewMongoStore(db *mongo.Database, namespace string) *MongoStore {
	return &MongoStore{c: db.Collection("sheet_keys"), namespace: namespace}
}

// Load returns every entry in the namespace.
func (s *MongoStore) Load(ctx context.Context) (map[string]string, error) {
	if s == nil || s.c == nil {
		return nil, ErrNotConfigured
	}
	cur, err := s.c.Find(ctx, bson.M{"namespace": s.namespace})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := map[string]string{}
	for cur.Next(ctx) {
		var d keyDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		keys[d.Email] = d.SheetID
	}
	return keys, cur.Err()
}

// Save upserts every entry and removes namespace entries not in keys.
func (s *MongoStore) Save(ctx context.Context, keys map[string]string) error {
	if s == nil || s.c == nil {
		return ErrNotConfigured
	}
	now := time.Now().UTC()

	models := make([]mongo.WriteModel, 0, len(keys)+1)
	emails := make([]string, 0, len(keys))
	for email, id := range keys {
		emails = append(emails, email)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"namespace": s.namespace, "email": email}).
			SetReplacement(keyDoc{Email: email, SheetID: id, Namespace: s.namespace, UpdatedAt: now}).
			SetUpsert(true))
	}
	models = append(models, mongo.NewDeleteManyModel().
		SetFilter(bson.M{"namespace": s.namespace, "email": bson.M{"$nin": emails}}))

	_, err := s.c.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

// Close leaves the client open; its owner disconnects it.
func (s *MongoStore) Close(ctx context.Context) error { return nil }
