package indexes_test

import (
	"testing"

	"github.com/dalemusser/assessor/internal/app/system/indexes"
	"github.com/dalemusser/assessor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var all = indexes.Set{SheetKeys: true, Audit: true}

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := map[string]bool{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode index failed: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, all, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, all, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, all, nil); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		indexes.SheetKeys:          {"idx_sheet_keys_namespace_email"},
		indexes.DistributionEvents: {"idx_events_timestamp", "idx_events_run_time", "idx_events_email_time"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if !got[n] {
				t.Errorf("expected index %q on %s, have %v", n, coll, got)
			}
		}
	}
}

func TestEnsureAll_OnlySelected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, indexes.Set{Audit: true}, nil); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if got := indexNames(t, db, indexes.SheetKeys); got["idx_sheet_keys_namespace_email"] {
		t.Error("sheet key index created although not selected")
	}
}

func TestEnsureAll_RenamesIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection(indexes.DistributionEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, all, nil); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, db, indexes.DistributionEvents)
	if !got["idx_events_timestamp"] || got["timestamp_-1"] {
		t.Errorf("indexes = %v, want legacy index renamed", got)
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, all, nil); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection(indexes.SheetKeys)
	doc := bson.M{"namespace": "k.yml", "email": "a@x.com", "sheet_id": "1"}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	dup := bson.M{"namespace": "k.yml", "email": "a@x.com", "sheet_id": "2"}
	if _, err := coll.InsertOne(ctx, dup); err == nil {
		t.Error("expected duplicate key error for (namespace, email)")
	}
}
