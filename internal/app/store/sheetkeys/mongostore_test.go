package sheetkeys

import (
	"testing"

	"github.com/dalemusser/assessor/internal/testutil"
)

func TestMongoStore_SaveLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := NewMongoStore(db, "spreadsheet_keys.yml")
	if err := s.Save(ctx, map[string]string{"a@x.com": "1", "b@x.com": "2"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, map[string]string{"b@x.com": "3"}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	keys, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(keys) != 1 || keys["b@x.com"] != "3" {
		t.Errorf("Load = %v, want only b@x.com=3", keys)
	}
}
