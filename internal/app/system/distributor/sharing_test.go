package distributor

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/assessor/internal/domain/models"
)

func TestShare_GrantsOrModifies(t *testing.T) {
	r := testRoster(t, participant("a@x.com"), participant("b@x.com"))
	store := &memStore{keys: map[string]string{"a@x.com": "sheet-a", "b@x.com": "sheet-b"}}
	client := newFakeClient()
	client.docs["sheet-a"] = &fakeDoc{id: "sheet-a", perms: []models.Permission{{ID: "p1", Email: "A@x.com", Role: models.RoleReader}}}
	client.docs["sheet-b"] = &fakeDoc{id: "sheet-b"}
	d := newTestDistributor(t, r, store, client)

	if err := d.Share(context.Background(), models.RoleWriter, true); err != nil {
		t.Fatalf("Share failed: %v", err)
	}

	a, b := client.docs["sheet-a"], client.docs["sheet-b"]
	if len(a.shared) != 0 || len(a.modified) != 1 || a.modified[0] != "p1:writer" {
		t.Errorf("a: shared=%v modified=%v, want a single modify", a.shared, a.modified)
	}
	if len(b.shared) != 1 || b.shared[0] != "b@x.com:writer" {
		t.Errorf("b: shared=%v, want a single grant", b.shared)
	}
}

func TestShareDelete_OnlyExisting(t *testing.T) {
	r := testRoster(t, participant("a@x.com"), participant("b@x.com"))
	store := &memStore{keys: map[string]string{"a@x.com": "sheet-a", "b@x.com": "sheet-b"}}
	client := newFakeClient()
	client.docs["sheet-a"] = &fakeDoc{id: "sheet-a", perms: []models.Permission{{ID: "p1", Email: "a@x.com", Role: models.RoleWriter}}}
	client.docs["sheet-b"] = &fakeDoc{id: "sheet-b"}
	d := newTestDistributor(t, r, store, client)

	if err := d.ShareDelete(context.Background()); err != nil {
		t.Fatalf("ShareDelete failed: %v", err)
	}
	if got := client.docs["sheet-a"].deleted; len(got) != 1 || got[0] != "p1" {
		t.Errorf("a deleted = %v", got)
	}
	if n := client.docs["sheet-a"].lists; n != 1 {
		t.Errorf("a listed permissions %d times, want 1", n)
	}
	if got := client.docs["sheet-b"].deleted; len(got) != 0 {
		t.Errorf("b deleted = %v, want none", got)
	}
}

func TestShareModify(t *testing.T) {
	r := testRoster(t, participant("a@x.com"))
	store := &memStore{keys: map[string]string{"a@x.com": "sheet-a"}}
	client := newFakeClient()
	client.docs["sheet-a"] = &fakeDoc{id: "sheet-a", perms: []models.Permission{{ID: "p1", Email: "a@x.com", Role: models.RoleWriter}}}
	d := newTestDistributor(t, r, store, client)

	if err := d.ShareModify(context.Background(), models.RoleOwner, false); err != nil {
		t.Fatalf("ShareModify failed: %v", err)
	}
	a := client.docs["sheet-a"]
	if len(a.modified) != 1 || a.modified[0] != "p1:owner" {
		t.Errorf("modified = %v", a.modified)
	}
	if a.lists != 1 {
		t.Errorf("listed permissions %d times, want 1", a.lists)
	}
}

func TestShareModify_NotShared(t *testing.T) {
	r := testRoster(t, participant("a@x.com"))
	client := newFakeClient()
	d := newTestDistributor(t, r, &memStore{}, client)

	err := d.ShareModify(context.Background(), models.RoleReader, false)
	if !errors.Is(err, ErrNotShared) {
		t.Errorf("ShareModify error = %v, want ErrNotShared", err)
	}
}

func TestSharing_InvalidRoleRejectedUpFront(t *testing.T) {
	r := testRoster(t, participant("a@x.com"))
	client := newFakeClient()
	d := newTestDistributor(t, r, &memStore{}, client)
	ctx := context.Background()

	if err := d.Share(ctx, models.Role("commenter"), false); !errors.Is(err, models.ErrInvalidRole) {
		t.Errorf("Share error = %v, want ErrInvalidRole", err)
	}
	if err := d.ShareModify(ctx, models.Role(""), false); !errors.Is(err, models.ErrInvalidRole) {
		t.Errorf("ShareModify error = %v, want ErrInvalidRole", err)
	}
	if client.calls() != 0 {
		t.Errorf("remote calls = %d, want 0", client.calls())
	}
}
