package distributor

import (
	"context"
	"fmt"
	"testing"

	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/domain/models"
	"go.uber.org/zap"
)

type fakeClient struct {
	next      int
	docs      map[string]*fakeDoc
	created   []string // titles, in order
	opened    []string // ids, in order
	createErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{docs: map[string]*fakeDoc{}}
}

func (c *fakeClient) Create(ctx context.Context, title, worksheet string) (Document, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.next++
	d := &fakeDoc{id: fmt.Sprintf("sheet-%d", c.next), title: title}
	c.docs[d.id] = d
	c.created = append(c.created, title)
	return d, nil
}

func (c *fakeClient) Open(ctx context.Context, id, worksheet string) (Document, error) {
	d, ok := c.docs[id]
	if !ok {
		d = &fakeDoc{id: id}
		c.docs[id] = d
	}
	c.opened = append(c.opened, id)
	return d, nil
}

func (c *fakeClient) calls() int { return len(c.created) + len(c.opened) }

type fakeDoc struct {
	id    string
	title string

	writes    int
	lastWrite models.Table
	header    int
	comment   string
	bodies    int
	headers   int
	comments  []string

	readTable models.Table
	prev      models.Table
	updates   []models.Table
	updCols   []string

	perms    []models.Permission
	lists    int
	shared   []string
	modified []string
	deleted  []string

	writeErr error
}

func (d *fakeDoc) ID() string { return d.id }

func (d *fakeDoc) Write(ctx context.Context, t models.Table, header int, comment string) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.writes++
	d.lastWrite, d.header, d.comment = t, header, comment
	return nil
}

func (d *fakeDoc) WriteHeaders(ctx context.Context, t models.Table) error {
	d.headers++
	return nil
}

func (d *fakeDoc) WriteBody(ctx context.Context, t models.Table) error {
	d.bodies++
	d.lastWrite = t
	return nil
}

func (d *fakeDoc) WriteComment(ctx context.Context, comment string, row, column int) error {
	d.comments = append(d.comments, fmt.Sprintf("%d,%d:%s", row, column, comment))
	return nil
}

func (d *fakeDoc) Read(ctx context.Context, names, useColumns []string) (models.Table, error) {
	return d.readTable, nil
}

func (d *fakeDoc) Update(ctx context.Context, t models.Table, columns []string, comment string, overwrite bool) (models.Table, error) {
	d.updates = append(d.updates, t)
	d.updCols = columns
	return d.prev, nil
}

func (d *fakeDoc) Share(ctx context.Context, emails []string, role models.Role, notify bool) error {
	for _, e := range emails {
		d.shared = append(d.shared, e+":"+role.String())
		d.perms = append(d.perms, models.Permission{ID: "p-" + e, Email: e, Role: role})
	}
	return nil
}

func (d *fakeDoc) ShareList(ctx context.Context) ([]models.Permission, error) {
	d.lists++
	return d.perms, nil
}

func (d *fakeDoc) ShareModify(ctx context.Context, perm models.Permission, role models.Role, notify bool) error {
	d.modified = append(d.modified, perm.ID+":"+role.String())
	return nil
}

func (d *fakeDoc) ShareDelete(ctx context.Context, perm models.Permission) error {
	d.deleted = append(d.deleted, perm.ID)
	return nil
}

// memStore is an in-memory KeyStore that counts saves.
type memStore struct {
	keys  map[string]string
	saves int
}

func (m *memStore) Load(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.keys {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Save(ctx context.Context, keys map[string]string) error {
	m.saves++
	m.keys = map[string]string{}
	for k, v := range keys {
		m.keys[k] = v
	}
	return nil
}

func (m *memStore) Close(ctx context.Context) error { return nil }

func testRoster(t *testing.T, ps ...models.Participant) *roster.Roster {
	t.Helper()
	r, err := roster.New(ps)
	if err != nil {
		t.Fatalf("roster.New: %v", err)
	}
	return r
}

func participant(email string, kv ...string) models.Participant {
	fields := map[string]string{"Email": email}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return models.Participant{Email: email, Fields: fields}
}

func newTestDistributor(t *testing.T, r *roster.Roster, store *memStore, client *fakeClient) *Distributor {
	t.Helper()
	d, err := New(context.Background(), Config{
		Roster:    r,
		Store:     store,
		Client:    client,
		Title:     "Lab 1",
		Worksheet: "Sheet1",
		Logger:    zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}
